package entry

import "errors"

// ErrSignatureInvalid is returned by Verify when an entry's signature does
// not match its claimed identity (spec §4.2, §9).
var ErrSignatureInvalid = errors.New("entry: signature invalid")
