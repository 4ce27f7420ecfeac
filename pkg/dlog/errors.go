package dlog

import "errors"

// Sentinel errors returned by Log construction and operations. Matching
// the taxonomy of spec §7: argument validation and permission decisions
// fail the enclosing operation without mutating state; I/O failures
// propagate unchanged (wrapped with %w) to the caller.
var (
	ErrMissingStore            = errors.New("dlog: missing block store")
	ErrMissingAccessController = errors.New("dlog: missing access controller")
	ErrMissingIdentity         = errors.New("dlog: missing identity")
	ErrInvalidArgument         = errors.New("dlog: invalid argument")
	ErrLogNotDefined           = errors.New("dlog: log not defined")
	ErrNotALog                 = errors.New("dlog: not a log")
	ErrAppendDenied            = errors.New("dlog: append denied")
	ErrJoinDenied              = errors.New("dlog: join denied")
	ErrSignatureInvalid        = errors.New("dlog: signature invalid")
)
