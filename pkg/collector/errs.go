package collector

import "errors"

// ErrUnknownCPUKind indicates Usage was called with a CPUKind it does
// not know. This is a contract violation at the call site, never a
// value to be swallowed.
var ErrUnknownCPUKind = errors.New("collector: unknown cpu usage kind")
