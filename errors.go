package standin

import (
	"errors"
	"fmt"
)

// ErrExpectationsNotMet wraps all verification failures returned by
// [StandIn.ExpectationsWereMet], so callers can test the joined error
// with errors.Is.
var ErrExpectationsNotMet = errors.New("expectations were not met")

/*
UsageError indicates a test-authoring bug - registering a second stand-in for
an already occupied slot, looking up an empty slot, declaring expectations on
an already verified stand-in, or passing invalid cardinality bounds. It is
delivered via panic because the test that caused it cannot produce reliable
results and must not continue.
*/
type UsageError struct {
	msg string
}

func (e UsageError) Error() string {
	return e.msg
}

func usageErrorf(format string, args ...any) UsageError {
	return UsageError{msg: fmt.Sprintf(format, args...)}
}

/*
ConfigurationError indicates that a response cannot be produced for a call:
the untyped [StandIn.Call] path was used with no scripted response (there is
no result type information to synthesize a default from), the scripted value
is not assignable to the shim's result type, or the scripted response arity
does not match the shim. Delivered via panic, for the same reason as
[UsageError].
*/
type ConfigurationError struct {
	msg string
}

func (e ConfigurationError) Error() string {
	return e.msg
}

func configErrorf(format string, args ...any) ConfigurationError {
	return ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

// FailureKind discriminates the violations found by verification.
type FailureKind int

const (
	// FailureNotMet - the expectation fired fewer times than its declared minimum.
	FailureNotMet FailureKind = iota + 1
	// FailureOverrun - the expectation fired more times than its declared maximum.
	FailureOverrun
	// FailureOrder - the expectation was satisfied although its prerequisite
	// was not satisfied strictly before it.
	FailureOrder
	// FailureUnexpectedCall - a call matched no expectation while the
	// stand-in was in [Strict] mode.
	FailureUnexpectedCall
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotMet:
		return "cardinality not met"
	case FailureOverrun:
		return "cardinality exceeded"
	case FailureOrder:
		return "ordering violated"
	case FailureUnexpectedCall:
		return "unexpected call"
	}
	return "unknown failure"
}

/*
VerificationError is one itemized violation found during verification. Multiple
violations in one test are reported as separate VerificationError values joined
under [ErrExpectationsNotMet], never folded into a single aggregate, so every
unmet expectation is visible in one run.
*/
type VerificationError struct {
	Kind FailureKind
	Op   string
	msg  string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func verificationErrorf(kind FailureKind, op, format string, args ...any) *VerificationError {
	return &VerificationError{
		Kind: kind,
		Op:   op,
		msg:  fmt.Sprintf(format, args...),
	}
}
