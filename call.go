package standin

// callRecord is one observed invocation. Verification consults the log to
// show an unmet expectation the calls its operation actually received, and
// the sequence indices are what ordering verification compares.
type callRecord struct {
	op     string
	args   []any
	seq    int
	expect *Expect // nil when the call matched nothing
}

/*
Call0 forwards a call to an operation with no results. A forwarding shim's
whole body is one Call helper invocation: locate the stand-in, forward the
arguments, pass the result back. No logic belongs in the shim.
*/
func Call0(s *StandIn, op string, args ...any) {
	s.dispatch(op, args)
}

/*
Call1 forwards a call to an operation with a single result of type R. When
the matched expectation scripted no response, or the call matched no
expectation at all, the zero value of R is produced:

	func loggerWriteLog(message string) int {
	    return standin.Call1[int](standin.Instance[Logger](), "WriteLog", message)
	}

Call1 panics with [ConfigurationError] when the scripted response does not
have exactly one value assignable to R.
*/
func Call1[R any](s *StandIn, op string, args ...any) R {
	res := s.dispatch(op, args)
	return resultValue[R](op, res, 0, 1)
}

/*
Call2 forwards a call to an operation with two results, the usual shape for
a value-and-error pair. Unscripted responses produce both zero values.
*/
func Call2[R1, R2 any](s *StandIn, op string, args ...any) (R1, R2) {
	res := s.dispatch(op, args)
	return resultValue[R1](op, res, 0, 2), resultValue[R2](op, res, 1, 2)
}

/*
Call3 forwards a call to an operation with three results.
*/
func Call3[R1, R2, R3 any](s *StandIn, op string, args ...any) (R1, R2, R3) {
	res := s.dispatch(op, args)
	return resultValue[R1](op, res, 0, 3), resultValue[R2](op, res, 1, 3), resultValue[R3](op, res, 2, 3)
}

/*
Call is the untyped forwarding entry point, for shims built with reflection
or with result shapes the typed helpers don't cover. Unlike the typed
helpers, Call carries no result type information, so nothing can be defaulted:
a call that resolves to no scripted response panics with
[ConfigurationError]. Shims for void operations should use [Call0] instead.
*/
func (s *StandIn) Call(op string, args ...any) []any {
	res := s.dispatch(op, args)
	if res == nil {
		panic(configErrorf("operation %s produced no scripted response and has no result type to default from", op))
	}
	return res
}

// resultValue extracts one scripted value, defaulting to R's zero value when
// nothing was scripted, and refusing responses that don't fit the shim.
func resultValue[R any](op string, res []any, idx, want int) R {
	var zero R
	if res == nil {
		return zero
	}
	if len(res) != want {
		panic(configErrorf("operation %s scripted %d result value(s), the shim expects %d", op, len(res), want))
	}
	if res[idx] == nil {
		return zero // scripted nil, e.g. the error of a value-and-error pair
	}
	v, ok := res[idx].(R)
	if !ok {
		panic(configErrorf("operation %s result %d: scripted value of type %T is not assignable to %T",
			op, idx, res[idx], zero))
	}
	return v
}
