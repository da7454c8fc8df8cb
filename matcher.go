package standin

import (
	"fmt"
	"reflect"

	"github.com/google/go-cmp/cmp"
)

/*
Matcher is a predicate over one call argument, used to decide whether an
expectation applies to a given call. Arguments passed to [StandIn.On] that
are not Matchers are wrapped with [Eq] automatically.
*/
type Matcher interface {
	// Matches reports whether the actual argument is acceptable.
	Matches(actual any) bool
	// String describes the matcher for failure messages.
	String() string
}

// explainer is implemented by matchers that can say what exactly did not
// match. Unexpected-call diagnostics use it to describe the difference
// instead of just restating the matcher.
type explainer interface {
	explain(actual any) string
}

func explainMismatch(m Matcher, actual any) string {
	if ex, ok := m.(explainer); ok {
		return ex.explain(actual)
	}
	return fmt.Sprintf("actual value '%v' does not match %s", actual, m)
}

type anyMatcher struct{}

func (anyMatcher) Matches(any) bool { return true }
func (anyMatcher) String() string   { return "<any>" }

// Any returns a matcher that accepts every argument value.
func Any() Matcher {
	return anyMatcher{}
}

type eqMatcher struct {
	expected any
}

func (m eqMatcher) Matches(actual any) bool {
	res, _ := matchValue(actual, m.expected)
	return res
}

func (m eqMatcher) explain(actual any) string {
	_, msg := matchValue(actual, m.expected)
	return msg
}

func (m eqMatcher) String() string {
	return fmt.Sprintf("%v", m.expected)
}

// Eq returns a matcher comparing the argument with the expected value using
// deep equality: pointers are followed, structs, maps, slices and arrays are
// compared element-wise.
func Eq(expected any) Matcher {
	return eqMatcher{expected: expected}
}

type funcMatcher struct {
	f    func(actual any) bool
	desc string
}

func (m funcMatcher) Matches(actual any) bool { return m.f(actual) }
func (m funcMatcher) String() string          { return m.desc }

// Match returns a matcher backed by an arbitrary predicate.
func Match(f func(actual any) bool) Matcher {
	return funcMatcher{f: f, desc: "<predicate>"}
}

type cmpMatcher struct {
	expected any
	opts     []cmp.Option
}

func (m cmpMatcher) Matches(actual any) bool {
	if actual == nil || m.expected == nil {
		return isNilValue(reflect.ValueOf(actual)) && isNilValue(reflect.ValueOf(m.expected))
	}
	if reflect.TypeOf(actual) != reflect.TypeOf(m.expected) {
		return false
	}
	return cmp.Equal(actual, m.expected, m.opts...)
}

func (m cmpMatcher) explain(actual any) string {
	if actual == nil || m.expected == nil || reflect.TypeOf(actual) != reflect.TypeOf(m.expected) {
		return fmt.Sprintf("actual type %T differs from expected type %T", actual, m.expected)
	}
	return fmt.Sprintf("diff (-expected +actual):\n%s", cmp.Diff(m.expected, actual, m.opts...))
}

func (m cmpMatcher) String() string {
	return fmt.Sprintf("%v", m.expected)
}

// Cmp returns a matcher comparing the argument with the expected value using
// [cmp.Equal], so the comparison can be tuned with cmp options - ignoring
// struct fields, approximating floats and so on.
func Cmp(expected any, opts ...cmp.Option) Matcher {
	return cmpMatcher{expected: expected, opts: opts}
}

func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	return isNillable(v) && v.IsNil()
}
