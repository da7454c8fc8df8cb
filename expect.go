// This file is part of Standin project, available at https://github.com/qrdl/standin
// Copyright (c) 2024-2026 Ilya Caramishev. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at https://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package standin

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

const (
	// Once is the default cardinality: exactly one call.
	Once = 1
	// Unlimited marks an open upper bound for [Expect.AtLeast] and
	// [Expect.AnyTimes] cardinalities.
	Unlimited = -1
)

/*
Expect holds one declared expectation: the argument matchers, the cardinality
bounds, the ordering prerequisites and the response script. It is created
with [StandIn.On]; all its methods return the same Expect so declarations
read as one chain:

	kv.On("Get", "colour").Times(2).Return("red").Always("blue")

Cardinality, ordering and script methods must be called while declaring, not
after calls started arriving - a later mutation is legal but the ordering
check still applies to calls already recorded.
*/
type Expect struct {
	owner       *StandIn
	op          string
	matchers    []Matcher
	anyArgs     bool
	min, max    int
	after       []*Expect
	oneShots    [][]any
	fallback    []any
	hasFallback bool
	do          func(args ...any)
	actCount    int
	firstSeq    int
}

/*
Times declares that the operation is expected to be called exactly n times.
Zero is a valid count - it declares that the operation must not be called.
Panics with [UsageError] on a negative count.
*/
func (e *Expect) Times(n int) *Expect {
	if n < 0 {
		panic(usageErrorf("invalid count %d: must not be negative", n))
	}
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.min, e.max = n, n
	return e
}

/*
AtLeast declares that the operation is expected to be called n times or more.
*/
func (e *Expect) AtLeast(n int) *Expect {
	if n < 0 {
		panic(usageErrorf("invalid count %d: must not be negative", n))
	}
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.min, e.max = n, Unlimited
	return e
}

/*
AtMost declares that the operation is expected to be called n times at most,
possibly not at all.
*/
func (e *Expect) AtMost(n int) *Expect {
	if n < 0 {
		panic(usageErrorf("invalid count %d: must not be negative", n))
	}
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.min, e.max = 0, n
	return e
}

/*
Between declares that the number of calls must lie within [min, max],
inclusive on both ends. Panics with [UsageError] on invalid bounds.
*/
func (e *Expect) Between(min, max int) *Expect {
	if min < 0 || max < min {
		panic(usageErrorf("invalid bounds [%d, %d]: need 0 <= min <= max", min, max))
	}
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.min, e.max = min, max
	return e
}

/*
AnyTimes declares that any number of calls, including none, is acceptable.
*/
func (e *Expect) AnyTimes() *Expect {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.min, e.max = 0, Unlimited
	return e
}

/*
After declares an ordering prerequisite: this expectation is not eligible for
matching until prereq has fired at least once, and verification reports an
ordering failure unless prereq's first match came strictly before this
expectation's first match. After can be called several times to declare
several prerequisites.

Both expectations must belong to the same stand-in, and an expectation cannot
be its own prerequisite; either mistake panics with [UsageError].
*/
func (e *Expect) After(prereq *Expect) *Expect {
	if prereq == e {
		panic(usageErrorf("%s expectation cannot be ordered after itself", e.op))
	}
	if prereq == nil || prereq.owner != e.owner {
		panic(usageErrorf("ordering prerequisite must belong to the same stand-in"))
	}
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.after = append(e.after, prereq)
	return e
}

/*
Return queues one one-shot response: the given values are produced for a
single matching call. One-shot responses are consumed in declaration order,
after which the [Expect.Always] fallback repeats indefinitely. A matching
call with neither a one-shot nor a fallback left produces the result type's
default value:

	acc.On("Balance", "1024").Times(4).Return(300.0).Return(100.0).Always(0.0)
	// successive calls yield 300, 100, 0, 0
*/
func (e *Expect) Return(vals ...any) *Expect {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.oneShots = append(e.oneShots, vals)
	return e
}

/*
Always sets the repeating fallback response, produced for every matching call
once the one-shot responses are exhausted. Setting it again replaces the
previous fallback.
*/
func (e *Expect) Always(vals ...any) *Expect {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.fallback = vals
	e.hasFallback = true
	return e
}

/*
Do attaches a side-effect hook, invoked with the actual arguments on every
matching call, before the response is produced. Useful for capturing
arguments the later assertions need:

	var logged []string
	log.On("WriteLog", standin.Any()).AnyTimes().Do(func(args ...any) {
	    logged = append(logged, args[0].(string))
	}).Always(0)

The hook runs with the ledger unlocked, so it may call back into the same
stand-in, for example when it drives production code that chains into
another intercepted operation.
*/
func (e *Expect) Do(f func(args ...any)) *Expect {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.do = f
	return e
}

/*
Calls reports how many times the expectation has fired so far. It can be
queried during the test as well as after verification.
*/
func (e *Expect) Calls() int {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	return e.actCount
}

/*
Context returns the context of the owning stand-in.
*/
func (e *Expect) Context() context.Context {
	return e.owner.ctx
}

/*
Testing returns the test handle, embedded into the owning stand-in's context.
*/
func (e *Expect) Testing() testing.TB {
	return Testing(e.owner.ctx)
}

// accepts reports whether the matchers agree with the actual argument list.
func (e *Expect) accepts(args []any) bool {
	if e.anyArgs {
		return true
	}
	if len(args) != len(e.matchers) {
		return false
	}
	for i, m := range e.matchers {
		if !m.Matches(args[i]) {
			return false
		}
	}
	return true
}

func (e *Expect) prereqsMet() bool {
	for _, p := range e.after {
		if p.actCount == 0 {
			return false
		}
	}
	return true
}

func (e *Expect) exhausted() bool {
	return e.max != Unlimited && e.actCount >= e.max
}

// decline explains why the expectation refused the argument list: the first
// mismatching argument (with the difference found), an unmet ordering
// prerequisite, or an exhausted cardinality.
func (e *Expect) decline(args []any) string {
	if !e.accepts(args) {
		if len(args) != len(e.matchers) {
			return fmt.Sprintf("got %d argument(s), %d expected", len(args), len(e.matchers))
		}
		for i, m := range e.matchers {
			if !m.Matches(args[i]) {
				return fmt.Sprintf("arg %d: %s", i, explainMismatch(m, args[i]))
			}
		}
	}
	if !e.prereqsMet() {
		return "its ordering prerequisite has not fired yet"
	}
	if e.exhausted() {
		return fmt.Sprintf("it already fired %s", times(e.actCount))
	}
	return "reason unknown"
}

// nextResponse consumes the one-shot queue first, then repeats the fallback.
// Returns nil when nothing was scripted and the caller has to produce the
// default value.
func (e *Expect) nextResponse() []any {
	if len(e.oneShots) > 0 {
		r := e.oneShots[0]
		e.oneShots = e.oneShots[1:]
		if r == nil {
			r = []any{}
		}
		return r
	}
	if e.hasFallback {
		if e.fallback == nil {
			return []any{}
		}
		return e.fallback
	}
	return nil
}

func (e *Expect) describe() string {
	if e.anyArgs {
		return fmt.Sprintf("expectation %s(...)", e.op)
	}
	parts := make([]string, len(e.matchers))
	for i, m := range e.matchers {
		parts[i] = m.String()
	}
	return fmt.Sprintf("expectation %s(%s)", e.op, strings.Join(parts, ", "))
}

func (e *Expect) cardinality() string {
	switch {
	case e.min == e.max:
		return fmt.Sprintf("exactly %s", times(e.min))
	case e.max == Unlimited && e.min == 0:
		return "any number of times"
	case e.max == Unlimited:
		return fmt.Sprintf("at least %s", times(e.min))
	case e.min == 0:
		return fmt.Sprintf("at most %s", times(e.max))
	default:
		return fmt.Sprintf("between %d and %d times", e.min, e.max)
	}
}
