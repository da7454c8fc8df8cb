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
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
)

/*
Mode controls how a stand-in treats calls that match no declared expectation.
Whatever the mode, an unexpected call returns the type-appropriate default
value so the production code path keeps running.
*/
type Mode int

const (
	// Verbose (the default) accepts unexpected calls but logs a warning
	// diagnostic through the test handle.
	Verbose Mode = iota
	// Permissive accepts unexpected calls silently.
	Permissive
	// Strict marks the test failed on an unexpected call. The failure is
	// non-fatal: the call still returns the default value and the test body
	// continues, so later assertions still run. Verification itemizes the
	// same failure in its result.
	Strict
)

/*
StandIn is one test's fake implementation of a dependency: the expectation
ledger plus the call log. Create it with [New], declare expectations with
[StandIn.On], and let forwarding shims obtain it via [Instance].

A StandIn belongs exclusively to the test that created it. Matching and
recording are serialized internally, so production code that spawns workers
calling the same shim does not corrupt counters or sequence indices.
*/
type StandIn struct {
	mu        sync.Mutex
	ctx       context.Context
	key       reflect.Type
	mode      Mode
	expected  []*Expect
	calls     []callRecord
	failures  []*VerificationError
	finalized bool
}

/*
On declares an expectation for operation op. Each argument is either a
[Matcher] or a literal value, compared with deep equality; calling On with no
arguments declares an expectation matching any argument list.

The returned [Expect] carries the default cardinality of exactly one call
until one of its cardinality methods says otherwise.

When expectations with overlapping matchers are declared for the same
operation, a call is routed to the most recently declared one that is still
active, so later declarations override earlier ones:

	db.On("Fetch", standin.Any()).AnyTimes().Always("")      // general fallback
	db.On("Fetch", "k1").Times(2).Return("v1").Always("v1")  // special case, wins for "k1"

On panics with [UsageError] when called after the stand-in was verified.
*/
func (s *StandIn) On(op string, args ...any) *Expect {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		panic(usageErrorf("cannot declare %s expectation: stand-in for %s is already verified", op, s.key))
	}

	e := &Expect{
		owner:    s,
		op:       op,
		min:      Once,
		max:      Once,
		firstSeq: -1,
	}
	if len(args) > 0 {
		e.matchers = make([]Matcher, len(args))
		for i, a := range args {
			if m, ok := a.(Matcher); ok {
				e.matchers[i] = m
			} else {
				e.matchers[i] = Eq(a)
			}
		}
	} else {
		e.anyArgs = true
	}

	s.expected = append(s.expected, e)
	return e
}

// dispatch resolves one incoming call and produces its response. The ledger
// lock is released before the Do hook and the test reporter run, so either
// of them can call back into the stand-in - production code chaining two
// intercepted operations from a hook must not deadlock.
func (s *StandIn) dispatch(op string, args []any) []any {
	matched, res, report := s.resolve(op, args)

	if matched != nil {
		if matched.do != nil {
			matched.do(args...)
		}
		return res
	}

	switch s.mode {
	case Permissive:
	case Strict:
		Testing(s.ctx).Errorf("standin: %s", report)
	default:
		Testing(s.ctx).Logf("standin: %s", report)
	}
	return nil
}

// resolve selects the expectation per the precedence rule (most recently
// declared active match wins, unmet ordering prerequisite makes an
// expectation ineligible), updates its counters, records the call and
// consumes the scripted response. For a call matching nothing it returns the
// diagnostic to report, naming the closest declined expectation and why it
// declined.
func (s *StandIn) resolve(op string, args []any) (*Expect, []any, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		panic(usageErrorf("call to %s after stand-in for %s was verified", op, s.key))
	}

	seq := len(s.calls)
	rec := callRecord{op: op, args: args, seq: seq}

	var overrun *Expect
	for i := len(s.expected) - 1; i >= 0; i-- {
		e := s.expected[i]
		if e.op != op || !e.accepts(args) {
			continue
		}
		if !e.prereqsMet() {
			continue // not eligible yet, try the next candidate
		}
		if e.exhausted() {
			if overrun == nil {
				overrun = e
			}
			continue
		}

		e.actCount++
		if e.actCount == 1 {
			e.firstSeq = seq
		}
		rec.expect = e
		s.calls = append(s.calls, rec)
		return e, e.nextResponse(), ""
	}

	if overrun != nil {
		// Only exhausted expectations would have matched: attribute the call
		// to the most recently declared one, counted above its maximum, and
		// let verification report the overrun.
		overrun.actCount++
		rec.expect = overrun
		s.calls = append(s.calls, rec)
		return overrun, overrun.nextResponse(), ""
	}

	s.calls = append(s.calls, rec)

	detail := s.explainDecline(op, args)
	if s.mode == Strict {
		f := verificationErrorf(FailureUnexpectedCall, op,
			"call %d: %s(%s) matches no declared expectation; %s", seq, op, formatArgs(args), detail)
		s.failures = append(s.failures, f)
		return nil, nil, f.Error()
	}
	return nil, nil, fmt.Sprintf("unexpected call %s(%s), returning default value; %s",
		op, formatArgs(args), detail)
}

// explainDecline names the closest expectation declared for the operation
// and the reason it refused the call.
func (s *StandIn) explainDecline(op string, args []any) string {
	for i := len(s.expected) - 1; i >= 0; i-- {
		e := s.expected[i]
		if e.op != op {
			continue
		}
		return fmt.Sprintf("%s declined: %s", e.describe(), e.decline(args))
	}
	return "no expectation declared for this operation"
}

// strayCalls lists the recorded calls to the expectation's operation that
// were routed elsewhere, so an unmet expectation's failure shows what the
// operation actually received.
func (s *StandIn) strayCalls(e *Expect) string {
	var parts []string
	for _, rec := range s.calls {
		if rec.op != e.op || rec.expect == e {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s(%s) at call %d", rec.op, formatArgs(rec.args), rec.seq))
	}
	if len(parts) == 0 {
		return ""
	}
	return "; calls routed elsewhere: " + strings.Join(parts, ", ")
}

/*
ExpectationsWereMet verifies that every declared expectation was satisfied:
its call count lies within the declared cardinality bounds, and each ordering
prerequisite was satisfied strictly before the expectation's own first match,
compared by call sequence index. Every violated expectation contributes its
own [VerificationError]; they are joined under [ErrExpectationsNotMet]
together with any strict-mode unexpected-call failures, so one test run
surfaces all violations at once.

Verification also clears the registry slot for the stand-in's tag type,
making room for the next test's instance. It runs at most once: the automatic
run at test cleanup is skipped when the test already called
ExpectationsWereMet itself, and repeated calls return nil.
*/
func (s *StandIn) ExpectationsWereMet() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return nil
	}
	s.finalized = true
	deregister(s)

	var err error
	for _, f := range s.failures {
		err = errors.Join(err, f)
	}
	for _, e := range s.expected {
		if e.actCount < e.min {
			err = errors.Join(err, verificationErrorf(FailureNotMet, e.op,
				"%s expected %s, fired %s%s", e.describe(), e.cardinality(), times(e.actCount), s.strayCalls(e)))
		}
		if e.max != Unlimited && e.actCount > e.max {
			err = errors.Join(err, verificationErrorf(FailureOverrun, e.op,
				"%s expected %s, fired %s", e.describe(), e.cardinality(), times(e.actCount)))
		}
		if e.actCount == 0 {
			continue
		}
		for _, p := range e.after {
			if p.actCount == 0 {
				err = errors.Join(err, verificationErrorf(FailureOrder, e.op,
					"%s fired although its prerequisite %s never did", e.describe(), p.describe()))
			} else if p.firstSeq >= e.firstSeq {
				err = errors.Join(err, verificationErrorf(FailureOrder, e.op,
					"%s fired first at call %d, before its prerequisite %s (call %d)",
					e.describe(), e.firstSeq, p.describe(), p.firstSeq))
			}
		}
	}
	if err != nil {
		err = errors.Join(ErrExpectationsNotMet, err)
	}
	return err
}

/*
Context returns the context the stand-in was created with.
*/
func (s *StandIn) Context() context.Context {
	return s.ctx
}

/*
Testing returns the test handle, embedded into the stand-in's context.
*/
func (s *StandIn) Testing() testing.TB {
	return Testing(s.ctx)
}

func times(n int) string {
	if n == 1 {
		return "1 time"
	}
	return fmt.Sprintf("%d times", n)
}

func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	return strings.Join(parts, ", ")
}
