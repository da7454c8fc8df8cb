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

/*
Package standin provides test-scoped stand-ins for dependencies that are reached
through free functions, so the production code under test cannot be handed a mock
object directly. It is meant for unit testing and never for production code.

# The concept

Production code calls a plain function. The function body is a forwarding shim:
it locates the stand-in currently registered for the dependency and forwards the
call, arguments and result, into the stand-in's expectation ledger. The ledger
matches the call against declared expectations, runs the matched expectation's
scripted response, and verifies at the end of the test that every expectation
was satisfied.

At most one stand-in per dependency is alive at any moment. [New] registers the
instance for the dependency's tag type and panics if another one is still
registered; [Instance] looks the current one up and panics if there is none.
Registration is scoped to the test: teardown (verification plus clearing of the
registry slot) is hooked into the test's cleanup, so it runs on every exit path.

# Declaring expectations

[StandIn.On] declares an expectation for one operation. Arguments are either
literal values, compared with deep equality, or [Matcher] values. The returned
[Expect] is a builder for cardinality ([Expect.Times], [Expect.AtLeast],
[Expect.AtMost], [Expect.Between], [Expect.AnyTimes]), ordering
([Expect.After]), and the response script ([Expect.Return] for one-shot
responses, [Expect.Always] for the repeating fallback). When several declared
expectations match the same call, the most recently declared one wins.

# Typical use

	// production code calls loggerWriteLog, declared as a function variable
	// so the test can splice the forwarding shim in
	var loggerWriteLog = func(message string) int { ... }

	type Logger struct{} // tag type for the logger dependency

	func TestGreeter(t *testing.T) {
	    log := standin.New[Logger](standin.TestingContext(t))
	    log.On("WriteLog", standin.Any()).AtLeast(2).Always(0)

	    loggerWriteLog = func(message string) int {
	        return standin.Call1[int](standin.Instance[Logger](), "WriteLog", message)
	    }

	    greet("World") // calls loggerWriteLog internally

	    if err := log.ExpectationsWereMet(); err != nil {
	        t.Error(err)
	    }
	}

The explicit [StandIn.ExpectationsWereMet] call is optional - if the test does
not make it, the same verification runs during test cleanup and reports through
the test handle embedded in the context.

# Unexpected calls

A call with no matching expectation always returns the type-appropriate default
(zero) value, so the production code path keeps running. How loudly this is
reported depends on the stand-in's mode: [Permissive] accepts silently,
[Verbose] (the default) logs a warning, [Strict] marks the test failed and the
verification result carries one itemized unexpected-call failure.

# Error taxonomy

Test-authoring bugs (double registration, lookup of an empty slot, declaring on
a finalized stand-in, invalid cardinality bounds) panic with [UsageError] -
they mean the test itself is unreliable and must not limp on. A response that
cannot be produced (no script on the untyped call path, scripted value not
assignable to the shim's result type) panics with [ConfigurationError].
Violations found by verification (cardinality not met or exceeded, ordering
broken, strict-mode unexpected call) never panic: they accumulate, one
[VerificationError] per violated expectation, and are reported together so a
single run surfaces every violation.

# Concurrency

The ledger serializes matching and recording internally, so production code
that spawns workers calling the same shim keeps sequence indices and counters
consistent. Nothing else is guaranteed: a stand-in belongs to one test, and
sharing it across tests is a usage error.
*/
package standin
