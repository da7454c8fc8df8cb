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
	"reflect"
	"sync"
	"testing"
)

type contextKey int

const testingKey = contextKey(1)

// Process-wide registry: one slot per tag type, each slot holding a non-owning
// reference to the currently live stand-in or nothing. The stand-in owns its
// ledger; the slot is cleared synchronously at teardown, before the instance
// goes away.
var (
	slotMu sync.Mutex
	slots  = map[reflect.Type]*StandIn{}
)

/*
New creates a stand-in for the dependency identified by tag type T and
registers it as the current instance for T. The tag type is any type the test
declares to name the dependency, usually an empty struct:

	type Logger struct{}

	log := standin.New[Logger](standin.TestingContext(t))

New panics with [UsageError] if a stand-in for T is already registered -
two live stand-ins for the same dependency make every forwarded call
ambiguous.

The context must be created with [TestingContext] or derived from it. The
optional mode (at most one of [Permissive], [Verbose], [Strict]) controls
unexpected-call handling; the default is [Verbose].

Teardown is registered on the test handle with Cleanup, so verification and
slot clearing run on every test exit path, including early returns and
failures. A test that wants to inspect the verification result itself calls
[StandIn.ExpectationsWereMet] before the end of the test; the automatic
teardown then has nothing left to do.
*/
func New[T any](ctx context.Context, mode ...Mode) *StandIn {
	tb := Testing(ctx) // panics on a foreign context before any state changes

	if len(mode) > 1 {
		panic(usageErrorf("at most one mode can be given, got %d", len(mode)))
	}

	s := &StandIn{
		ctx: ctx,
		key: reflect.TypeOf((*T)(nil)).Elem(),
	}
	if len(mode) == 1 {
		s.mode = mode[0]
	}

	slotMu.Lock()
	if cur := slots[s.key]; cur != nil {
		slotMu.Unlock()
		panic(usageErrorf("stand-in for %s is already registered", s.key))
	}
	slots[s.key] = s
	slotMu.Unlock()

	tb.Cleanup(func() {
		if err := s.ExpectationsWereMet(); err != nil {
			tb.Error(err)
		}
	})

	return s
}

/*
Instance returns the stand-in currently registered for tag type T. It is meant
to be called from forwarding shims:

	func loggerWriteLog(message string) int {
	    return standin.Call1[int](standin.Instance[Logger](), "WriteLog", message)
	}

Instance panics with [UsageError] if no stand-in for T is registered, because
a forwarded call with no stand-in behind it means the test forgot to create
one, and any value returned instead would be misleading.
*/
func Instance[T any]() *StandIn {
	key := reflect.TypeOf((*T)(nil)).Elem()

	slotMu.Lock()
	defer slotMu.Unlock()

	s := slots[key]
	if s == nil {
		panic(usageErrorf("no stand-in registered for %s", key))
	}
	return s
}

// deregister clears the slot only when it still holds this very instance,
// so a stale teardown cannot evict a successor stand-in.
func deregister(s *StandIn) {
	slotMu.Lock()
	defer slotMu.Unlock()

	if slots[s.key] == s {
		delete(slots, s.key)
	}
}

/*
TestingContext returns the context with embedded test handle. Every stand-in
is created from such a context; diagnostics and verification results are
reported through the embedded handle.
*/
func TestingContext(tb testing.TB) context.Context {
	return context.WithValue(context.Background(), testingKey, tb)
}

/*
Testing returns the test handle, embedded into the context with [TestingContext].
*/
func Testing(ctx context.Context) testing.TB {
	tb, ok := ctx.Value(testingKey).(testing.TB)
	if !ok {
		panic(usageErrorf("context wasn't created with TestingContext()"))
	}
	return tb
}
