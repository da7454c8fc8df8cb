package standin

import (
	"context"
	"testing"
)

func expectUsageError(t *testing.T) {
	t.Helper()
	r := recover()
	if r == nil {
		t.Error("expected UsageError panic, got none")
		return
	}
	if _, ok := r.(UsageError); !ok {
		t.Errorf("expected UsageError, got %v", r)
	}
}

func expectConfigError(t *testing.T) {
	t.Helper()
	r := recover()
	if r == nil {
		t.Error("expected ConfigurationError panic, got none")
		return
	}
	if _, ok := r.(ConfigurationError); !ok {
		t.Errorf("expected ConfigurationError, got %v", r)
	}
}

func TestRegisterAndLookup(t *testing.T) {
	type dep struct{}
	s := New[dep](TestingContext(t))

	if Instance[dep]() != s {
		t.Error("lookup returned a different instance")
	}

	testError(t, nil, s.ExpectationsWereMet())
}

func TestLookupUnregistered(t *testing.T) {
	type dep struct{}
	defer expectUsageError(t)
	Instance[dep]()
}

func TestLookupAfterTeardown(t *testing.T) {
	type dep struct{}
	s := New[dep](TestingContext(t))
	testError(t, nil, s.ExpectationsWereMet())

	defer expectUsageError(t)
	Instance[dep]()
}

func TestDoubleRegistration(t *testing.T) {
	type dep struct{}
	s := New[dep](TestingContext(t))

	func() {
		defer expectUsageError(t)
		New[dep](TestingContext(t))
	}()

	// the first instance survives the failed registration
	if Instance[dep]() != s {
		t.Error("failed registration must not evict the live instance")
	}
	testError(t, nil, s.ExpectationsWereMet())
}

func TestReRegistrationAfterTeardown(t *testing.T) {
	type dep struct{}
	first := New[dep](TestingContext(t))
	testError(t, nil, first.ExpectationsWereMet())

	second := New[dep](TestingContext(t))
	if Instance[dep]() != second {
		t.Error("lookup returned a stale instance")
	}
	testError(t, nil, second.ExpectationsWereMet())
}

func TestStaleTeardownIsNoop(t *testing.T) {
	type dep struct{}
	first := New[dep](TestingContext(t))
	testError(t, nil, first.ExpectationsWereMet())

	second := New[dep](TestingContext(t))
	deregister(first) // double-teardown of the dead instance

	if Instance[dep]() != second {
		t.Error("stale teardown must not clear the successor's slot")
	}
	testError(t, nil, second.ExpectationsWereMet())
}

func TestSeparateSlotsPerType(t *testing.T) {
	type depA struct{}
	type depB struct{}
	a := New[depA](TestingContext(t))
	b := New[depB](TestingContext(t))

	if Instance[depA]() != a || Instance[depB]() != b {
		t.Error("slots of different tag types interfere")
	}
	testError(t, nil, a.ExpectationsWereMet())
	testError(t, nil, b.ExpectationsWereMet())
}

func TestForeignContext(t *testing.T) {
	type dep struct{}
	defer expectUsageError(t)
	New[dep](context.Background())
}

func TestConflictingModes(t *testing.T) {
	type dep struct{}
	defer expectUsageError(t)
	New[dep](TestingContext(t), Strict, Permissive)
}

func TestRepeatedVerificationIsNil(t *testing.T) {
	type dep struct{}
	s := New[dep](TestingContext(t), Permissive)
	s.On("Ping").Times(1)

	err := s.ExpectationsWereMet()
	testError(t, ErrExpectationsNotMet, err)

	// verification runs once, repeated calls have nothing left to report
	testError(t, nil, s.ExpectationsWereMet())
}
