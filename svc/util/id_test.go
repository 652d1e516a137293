package util

import (
	"testing"

	"github.com/pkg/errors"
)

func TestGenIDUnique(t *testing.T) {
	seen := map[string]bool{}
	exists := func(id string) (bool, error) { return seen[id], nil }
	for i := 0; i < 100; i++ {
		id, err := GenID(exists)
		if err != nil {
			t.Fatalf("GenID: %v", err)
		}
		if len(id) != 11 {
			t.Fatalf("id %q length = %d, want 11", id, len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestGenIDRetriesThenFails(t *testing.T) {
	calls := 0
	exists := func(string) (bool, error) {
		calls++
		return true, nil
	}
	_, err := GenID(exists)
	if err == nil {
		t.Fatal("expected collision error")
	}
	if calls != 5 {
		t.Errorf("exists called %d times, want 5", calls)
	}
}

func TestGenIDPropagatesLookupError(t *testing.T) {
	boom := errors.New("lookup failed")
	_, err := GenID(func(string) (bool, error) { return false, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want lookup error", err)
	}
}
