package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("abc").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

func TestParseRequestID(t *testing.T) {
	fresh := NewRequestID()
	parsed, err := ParseRequestID("  " + fresh.String() + " ")
	if err != nil {
		t.Fatalf("Expected valid request ID, got error: %v", err)
	}
	if parsed != fresh {
		t.Errorf("Expected %s, got %s", fresh, parsed)
	}

	for _, bad := range []string{"", "   ", "not-a-uuid"} {
		if _, err := ParseRequestID(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}
