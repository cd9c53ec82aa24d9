package access

import (
	"testing"
	"time"
)

func TestExpiryOf(t *testing.T) {
	completed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	exp, ok := ExpiryOf(true, &completed)
	if !ok {
		t.Fatal("expected an expiry for a completed order")
	}
	if want := completed.Add(6 * time.Hour); !exp.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, exp)
	}

	if _, ok := ExpiryOf(false, &completed); ok {
		t.Fatal("a non-completed order must not have an expiry")
	}

	if _, ok := ExpiryOf(true, nil); ok {
		t.Fatal("a missing completion timestamp must not produce an expiry")
	}
}

func TestEffectiveLatestWins(t *testing.T) {
	older := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	newer := older.Add(3 * time.Hour)

	exp, ok := Effective([]time.Time{older, newer})
	if !ok {
		t.Fatal("expected an effective expiry")
	}
	if want := newer.Add(Window); !exp.Equal(want) {
		t.Fatalf("expected the newer completion to win: want %v, got %v", want, exp)
	}

	// Order of the slice must not matter.
	exp2, _ := Effective([]time.Time{newer, older})
	if !exp2.Equal(exp) {
		t.Fatalf("effective expiry depends on slice order: %v vs %v", exp, exp2)
	}

	if _, ok := Effective(nil); ok {
		t.Fatal("no completions must yield no expiry")
	}
}

func TestAccessibleBoundary(t *testing.T) {
	completed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	expiry := completed.Add(Window)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"one second before expiry", expiry.Add(-time.Second), true},
		{"exactly at expiry", expiry, false},
		{"one second after expiry", expiry.Add(time.Second), false},
		{"right after completion", completed.Add(time.Minute), true},
	}

	for _, c := range cases {
		if got := Accessible(c.now, expiry); got != c.want {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
}
