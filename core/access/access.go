// Package access derives the time-boxed content-unlock window. It is the
// single source of truth for expiry: every grant decision recomputes the
// window here, server-side, from the stored completion timestamp. Client
// countdowns are presentation only.
package access

import "time"

// Window is how long purchased files stay downloadable after an order
// completes.
const Window = 6 * time.Hour

// ExpiryOf returns the access expiry of a single order. It is defined
// only for completed orders carrying a completion timestamp.
func ExpiryOf(completed bool, completedAt *time.Time) (time.Time, bool) {
	if !completed || completedAt == nil {
		return time.Time{}, false
	}
	return completedAt.Add(Window), true
}

// Effective returns the expiry over every completion of the same item.
// The latest completion wins: buying an item again never shortens access
// granted by a newer order because an older one has lapsed.
func Effective(completions []time.Time) (time.Time, bool) {
	if len(completions) == 0 {
		return time.Time{}, false
	}

	latest := completions[0]
	for _, c := range completions[1:] {
		if c.After(latest) {
			latest = c
		}
	}

	return latest.Add(Window), true
}

// Accessible reports whether the window is still open. The boundary
// instant itself is closed: at exactly completedAt+Window access is gone.
func Accessible(now time.Time, expiry time.Time) bool {
	return now.Before(expiry)
}
