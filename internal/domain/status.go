package domain

import (
	"fmt"
	"strings"
)

// POStatus is the lifecycle state of a purchase order.
type POStatus string

const (
	POStatusPending   POStatus = "pending"
	POStatusConfirmed POStatus = "confirmed"
	POStatusShipped   POStatus = "shipped"
	POStatusDelivered POStatus = "delivered"
	POStatusCancelled POStatus = "cancelled"
)

// position along the forward path; cancelled sits outside it
var poStatusRank = map[POStatus]int{
	POStatusPending:   0,
	POStatusConfirmed: 1,
	POStatusShipped:   2,
	POStatusDelivered: 3,
}

// ParsePOStatus returns the status for a given label (case-insensitive).
func ParsePOStatus(label string) (POStatus, bool) {
	status := POStatus(strings.ToLower(strings.TrimSpace(label)))
	if status == POStatusCancelled {
		return status, true
	}
	_, ok := poStatusRank[status]
	return status, ok
}

// Terminal reports whether no further transition is possible.
func (s POStatus) Terminal() bool {
	return s == POStatusDelivered || s == POStatusCancelled
}

// CheckTransition validates moving from s to next. Forward moves may skip
// steps, cancellation is allowed from any non-delivered state and repeating
// the current status is a no-op.
func (s POStatus) CheckTransition(next POStatus) error {
	if _, ok := ParsePOStatus(string(next)); !ok {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, next)
	}
	if s == next {
		return nil
	}
	if s.Terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, s)
	}
	if next == POStatusCancelled {
		return nil
	}
	if poStatusRank[next] < poStatusRank[s] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return nil
}
