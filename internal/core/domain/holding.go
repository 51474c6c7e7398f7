package domain

import "time"

// Holding is the assignment state of a bike or battery.
type Holding struct {
	Assigned   bool
	Owner      *string
	AssignedAt *time.Time
	ReturnedAt *time.Time
}

// Consistent reports whether the status flag agrees with the owner pointer.
func (h Holding) Consistent() bool {
	return h.Assigned == (h.Owner != nil)
}

// OwnedBy reports whether the resource is held by userID.
func (h Holding) OwnedBy(userID string) bool {
	return h.Owner != nil && *h.Owner == userID
}

// Claim returns the holding after handing the resource to userID at t.
func (h Holding) Claim(userID string, t time.Time) Holding {
	owner := userID
	at := t
	return Holding{Assigned: true, Owner: &owner, AssignedAt: &at, ReturnedAt: h.ReturnedAt}
}

// Release returns the holding after the resource came back at t.
func (h Holding) Release(t time.Time) Holding {
	at := t
	return Holding{Assigned: false, Owner: nil, AssignedAt: h.AssignedAt, ReturnedAt: &at}
}
