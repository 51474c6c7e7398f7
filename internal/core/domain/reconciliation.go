package domain

import "time"

// Reconciliation marks state left inconsistent by a failed compensation.
type Reconciliation struct {
	ID           string     `json:"id"`
	Version      int64      `json:"version"`
	Flow         string     `json:"flow"`
	Step         string     `json:"step"`
	UserID       string     `json:"userId"`
	BikeID       string     `json:"bikeId,omitempty"`
	BatteryID    string     `json:"batteryId,omitempty"`
	OldBatteryID string     `json:"oldBatteryId,omitempty"`
	Cause        string     `json:"cause"`
	Resolved     bool       `json:"resolved"`
	CreatedAt    time.Time  `json:"createdAt"`
	ResolvedAt   *time.Time `json:"resolvedAt"`
}

func (r *Reconciliation) SetMeta(id string, version int64) {
	r.ID = id
	r.Version = version
}

type ReconcileReport struct {
	BikesReleased           []string  `json:"bikesReleased"`
	BatteriesReleased       []string  `json:"batteriesReleased"`
	UsersRepaired           []string  `json:"usersRepaired"`
	Skipped                 []string  `json:"skipped"`
	ReconciliationsResolved []string  `json:"reconciliationsResolved"`
	StartedAt               time.Time `json:"startedAt"`
	FinishedAt              time.Time `json:"finishedAt"`
}

func (r *ReconcileReport) Repairs() int {
	return len(r.BikesReleased) + len(r.BatteriesReleased) + len(r.UsersRepaired)
}
