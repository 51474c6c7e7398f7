package domain

import "time"

// FleetEvent is published after a flow or sweep completes.
type FleetEvent struct {
	Flow           string    `json:"flow"`
	UserID         string    `json:"userId,omitempty"`
	BikeID         string    `json:"bikeId,omitempty"`
	BatteryID      string    `json:"batteryId,omitempty"`
	OldBatteryID   string    `json:"oldBatteryId,omitempty"`
	TotalSwapCount int       `json:"totalSwapCount,omitempty"`
	TodaySwapCount int       `json:"todaySwapCount,omitempty"`
	Repairs        int       `json:"repairs,omitempty"`
	At             time.Time `json:"at"`
}
