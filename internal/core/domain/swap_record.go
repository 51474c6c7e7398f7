package domain

import "time"

// SwapRecord is the immutable audit entry of one battery swap.
type SwapRecord struct {
	ID             string    `json:"id"`
	Version        int64     `json:"version"`
	UserID         string    `json:"userId"`
	UserName       string    `json:"userName"`
	OldBatteryID   string    `json:"oldBatteryId"`
	OldBatRegNum   string    `json:"oldBatRegNum"`
	NewBatteryID   string    `json:"newBatteryId"`
	NewBatRegNum   string    `json:"newBatRegNum"`
	TotalSwapCount int       `json:"totalSwapCount"`
	SwapDate       time.Time `json:"swapDate"`
	SwapDay        string    `json:"swapDay"`
}

func (r *SwapRecord) SetMeta(id string, version int64) {
	r.ID = id
	r.Version = version
}

type DailyCounter struct {
	ID             string `json:"id"`
	Version        int64  `json:"version"`
	TodayDate      string `json:"todayDate"`
	TodaySwapCount int    `json:"todaySwapCount"`
}

func (c *DailyCounter) SetMeta(id string, version int64) {
	c.ID = id
	c.Version = version
}

// DayKey formats t as the counter key in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.DateOnly)
}
