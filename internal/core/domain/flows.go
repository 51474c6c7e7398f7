package domain

type AssignRequest struct {
	UserID    string `json:"userId" validate:"required"`
	BikeID    string `json:"bikeId" validate:"required"`
	BatteryID string `json:"batteryId" validate:"required"`
}

type AssignResult struct {
	User    *User    `json:"user"`
	Bike    *Bike    `json:"bike"`
	Battery *Battery `json:"battery"`
}

// SwapRequest carries the console's view of the rider. TotalSwapCount and IsBlocked
// are advisory; the stored user decides.
type SwapRequest struct {
	UserID         string `json:"userId" validate:"required"`
	UserName       string `json:"userName"`
	OldBatteryID   string `json:"oldBatteryId" validate:"required"`
	NewBatteryID   string `json:"newBatteryId" validate:"required"`
	OldBatRegNum   string `json:"oldBatRegNum"`
	NewBatRegNum   string `json:"newBatRegNum"`
	TotalSwapCount int    `json:"totalSwapCount" validate:"min=0"`
	IsBlocked      bool   `json:"isBlocked"`
}

type SwapResult struct {
	Success        bool        `json:"success"`
	User           *User       `json:"user"`
	SwapRecord     *SwapRecord `json:"swapRecord"`
	TodaySwapCount int         `json:"todaySwapCount"`
	CounterError   string      `json:"counterError,omitempty"`
}

type ReturnRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type ReturnResult struct {
	User    *User    `json:"user"`
	Bike    *Bike    `json:"bike,omitempty"`
	Battery *Battery `json:"battery,omitempty"`
	Dues    *Dues    `json:"dues,omitempty"`
}

func (r *AssignRequest) Validate() error { return validateStruct(r) }
func (r *SwapRequest) Validate() error   { return validateStruct(r) }
func (r *ReturnRequest) Validate() error { return validateStruct(r) }
