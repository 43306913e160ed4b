package admin

type SweepRequest struct {
	ThresholdHours int `json:"threshold_hours" binding:"omitempty,min=1"`
}
