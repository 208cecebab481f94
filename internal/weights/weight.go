package weights

import "time"

// Record is a single body weight measurement. Records are append-only;
// corrections are made by adding a newer record for the same day.
type Record struct {
	ID         int       `json:"id"`
	CustomerID string    `json:"customerId"`
	WeightKg   float64   `json:"weightKg"`
	RecordedAt time.Time `json:"recordedAt"`
	Note       string    `json:"note,omitempty"`
}
