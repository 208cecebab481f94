package customers

import "time"

// Customer is a fitness client tracked by the coaching staff.
type Customer struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	HeightCm       float64   `json:"heightCm"`
	WeightKg       float64   `json:"weightKg"`
	FavoriteFood   string    `json:"favoriteFood,omitempty"`
	CompletionDate string    `json:"completionDate"`
	CreatedAt      time.Time `json:"createdAt"`
}
