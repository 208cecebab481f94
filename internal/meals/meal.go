package meals

import "time"

type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

func (mt MealType) IsValid() bool {
	switch mt {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack:
		return true
	}
	return false
}

// FoodItem is one food within a meal, with its nutrient content as eaten.
type FoodItem struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// Record is one logged meal. Totals are computed from the foods once,
// at insert time, and trusted downstream.
type Record struct {
	ID            int        `json:"id"`
	CustomerID    string     `json:"customerId"`
	MealType      MealType   `json:"mealType"`
	Foods         []FoodItem `json:"foods"`
	TotalCalories float64    `json:"totalCalories"`
	TotalProtein  float64    `json:"totalProtein"`
	TotalFat      float64    `json:"totalFat"`
	TotalCarbs    float64    `json:"totalCarbs"`
	Notes         string     `json:"notes,omitempty"`
	EatenAt       time.Time  `json:"eatenAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ComputeTotals recalculates the per-record totals from the foods.
func (rec *Record) ComputeTotals() {
	rec.TotalCalories, rec.TotalProtein, rec.TotalFat, rec.TotalCarbs = 0, 0, 0, 0
	for _, food := range rec.Foods {
		rec.TotalCalories += food.Calories
		rec.TotalProtein += food.Protein
		rec.TotalFat += food.Fat
		rec.TotalCarbs += food.Carbs
	}
}

// Goal is a customer's daily nutrition target. One per customer.
type Goal struct {
	CustomerID     string  `json:"customerId"`
	TargetCalories float64 `json:"targetCalories"`
	TargetProtein  float64 `json:"targetProtein"`
	TargetFat      float64 `json:"targetFat"`
	TargetCarbs    float64 `json:"targetCarbs"`
}

// DailySummary is everything a customer ate on one calendar date.
type DailySummary struct {
	Date          string   `json:"date"`
	TotalCalories float64  `json:"totalCalories"`
	TotalProtein  float64  `json:"totalProtein"`
	TotalFat      float64  `json:"totalFat"`
	TotalCarbs    float64  `json:"totalCarbs"`
	Records       []Record `json:"records"`
}
