package models

import "github.com/magabrotheeeer/fitprogress/internal/lib/plan"

// PlanKind вид плана.
type PlanKind string

const (
	PlanDiet    PlanKind = "diet"
	PlanWorkout PlanKind = "workout"
)

// Valid сообщает, известен ли вид плана.
func (k PlanKind) Valid() bool {
	return k == PlanDiet || k == PlanWorkout
}

// PlanRequest тело запроса сохранения плана.
type PlanRequest struct {
	Content string `json:"content" validate:"required,max=20000"`
}

// Plan сохранённый план вместе с результатом разбора по дням.
type Plan struct {
	Kind    PlanKind `json:"kind"`
	Content string   `json:"content"`
	plan.Plan
}
