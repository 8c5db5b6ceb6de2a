package orders

import (
	"math"
	"time"

	"backend/internal/models"
)

const (
	trialPlanDays    = 7
	standardPlanDays = 30
)

// Plan is the derived subscription status of an activated order. It must be
// recomputed on every query; the renewal boundary makes cached values wrong.
type Plan struct {
	Active   bool `json:"active"`
	DaysLeft int  `json:"daysLeft"`
	Duration int  `json:"duration"`
}

// PlanStatus derives the plan state at the given instant. Orders without a
// start date have no active plan.
func PlanStatus(o models.Order, now time.Time) Plan {
	if o.StartDate == nil {
		return Plan{}
	}

	duration := standardPlanDays
	if IsTrial(o.PackageDetails) {
		duration = trialPlanDays
	}

	elapsed := int(math.Ceil(now.Sub(*o.StartDate).Hours() / 24))
	if elapsed < 0 {
		elapsed = 0
	}

	daysLeft := duration - elapsed
	if daysLeft < 0 {
		daysLeft = 0
	}

	return Plan{
		Active:   elapsed <= duration,
		DaysLeft: daysLeft,
		Duration: duration,
	}
}
