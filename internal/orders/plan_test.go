package orders

import (
	"testing"
	"time"

	"backend/internal/models"
)

func TestPlanStatusStandardPackageTenDaysIn(t *testing.T) {
	now := time.Now()
	start := now.Add(-10 * 24 * time.Hour)
	o := models.Order{
		Status:         StatusApproved,
		PackageDetails: "Standard Monthly",
		StartDate:      &start,
	}

	plan := PlanStatus(o, now)
	if !plan.Active {
		t.Fatal("expected plan to be active 10 days in")
	}
	if plan.DaysLeft != 20 {
		t.Fatalf("expected 20 days left, got %d", plan.DaysLeft)
	}
	if plan.Duration != 30 {
		t.Fatalf("expected 30 day duration, got %d", plan.Duration)
	}
}

func TestPlanStatusExpiredAfterFortyDays(t *testing.T) {
	now := time.Now()
	start := now.Add(-40 * 24 * time.Hour)
	o := models.Order{
		Status:         StatusApproved,
		PackageDetails: "Standard Monthly",
		StartDate:      &start,
	}

	plan := PlanStatus(o, now)
	if plan.Active {
		t.Fatal("expected plan to be inactive after 40 days")
	}
	if plan.DaysLeft != 0 {
		t.Fatalf("expected 0 days left, got %d", plan.DaysLeft)
	}
}

func TestPlanStatusTrialDuration(t *testing.T) {
	now := time.Now()
	start := now.Add(-3 * 24 * time.Hour)
	o := models.Order{
		Status:         StatusApproved,
		PackageDetails: "7-day Trial",
		StartDate:      &start,
	}

	plan := PlanStatus(o, now)
	if plan.Duration != 7 {
		t.Fatalf("expected trial duration 7, got %d", plan.Duration)
	}
	if !plan.Active || plan.DaysLeft != 4 {
		t.Fatalf("expected active with 4 days left, got active=%v daysLeft=%d", plan.Active, plan.DaysLeft)
	}
}

func TestPlanStatusNoStartDate(t *testing.T) {
	plan := PlanStatus(models.Order{Status: StatusApproved}, time.Now())
	if plan.Active || plan.DaysLeft != 0 {
		t.Fatalf("expected inactive zero plan, got %+v", plan)
	}
}
