package orders

import (
	"testing"
	"time"

	"backend/internal/models"
)

func pendingOrder() models.Order {
	return models.Order{
		UserName:       "Rahim",
		ServiceName:    "Facebook Automation",
		PackageDetails: "Standard Package - Monthly",
		Amount:         "৳1,500",
		Status:         StatusPending,
		Date:           time.Now(),
		Rev:            1,
	}
}

func approvedOrder() models.Order {
	o := pendingOrder()
	o.Status = StatusApproved
	o.AdminContactLink = "https://m.me/automateiq"
	return o
}

func TestApproveRequiresContactLink(t *testing.T) {
	if _, err := Approve(pendingOrder(), "  ", time.Now()); err == nil {
		t.Fatal("expected guard error when approving without a contact link")
	}
}

func TestApproveSetsContactLink(t *testing.T) {
	upd, err := Approve(pendingOrder(), "https://m.me/automateiq", time.Now())
	if err != nil {
		t.Fatalf("approve returned error: %v", err)
	}
	if upd.Status != StatusApproved {
		t.Fatalf("expected status approved, got %q", upd.Status)
	}
	if upd.Set["adminContactLink"] != "https://m.me/automateiq" {
		t.Fatalf("expected contact link to be set, got %v", upd.Set)
	}
	if _, ok := upd.Set["startDate"]; ok {
		t.Fatal("non top-up approval must not set startDate")
	}
}

func TestApproveTopUpFastPath(t *testing.T) {
	o := pendingOrder()
	o.ServiceName = "API ক্রেডিট রিচার্জ"
	o.Amount = "৳500"

	now := time.Now()
	upd, err := Approve(o, "", now)
	if err != nil {
		t.Fatalf("top-up approve returned error: %v", err)
	}
	if upd.Status != StatusApproved {
		t.Fatalf("expected status approved, got %q", upd.Status)
	}
	if upd.Set["startDate"] != now {
		t.Fatal("top-up approval must set startDate immediately")
	}
	if upd.Set["adminContactLink"] != "N/A" {
		t.Fatalf("expected N/A contact link for top-up, got %v", upd.Set["adminContactLink"])
	}
}

func TestApproveOnlyFromPending(t *testing.T) {
	for _, status := range []string{StatusApproved, StatusRejected, StatusCompleted} {
		o := pendingOrder()
		o.Status = status
		if _, err := Approve(o, "link", time.Now()); err == nil {
			t.Fatalf("expected approve to fail from status %q", status)
		}
	}
}

func TestRejectOnlyFromPending(t *testing.T) {
	upd, err := Reject(pendingOrder())
	if err != nil {
		t.Fatalf("reject returned error: %v", err)
	}
	if upd.Status != StatusRejected {
		t.Fatalf("expected rejected, got %q", upd.Status)
	}

	if _, err := Reject(approvedOrder()); err == nil {
		t.Fatal("expected reject to fail on approved order")
	}
}

func TestSubmitDetailsRequiresContactFields(t *testing.T) {
	_, err := SubmitDetails(approvedOrder(), Details{DocLink: "https://doc", PageLink: "https://page", Email: "a@b.c"})
	if err == nil {
		t.Fatal("expected guard error when whatsapp is missing")
	}
}

func TestSubmitDetailsSetsFieldsAndClearsAdminMessage(t *testing.T) {
	o := approvedOrder()
	o.AdminMessage = "wrong link"

	upd, err := SubmitDetails(o, Details{
		DocLink:      "https://docs.google.com/d/1",
		PageLink:     "https://facebook.com/mypage",
		Email:        "client@example.com",
		Whatsapp:     "01712345678",
		Requirements: "post daily",
	})
	if err != nil {
		t.Fatalf("submit details returned error: %v", err)
	}
	if upd.Set["isDetailsSubmitted"] != true {
		t.Fatal("expected isDetailsSubmitted=true")
	}
	if upd.Set["clientPageLink"] != "https://facebook.com/mypage" {
		t.Fatalf("expected page link preserved, got %v", upd.Set["clientPageLink"])
	}
	cleared := false
	for _, f := range upd.Unset {
		if f == "adminMessage" {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("resubmission must clear adminMessage")
	}
}

func TestActivateRequiresSubmittedDetails(t *testing.T) {
	if _, err := Activate(approvedOrder(), time.Now().Add(72*time.Hour), time.Now()); err == nil {
		t.Fatal("expected activate to fail before details are submitted")
	}
}

func TestActivateSetsStartDateAndDeadline(t *testing.T) {
	o := approvedOrder()
	o.IsDetailsSubmitted = true

	now := time.Now()
	deadline := now.Add(7 * 24 * time.Hour)
	upd, err := Activate(o, deadline, now)
	if err != nil {
		t.Fatalf("activate returned error: %v", err)
	}
	if upd.Set["startDate"] != now || upd.Set["completionDate"] != deadline {
		t.Fatalf("expected startDate/completionDate set, got %v", upd.Set)
	}
}

func TestRequestInfoLoop(t *testing.T) {
	o := approvedOrder()
	o.IsDetailsSubmitted = true

	upd, err := RequestInfo(o, "wrong link")
	if err != nil {
		t.Fatalf("request info returned error: %v", err)
	}
	if upd.Set["isDetailsSubmitted"] != false {
		t.Fatal("request info must reset isDetailsSubmitted")
	}
	if upd.Set["adminMessage"] != "wrong link" {
		t.Fatalf("expected adminMessage set, got %v", upd.Set["adminMessage"])
	}

	// Customer resubmits over the info request.
	o.AdminMessage = "wrong link"
	o.IsDetailsSubmitted = false
	resub, err := SubmitDetails(o, Details{
		DocLink:  "https://docs.google.com/d/2",
		PageLink: "https://facebook.com/fixed",
		Email:    "client@example.com",
		Whatsapp: "01712345678",
	})
	if err != nil {
		t.Fatalf("resubmission returned error: %v", err)
	}
	if resub.Set["isDetailsSubmitted"] != true {
		t.Fatal("resubmission must set isDetailsSubmitted back to true")
	}
}

func TestRequestInfoRequiresMessage(t *testing.T) {
	o := approvedOrder()
	o.IsDetailsSubmitted = true
	if _, err := RequestInfo(o, "   "); err == nil {
		t.Fatal("expected guard error for empty info request message")
	}
}

func TestCompleteOnlyFromActivated(t *testing.T) {
	if _, err := Complete(pendingOrder()); err == nil {
		t.Fatal("pending order must not complete directly")
	}

	o := approvedOrder()
	start := time.Now().Add(-24 * time.Hour)
	o.StartDate = &start
	upd, err := Complete(o)
	if err != nil {
		t.Fatalf("complete returned error: %v", err)
	}
	if upd.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", upd.Status)
	}
}

func TestNewOrderRequiresPaymentProof(t *testing.T) {
	_, err := NewOrder("Rahim", "017", "Facebook Automation", "Standard", "৳1,500", "bkash", "", "", time.Now())
	if err == nil {
		t.Fatal("expected guard error without sender phone and trx id")
	}
}

func TestNewOrderStartsPending(t *testing.T) {
	o, err := NewOrder("Rahim", "017", "Facebook Automation", "Standard", "৳1,500", "bkash", "01712345678", "TRX123", time.Now())
	if err != nil {
		t.Fatalf("new order returned error: %v", err)
	}
	if o.Status != StatusPending {
		t.Fatalf("expected pending, got %q", o.Status)
	}
	if o.Rev != 1 {
		t.Fatalf("expected rev=1 on new orders, got %d", o.Rev)
	}
}

func TestIsGuardError(t *testing.T) {
	_, err := Reject(approvedOrder())
	if !IsGuardError(err) {
		t.Fatalf("expected guard error, got %v", err)
	}
}
