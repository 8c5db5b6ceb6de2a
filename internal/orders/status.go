package orders

import "strings"

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
)

// topUpMarkers identify balance-recharge orders, which skip the client-detail
// phase entirely.
var topUpMarkers = []string{
	"api ক্রেডিট রিচার্জ",
	"top-up",
	"top up",
}

// IsTopUp reports whether a service name denotes a balance recharge.
func IsTopUp(serviceName string) bool {
	name := strings.ToLower(strings.TrimSpace(serviceName))
	for _, marker := range topUpMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// IsTrial reports whether a package description denotes a trial plan.
func IsTrial(packageDetails string) bool {
	details := strings.ToLower(packageDetails)
	return strings.Contains(details, "trial") || strings.Contains(details, "ট্রায়াল")
}
