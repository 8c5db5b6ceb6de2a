package assistant

import (
	"context"
	"testing"
)

func TestMissingKeyServesConfigFallback(t *testing.T) {
	svc := NewService(context.Background(), "")
	if svc.client != nil {
		t.Fatal("expected no client without an API key")
	}
	if got := svc.GenerateReply(context.Background(), "হ্যালো"); got != replyMissingConfig {
		t.Fatalf("expected config fallback, got %q", got)
	}
}

func TestFallbackStringsAreBengali(t *testing.T) {
	// The widget surfaces these verbatim; they must never be empty or English.
	for _, reply := range []string{replyMissingConfig, replyGenericError} {
		if reply == "" {
			t.Fatal("fallback reply must not be empty")
		}
		hasBengali := false
		for _, r := range reply {
			if r >= 0x0980 && r <= 0x09FF {
				hasBengali = true
				break
			}
		}
		if !hasBengali {
			t.Fatalf("fallback %q is not Bengali", reply)
		}
	}
}
