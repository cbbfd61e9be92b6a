package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRideTransition(t *testing.T) {
	before := testutil.ToFloat64(rideTransitionsTotal.WithLabelValues("ongoing"))
	RecordRideTransition("ongoing")
	RecordRideTransition("ongoing")
	if got := testutil.ToFloat64(rideTransitionsTotal.WithLabelValues("ongoing")) - before; got != 2 {
		t.Fatalf("ongoing transitions delta = %v, want 2", got)
	}
}

func TestRecordOTPVerification(t *testing.T) {
	before := testutil.ToFloat64(otpVerificationsTotal.WithLabelValues(OTPExpired))
	RecordOTPVerification(OTPExpired)
	if got := testutil.ToFloat64(otpVerificationsTotal.WithLabelValues(OTPExpired)) - before; got != 1 {
		t.Fatalf("expired delta = %v, want 1", got)
	}
}

func TestRecordRouteQuote(t *testing.T) {
	before := testutil.ToFloat64(routeQuotesTotal.WithLabelValues("error"))
	RecordRouteQuote(false)
	if got := testutil.ToFloat64(routeQuotesTotal.WithLabelValues("error")) - before; got != 1 {
		t.Fatalf("error delta = %v, want 1", got)
	}
}
