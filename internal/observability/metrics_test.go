package observability

import (
	"testing"
	"time"

	"github.com/simplenet-proto/simplenet/internal/testutil/testlog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)

	RegisterMetrics()
	RegisterMetrics()

	RecordRequest(20, 12*time.Millisecond)
	RecordRequest(41, 3*time.Millisecond)
	ConnOpened()
	ConnClosed()
	RecordConnRefused()
	RecordRateLimitRejection()
	RecordPageServed("giorgio.net")
	RecordHTTPRequest("GET", "/health", 200, 2*time.Millisecond)
}
