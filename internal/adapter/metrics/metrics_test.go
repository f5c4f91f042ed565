package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"gitlab.com/renderfarm.net/internal/tcp/defs"
)

func TestRecordMessages(t *testing.T) {
	MessagesReceived.Reset()
	DispatchFailures.Reset()

	RecordMessageReceived(defs.MsgRenderUpdate)
	RecordMessageReceived(defs.MsgRenderUpdate)
	RecordDispatchFailure(defs.MsgTask, "queue_full")

	assert.Equal(t, 2.0, testutil.ToFloat64(MessagesReceived.WithLabelValues("RenderUpdate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(DispatchFailures.WithLabelValues("Task", "queue_full")))
}

func TestRecordRenderTransitions(t *testing.T) {
	RendersOnline.Set(0)
	RenderTransitions.Reset()

	SetRendersOnline(4)
	RecordRenderTransitions("stale", 2)
	RecordRenderTransitions("stale", 0)
	RecordRenderTransitions("swept", 1)

	assert.Equal(t, 4.0, testutil.ToFloat64(RendersOnline))
	assert.Equal(t, 2.0, testutil.ToFloat64(RenderTransitions.WithLabelValues("stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RenderTransitions.WithLabelValues("swept")))
}

func TestRecordEventsFlushed(t *testing.T) {
	MonitorEventsFlushed.Reset()
	RecordEventsFlushed(defs.MsgMonitorRendersChanged, 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(MonitorEventsFlushed.WithLabelValues("MonitorRendersChanged")))
}

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequests.Reset()
	RecordHTTPRequest("/api/renders", "GET", 200)
	RecordHTTPRequest("/api/renders", "GET", 200)
	assert.Equal(t, 2.0, testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/renders", "GET", "200")))
}
