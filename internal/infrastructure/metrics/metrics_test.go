package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func TestHandlerExposesRequestsAndGauges(t *testing.T) {
	m := New("taskflow")
	m.ObserveRequest("GET", "/tasks/{id}", 404, 15*time.Millisecond)
	m.Gauge("taskflow", "buffer_items", "Buffered writes.", func() float64 { return 3 })

	var ctx fasthttp.RequestCtx
	ctx.Request.SetRequestURI("/metrics")
	m.Handler()(&ctx)

	body := string(ctx.Response.Body())
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, body, `taskflow_http_requests_total{method="GET",route="/tasks/{id}",status="404"} 1`)
	assert.Contains(t, body, `taskflow_http_request_duration_seconds_count{method="GET",route="/tasks/{id}"} 1`)
	assert.Contains(t, body, "taskflow_buffer_items 3")
}
