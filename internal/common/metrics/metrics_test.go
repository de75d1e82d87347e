package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{0, "error"},
		{200, "2xx"},
		{204, "2xx"},
		{302, "3xx"},
		{404, "4xx"},
		{429, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusClass(tt.status), "status %d", tt.status)
	}
}

func TestRecordUpstream(t *testing.T) {
	before := testutil.ToFloat64(UpstreamRequests.WithLabelValues(UpstreamTekmetric, "4xx"))
	RecordUpstream(UpstreamTekmetric, 404)
	RecordUpstream(UpstreamTekmetric, 401)
	after := testutil.ToFloat64(UpstreamRequests.WithLabelValues(UpstreamTekmetric, "4xx"))
	assert.Equal(t, before+2, after)
}
