package metrics

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, http.StatusOK, 10*time.Millisecond)
	m.ObserveRequest(http.MethodGet, 0, time.Millisecond)
	m.ObserveRefresh(RefreshSucceeded)
	m.ObserveRefresh(RefreshSucceeded)
	m.ObserveRetry()

	require.Equal(t, 2.0, testutil.ToFloat64(m.Refreshes(RefreshSucceeded)))
	require.Equal(t, 0.0, testutil.ToFloat64(m.Refreshes(RefreshFailed)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Retries()))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "error")))

	var buf bytes.Buffer
	require.NoError(t, m.Write(&buf))
	require.Contains(t, buf.String(), `fraudcheck_client_requests_total{method="GET",status="200"} 1`)
	require.Contains(t, buf.String(), "fraudcheck_client_retries_total 1")
}
