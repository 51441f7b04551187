package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_New(t *testing.T) {
	m := New()
	assert.NotNil(t, m.ToolCallsTotal)
	assert.NotNil(t, m.ToolCallDuration)
	assert.NotNil(t, m.RemoteAttemptsTotal)
	assert.NotNil(t, m.ErrorsTotal)
	assert.NotNil(t, m.DocsLookupsTotal)
}

func TestMetrics_RecordToolCall(t *testing.T) {
	m := New()
	m.RecordToolCall("list_campaigns", "success", 200*time.Millisecond)
	m.RecordToolCall("list_campaigns", "success", time.Second)
	m.RecordToolCall("run_gaql_query", "error", time.Second)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `googleads_mcp_tool_calls_total{status="success",tool="list_campaigns"} 2`)
	assert.Contains(t, body, `googleads_mcp_tool_calls_total{status="error",tool="run_gaql_query"} 1`)
	assert.Contains(t, body, `googleads_mcp_tool_call_duration_seconds_count{tool="list_campaigns"} 2`)
}

func TestMetrics_RecordAttempt(t *testing.T) {
	m := New()
	m.RecordAttempt("GoogleAdsService.Search", "retry")
	m.RecordAttempt("GoogleAdsService.Search", "success")

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `googleads_mcp_remote_attempts_total{op="GoogleAdsService.Search",outcome="retry"} 1`)
	assert.Contains(t, body, `googleads_mcp_remote_attempts_total{op="GoogleAdsService.Search",outcome="success"} 1`)
}

func TestMetrics_RecordError(t *testing.T) {
	m := New()
	m.RecordError("quota_error.RESOURCE_EXHAUSTED", true)
	m.RecordError("field_error.REQUIRED", false)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `googleads_mcp_errors_total{retryable="true",type="quota_error.RESOURCE_EXHAUSTED"} 1`)
	assert.Contains(t, body, `googleads_mcp_errors_total{retryable="false",type="field_error.REQUIRED"} 1`)
}

func TestMetrics_RecordDocsLookup(t *testing.T) {
	m := New()
	m.RecordDocsLookup("hit")
	m.RecordDocsLookup("hit")

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `googleads_mcp_docs_lookups_total{result="hit"} 2`)
}

func getMetricsBody(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}
