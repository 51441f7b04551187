package adserr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func intPtr(i int) *int { return &i }

func TestCode_UnmarshalJSON(t *testing.T) {
	var c Code
	require.NoError(t, json.Unmarshal([]byte(`{"quotaError":"RESOURCE_EXHAUSTED"}`), &c))
	assert.Equal(t, CategoryQuota, c.Category)
	assert.Equal(t, "RESOURCE_EXHAUSTED", c.Value)
}

func TestCode_UnmarshalJSON_FirstSetKeyWins(t *testing.T) {
	var c Code
	raw := `{"requestError":"UNSPECIFIED","campaignBudgetError":"BUDGET_IN_USE","quotaError":"RESOURCE_EXHAUSTED"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.Equal(t, CategoryCampaignBudget, c.Category)
	assert.Equal(t, "BUDGET_IN_USE", c.Value)
}

func TestCode_UnmarshalJSON_Empty(t *testing.T) {
	var c Code
	require.NoError(t, json.Unmarshal([]byte(`{}`), &c))
	assert.False(t, c.IsSet())
	assert.Equal(t, UnknownErrorType, c.String())
}

func TestCode_RoundTripsCategoryName(t *testing.T) {
	c := Code{Category: CategoryCampaignBudget, Value: "BUDGET_IN_USE"}
	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"campaignBudgetError":"BUDGET_IN_USE"}`, string(b))
}

func TestError_Retryable(t *testing.T) {
	retryable := []Code{
		{CategoryInternal, "INTERNAL_ERROR"},
		{CategoryInternal, "TRANSIENT_ERROR"},
		{CategoryInternal, "DEADLINE_EXCEEDED"},
		{CategoryQuota, "RESOURCE_EXHAUSTED"},
		{CategoryStatus, "RESOURCE_EXHAUSTED"},
	}
	for _, c := range retryable {
		assert.True(t, (&Error{Code: c}).Retryable(), c.String())
	}

	permanent := []Code{
		{CategoryAuthentication, "NOT_ADS_USER"},
		{CategoryAuthorization, "USER_PERMISSION_DENIED"},
		{CategoryQuery, "UNRECOGNIZED_FIELD"},
		{CategoryInternal, unspecified},
		{},
	}
	for _, c := range permanent {
		assert.False(t, (&Error{Code: c}).Retryable(), c.String())
	}
}

func TestError_ClassificationIsDeterministic(t *testing.T) {
	e := &Error{Code: Code{CategoryQuota, "RESOURCE_EXHAUSTED"}}
	for i := 0; i < 10; i++ {
		assert.True(t, e.Retryable())
		assert.Equal(t, "quota_error.RESOURCE_EXHAUSTED", e.Type())
	}
}

func TestError_Type(t *testing.T) {
	assert.Equal(t, "field_error.REQUIRED", (&Error{Code: Code{CategoryField, "REQUIRED"}}).Type())
	assert.Equal(t, UnknownErrorType, (&Error{}).Type())
	assert.Equal(t, UnknownErrorType, (&Error{Code: Code{CategoryField, "UNSPECIFIED"}}).Type())
}

func TestError_DocumentationURL(t *testing.T) {
	url, ok := (&Error{Code: Code{CategoryCampaignBudget, "BUDGET_IN_USE"}}).DocumentationURL()
	require.True(t, ok)
	assert.Equal(t, DocsBaseURL+"#campaign-budget-error", url)

	_, ok = (&Error{}).DocumentationURL()
	assert.False(t, ok)
}

func TestError_String(t *testing.T) {
	e := &Error{
		Code:    Code{CategoryField, "REQUIRED"},
		Message: "The required field was not present.",
		Trigger: "abc",
		Location: &Location{FieldPathElements: []FieldPathElement{
			{FieldName: "operations", Index: intPtr(1)},
			{FieldName: "create"},
			{FieldName: "name"},
		}},
	}
	assert.Equal(t,
		"Error: field_error.REQUIRED | Message: The required field was not present. | Trigger: abc | Location: operations[1].create.name",
		e.String())
}

func TestError_OperationIndex(t *testing.T) {
	e := &Error{Location: &Location{FieldPathElements: []FieldPathElement{
		{FieldName: "operations", Index: intPtr(3)},
		{FieldName: "update"},
	}}}
	idx, ok := e.OperationIndex()
	require.True(t, ok)
	assert.Equal(t, 3, idx)

	_, ok = (&Error{}).OperationIndex()
	assert.False(t, ok)
}

func TestParseType(t *testing.T) {
	c, ok := ParseType("quota_error.RESOURCE_EXHAUSTED")
	require.True(t, ok)
	assert.Equal(t, Code{CategoryQuota, "RESOURCE_EXHAUSTED"}, c)

	_, ok = ParseType(UnknownErrorType)
	assert.False(t, ok)
	_, ok = ParseType("quota_error.")
	assert.False(t, ok)
}

func TestShouldRetry_Failure(t *testing.T) {
	retryable := &Failure{Errors: []*Error{
		{Code: Code{CategoryField, "REQUIRED"}},
		{Code: Code{CategoryInternal, "TRANSIENT_ERROR"}},
	}}
	assert.True(t, ShouldRetry(retryable))
	assert.True(t, ShouldRetry(fmt.Errorf("search: %w", retryable)))

	permanent := &Failure{Errors: []*Error{{Code: Code{CategoryAuthorization, "USER_PERMISSION_DENIED"}}}}
	assert.False(t, ShouldRetry(permanent))
}

func TestShouldRetry_Transport(t *testing.T) {
	assert.True(t, ShouldRetry(&TransportError{Op: "search", Err: errors.New("boom")}))
	assert.True(t, ShouldRetry(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}))
	assert.True(t, ShouldRetry(io.ErrUnexpectedEOF))
	assert.True(t, ShouldRetry(context.DeadlineExceeded))
	assert.True(t, ShouldRetry(status.Error(codes.Unavailable, "try again")))
	assert.True(t, ShouldRetry(status.Error(codes.DeadlineExceeded, "slow")))

	assert.False(t, ShouldRetry(context.Canceled))
	assert.False(t, ShouldRetry(status.Error(codes.InvalidArgument, "bad")))
	assert.False(t, ShouldRetry(errors.New("generic error")))
	assert.False(t, ShouldRetry(nil))
	assert.False(t, ShouldRetry(ErrInvalidInput))
}

func TestRateLimitedScenario(t *testing.T) {
	f := &Failure{Errors: []*Error{{Code: Code{CategoryQuota, "RESOURCE_EXHAUSTED"}, Message: "rate limited"}}}
	errs, ok := Parse(f)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.True(t, errs[0].Retryable())
	assert.Equal(t, "quota_error.RESOURCE_EXHAUSTED", errs[0].Type())
	assert.True(t, ShouldRetry(fmt.Errorf("wrapped: %w", f)))
}

func TestFailure_Error(t *testing.T) {
	f := &Failure{
		HTTPStatus: 400,
		Status:     codes.InvalidArgument,
		RequestID:  "req-1",
		Errors:     []*Error{{Code: Code{CategoryQuery, "UNRECOGNIZED_FIELD"}, Message: "bad field"}},
	}
	assert.Contains(t, f.Error(), "query_error.UNRECOGNIZED_FIELD")
	assert.Contains(t, f.Error(), "request_id=req-1")
	assert.Contains(t, f.Error(), "400")
}
