package adserr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

const quotaBody = `{
  "error": {
    "code": 429,
    "message": "Resource has been exhausted (e.g. check quota).",
    "status": "RESOURCE_EXHAUSTED",
    "details": [
      {
        "@type": "type.googleapis.com/google.ads.googleads.v20.errors.GoogleAdsFailure",
        "errors": [
          {
            "errorCode": {"quotaError": "RESOURCE_EXHAUSTED"},
            "message": "rate limited"
          }
        ],
        "requestId": "abc123"
      }
    ]
  }
}`

const fieldBody = `{
  "error": {
    "code": 400,
    "message": "Request contains an invalid argument.",
    "status": "INVALID_ARGUMENT",
    "details": [
      {
        "@type": "type.googleapis.com/google.ads.googleads.v20.errors.GoogleAdsFailure",
        "errors": [
          {
            "errorCode": {"fieldError": "REQUIRED"},
            "message": "The required field was not present.",
            "trigger": {"int64Value": "42"},
            "location": {"fieldPathElements": [{"fieldName": "operations", "index": 0}, {"fieldName": "create"}]}
          },
          {
            "errorCode": {"stringLengthError": "TOO_LONG"},
            "message": "Too long.",
            "trigger": {"stringValue": "xxxxxxxx"}
          }
        ]
      }
    ]
  }
}`

func TestDecodeFailure_Quota(t *testing.T) {
	f, ok := DecodeFailure(429, []byte(quotaBody), "")
	require.True(t, ok)
	assert.Equal(t, 429, f.HTTPStatus)
	assert.Equal(t, codes.ResourceExhausted, f.Status)
	assert.Equal(t, "abc123", f.RequestID)
	require.Len(t, f.Errors, 1)
	assert.Equal(t, "quota_error.RESOURCE_EXHAUSTED", f.Errors[0].Type())
	assert.Equal(t, "rate limited", f.Errors[0].Message)
	assert.True(t, ShouldRetry(f))
}

func TestDecodeFailure_FieldErrors(t *testing.T) {
	f, ok := DecodeFailure(400, []byte(fieldBody), "hdr-req")
	require.True(t, ok)
	assert.Equal(t, "hdr-req", f.RequestID)
	require.Len(t, f.Errors, 2)

	first := f.Errors[0]
	assert.Equal(t, "field_error.REQUIRED", first.Type())
	assert.Equal(t, int64(42), first.Trigger)
	assert.Equal(t, "operations[0].create", first.Location.String())

	second := f.Errors[1]
	assert.Equal(t, "string_length_error.TOO_LONG", second.Type())
	assert.Equal(t, "xxxxxxxx", second.Trigger)
	assert.Nil(t, second.Location)

	assert.False(t, ShouldRetry(f))
}

func TestDecodeFailure_NoAdsDetail(t *testing.T) {
	body := `{"error":{"code":429,"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`
	f, ok := DecodeFailure(429, []byte(body), "")
	require.True(t, ok)
	require.Len(t, f.Errors, 1)
	assert.Equal(t, "status.RESOURCE_EXHAUSTED", f.Errors[0].Type())
	assert.True(t, ShouldRetry(f))
}

func TestDecodeFailure_NotAnEnvelope(t *testing.T) {
	_, ok := DecodeFailure(502, []byte("<html>bad gateway</html>"), "")
	assert.False(t, ok)

	_, ok = DecodeFailure(500, []byte(`{"unexpected":true}`), "")
	assert.False(t, ok)
}

func TestDecodeStatus_PartialFailure(t *testing.T) {
	raw := []byte(`{
	  "code": 3,
	  "message": "Multiple errors in 'details'.",
	  "details": [{
	    "@type": "type.googleapis.com/google.ads.googleads.v20.errors.GoogleAdsFailure",
	    "errors": [{
	      "errorCode": {"campaignError": "CANNOT_MODIFY_REMOVED_CAMPAIGN"},
	      "message": "Cannot modify a removed campaign.",
	      "location": {"fieldPathElements": [{"fieldName": "operations", "index": 1}]}
	    }]
	  }]
	}`)
	f, err := DecodeStatus(raw)
	require.NoError(t, err)
	assert.Equal(t, codes.InvalidArgument, f.Status)
	assert.Zero(t, f.HTTPStatus)
	require.Len(t, f.Errors, 1)
	idx, ok := f.Errors[0].OperationIndex()
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestFromHTTPStatus(t *testing.T) {
	f := FromHTTPStatus(429, "slow down", "r-1")
	assert.Equal(t, codes.ResourceExhausted, f.Status)
	assert.True(t, f.IsStatusOnly())
	assert.Equal(t, "status.RESOURCE_EXHAUSTED", f.Errors[0].Type())
	assert.True(t, ShouldRetry(f))

	f = FromHTTPStatus(403, "nope", "")
	assert.Equal(t, "status.PERMISSION_DENIED", f.Errors[0].Type())
	assert.False(t, ShouldRetry(f))
}
