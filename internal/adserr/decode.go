package adserr

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
)

const failureTypeSuffix = ".errors.GoogleAdsFailure"

// wireStatus is a google.rpc.Status as the REST transcoder emits it.
type wireStatus struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  codes.Code        `json:"status"`
	Details []json.RawMessage `json:"details"`
}

type wireFailure struct {
	Type      string      `json:"@type"`
	Errors    []wireError `json:"errors"`
	RequestID string      `json:"requestId"`
}

type wireError struct {
	ErrorCode Code           `json:"errorCode"`
	Message   string         `json:"message"`
	Trigger   map[string]any `json:"trigger"`
	Location  *Location      `json:"location"`
}

// DecodeFailure decodes an HTTP error body of the form
// {"error": {code, message, status, details: [GoogleAdsFailure]}}.
// It returns false when the body is not a google.rpc.Status envelope.
func DecodeFailure(httpStatus int, body []byte, requestID string) (*Failure, bool) {
	var envelope struct {
		Error *json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return nil, false
	}
	f, err := DecodeStatus(*envelope.Error)
	if err != nil {
		return nil, false
	}
	f.HTTPStatus = httpStatus
	if f.RequestID == "" {
		f.RequestID = requestID
	}
	return f, true
}

// DecodeStatus decodes a google.rpc.Status object, such as the
// partialFailureError of a mutate response, into a Failure. A status with no
// GoogleAdsFailure detail yields a single entry coded by the status name so
// the failure still classifies.
func DecodeStatus(raw json.RawMessage) (*Failure, error) {
	var st wireStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decoding status: %w", err)
	}

	f := &Failure{Status: st.Status, Message: st.Message}
	switch {
	case st.Code >= 100:
		// REST error envelopes carry the HTTP code next to the status name.
		f.HTTPStatus = st.Code
		if f.Status == codes.OK {
			f.Status = codes.Unknown
		}
	case f.Status == codes.OK && st.Code > 0:
		// A bare google.rpc.Status (partialFailureError) has only the gRPC code.
		f.Status = codes.Code(st.Code)
	}

	for _, d := range st.Details {
		var wf wireFailure
		if err := json.Unmarshal(d, &wf); err != nil {
			continue
		}
		if !strings.HasSuffix(wf.Type, failureTypeSuffix) {
			continue
		}
		if f.RequestID == "" {
			f.RequestID = wf.RequestID
		}
		for _, we := range wf.Errors {
			f.Errors = append(f.Errors, we.classify())
		}
	}

	if len(f.Errors) == 0 && f.Status != codes.OK {
		f.Errors = []*Error{{
			Code:    Code{Category: CategoryStatus, Value: statusName(f.Status)},
			Message: st.Message,
		}}
	}
	return f, nil
}

func (we wireError) classify() *Error {
	return &Error{
		Code:     we.ErrorCode,
		Message:  we.Message,
		Trigger:  triggerValue(we.Trigger),
		Location: we.Location,
	}
}

// triggerValue unwraps the google.ads.common.Value oneof.
func triggerValue(v map[string]any) any {
	for key, val := range v {
		if key == "int64Value" {
			if s, ok := val.(string); ok {
				if n, err := strconv.ParseInt(s, 10, 64); err == nil {
					return n
				}
			}
		}
		return val
	}
	return nil
}

// statusName renders a gRPC code the way google.rpc names it
// (RESOURCE_EXHAUSTED rather than ResourceExhausted).
func statusName(c codes.Code) string {
	return strings.ToUpper(snakeCase(c.String()))
}

// FromHTTPStatus builds a Failure for an error response whose body is not a
// google.rpc.Status envelope, naming it after the closest gRPC code.
func FromHTTPStatus(httpStatus int, message, requestID string) *Failure {
	st := httpToCode(httpStatus)
	return &Failure{
		HTTPStatus: httpStatus,
		Status:     st,
		Message:    message,
		RequestID:  requestID,
		Errors: []*Error{{
			Code:    Code{Category: CategoryStatus, Value: statusName(st)},
			Message: message,
		}},
	}
}

// IsStatusOnly reports whether f carries no GoogleAdsFailure detail, only the
// entry synthesised from its status.
func (f *Failure) IsStatusOnly() bool {
	return len(f.Errors) == 1 && f.Errors[0].Code.Category == CategoryStatus
}

func httpToCode(s int) codes.Code {
	switch s {
	case 400:
		return codes.InvalidArgument
	case 401:
		return codes.Unauthenticated
	case 403:
		return codes.PermissionDenied
	case 404:
		return codes.NotFound
	case 408, 504:
		return codes.DeadlineExceeded
	case 409:
		return codes.Aborted
	case 429:
		return codes.ResourceExhausted
	case 501:
		return codes.Unimplemented
	case 502, 503:
		return codes.Unavailable
	case 500:
		return codes.Internal
	}
	return codes.Unknown
}
