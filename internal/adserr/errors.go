// Package adserr classifies Google Ads API failures.
//
// A Failure is what a remote call returns when the API rejects a request. It
// holds one Error per GoogleAdsError entry, each carrying a typed Code. The
// package decides retryability for failures and for transport errors, and
// derives the stable error-type strings and documentation links the response
// layer reports to callers.
package adserr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
)

// Sentinel errors for failures raised before a request reaches the API.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotConfigured = errors.New("google ads client not configured")
)

// DocsBaseURL is the error reference page that documentation links point into.
const DocsBaseURL = "https://developers.google.com/google-ads/api/reference/rpc/v20/errors"

// FieldPathElement is one hop of an error location.
type FieldPathElement struct {
	FieldName string `json:"fieldName"`
	Index     *int   `json:"index,omitempty"`
}

// Location identifies the request field an error refers to.
type Location struct {
	FieldPathElements []FieldPathElement `json:"fieldPathElements"`
}

// String renders the path as "operations[1].create.name".
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	var b strings.Builder
	for i, el := range l.FieldPathElements {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(el.FieldName)
		if el.Index != nil {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(*el.Index))
			b.WriteByte(']')
		}
	}
	return b.String()
}

// Error is one classified entry of a Failure. It is never mutated after
// decoding.
type Error struct {
	Code     Code
	Message  string
	Trigger  any
	Location *Location
}

// Retryable reports whether re-issuing the request may succeed.
func (e *Error) Retryable() bool {
	return e.Code.Retryable()
}

// Type returns "<category>.<value>" or UnknownErrorType.
func (e *Error) Type() string {
	return e.Code.String()
}

// DocumentationURL links the category section of the error reference.
func (e *Error) DocumentationURL() (string, bool) {
	if !e.Code.IsSet() {
		return "", false
	}
	anchor := strings.ReplaceAll(strings.ToLower(string(e.Code.Category)), "_", "-")
	return DocsBaseURL + "#" + anchor, true
}

// OperationIndex returns the batch operation index the error points at, if
// the location carries one.
func (e *Error) OperationIndex() (int, bool) {
	if e.Location == nil {
		return 0, false
	}
	for _, el := range e.Location.FieldPathElements {
		if el.Index != nil {
			return *el.Index, true
		}
	}
	return 0, false
}

func (e *Error) String() string {
	parts := []string{"Error: " + e.Type()}
	if e.Message != "" {
		parts = append(parts, "Message: "+e.Message)
	}
	if e.Trigger != nil {
		parts = append(parts, fmt.Sprintf("Trigger: %v", e.Trigger))
	}
	if loc := e.Location.String(); loc != "" {
		parts = append(parts, "Location: "+loc)
	}
	return strings.Join(parts, " | ")
}

// Failure is a request the Google Ads API rejected.
type Failure struct {
	Errors     []*Error
	RequestID  string
	HTTPStatus int
	Status     codes.Code
	Message    string
}

func (f *Failure) Error() string {
	if len(f.Errors) == 0 {
		return fmt.Sprintf("google ads API error (status %d %s): %s", f.HTTPStatus, f.Status, f.Message)
	}
	msgs := make([]string, 0, len(f.Errors))
	for _, e := range f.Errors {
		msgs = append(msgs, e.String())
	}
	s := fmt.Sprintf("google ads API error (status %d %s): %s", f.HTTPStatus, f.Status, strings.Join(msgs, "; "))
	if f.RequestID != "" {
		s += " [request_id=" + f.RequestID + "]"
	}
	return s
}

// Retryable reports whether any contained error is retryable.
func (f *Failure) Retryable() bool {
	for _, e := range f.Errors {
		if e.Retryable() {
			return true
		}
	}
	return false
}

// Parse returns the classified errors of err if it is (or wraps) a Failure.
func Parse(err error) ([]*Error, bool) {
	var f *Failure
	if !errors.As(err, &f) {
		return nil, false
	}
	return f.Errors, true
}

// ShouldRetry reports whether the call that produced err is worth retrying:
// a Failure with at least one retryable entry, or a transport-level timeout
// or connection error.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Retryable()
	}
	return IsTransport(err)
}
