// Package response turns Google Ads failures and batch results into the
// stable JSON shapes returned to MCP clients.
package response

import (
	"context"
	"errors"

	"github.com/p-blackswan/google-ads-mcp/internal/adserr"
)

// ErrorDetail is one classified error as reported to the caller.
type ErrorDetail struct {
	Type             string  `json:"type"`
	Message          string  `json:"message"`
	Trigger          any     `json:"trigger"`
	Location         *string `json:"location"`
	IsRetryable      bool    `json:"is_retryable"`
	DocumentationURL string  `json:"documentation_url,omitempty"`
}

// Envelope is the result of a failed call.
type Envelope struct {
	Success     bool          `json:"success"`
	ErrorCount  int           `json:"error_count"`
	Errors      []ErrorDetail `json:"errors"`
	IsRetryable bool          `json:"is_retryable"`
	RequestID   *string       `json:"request_id"`
}

// DocResolver supplies documentation links for classified errors. It must
// not fail the caller: unresolvable errors simply report false.
type DocResolver interface {
	Resolve(ctx context.Context, e *adserr.Error) (string, bool)
}

// StaticDocs derives links from the error category without any I/O.
type StaticDocs struct{}

// Resolve implements DocResolver.
func (StaticDocs) Resolve(_ context.Context, e *adserr.Error) (string, bool) {
	return e.DocumentationURL()
}

// Formatter builds envelopes.
type Formatter struct {
	docs DocResolver
}

// NewFormatter creates a Formatter. A nil resolver means StaticDocs.
func NewFormatter(docs DocResolver) *Formatter {
	if docs == nil {
		docs = StaticDocs{}
	}
	return &Formatter{docs: docs}
}

// FormatError classifies every error of f. The envelope is retryable when
// any of its errors is.
func (fm *Formatter) FormatError(ctx context.Context, f *adserr.Failure, includeDocs bool) Envelope {
	env := Envelope{
		ErrorCount: len(f.Errors),
		Errors:     make([]ErrorDetail, 0, len(f.Errors)),
	}
	if f.RequestID != "" {
		id := f.RequestID
		env.RequestID = &id
	}

	for _, e := range f.Errors {
		d := ErrorDetail{
			Type:        e.Type(),
			Message:     e.Message,
			Trigger:     e.Trigger,
			IsRetryable: e.Retryable(),
		}
		if loc := e.Location.String(); loc != "" {
			d.Location = &loc
		}
		if includeDocs {
			if url, ok := fm.docs.Resolve(ctx, e); ok {
				d.DocumentationURL = url
			}
		}
		env.IsRetryable = env.IsRetryable || d.IsRetryable
		env.Errors = append(env.Errors, d)
	}
	return env
}

// Format is FormatError for an arbitrary error; it reports false when err
// does not carry a Failure.
func (fm *Formatter) Format(ctx context.Context, err error, includeDocs bool) (Envelope, bool) {
	var f *adserr.Failure
	if !errors.As(err, &f) {
		return Envelope{}, false
	}
	return fm.FormatError(ctx, f, includeDocs), true
}
