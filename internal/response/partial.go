package response

import (
	"github.com/p-blackswan/google-ads-mcp/internal/adserr"
)

// Batch is a response from a mutate call that may partially fail.
type Batch[T any] interface {
	BatchResults() []T
	PartialFailure() *adserr.Failure
}

// FailedItem is one failed operation of a batch. Index is nil when the API
// did not say which operation failed; such entries still count as failures.
type FailedItem struct {
	Index *int   `json:"index"`
	Error string `json:"error"`
}

// Partial is the caller-facing view of a batch response.
type Partial[T any] struct {
	Success        bool         `json:"success"`
	PartialFailure bool         `json:"partial_failure"`
	Results        []T          `json:"results"`
	Failures       []FailedItem `json:"failures"`
}

// HandlePartialFailure splits a batch response into the results that
// succeeded, in their original order, and the failures. It never retries.
func HandlePartialFailure[T any](b Batch[T]) Partial[T] {
	out := Partial[T]{
		Success:  true,
		Results:  []T{},
		Failures: []FailedItem{},
	}

	failed := make(map[int]struct{})
	if pf := b.PartialFailure(); pf != nil && len(pf.Errors) > 0 {
		out.PartialFailure = true
		for _, e := range pf.Errors {
			item := FailedItem{Error: e.String()}
			if idx, ok := e.OperationIndex(); ok {
				i := idx
				item.Index = &i
				failed[idx] = struct{}{}
			}
			out.Failures = append(out.Failures, item)
		}
	}

	for i, r := range b.BatchResults() {
		if _, bad := failed[i]; bad {
			continue
		}
		out.Results = append(out.Results, r)
	}
	return out
}
