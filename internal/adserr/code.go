package adserr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// Category is the error family a Google Ads error code belongs to, named
// after the oneof field that carries it (e.g. "quota_error").
type Category string

// Categories referenced directly by this server. Any other category the API
// returns is still decoded; these only exist so callers can compare.
const (
	CategoryAuthentication Category = "authentication_error"
	CategoryAuthorization  Category = "authorization_error"
	CategoryInternal       Category = "internal_error"
	CategoryQuota          Category = "quota_error"
	CategoryRequest        Category = "request_error"
	CategoryQuery          Category = "query_error"
	CategoryField          Category = "field_error"
	CategoryMutate         Category = "mutate_error"
	CategoryCampaign       Category = "campaign_error"
	CategoryCampaignBudget Category = "campaign_budget_error"
	CategoryDatabase       Category = "database_error"

	// CategoryStatus holds a bare google.rpc status name for failures that
	// came back without a GoogleAdsFailure detail.
	CategoryStatus Category = "status"
)

// unspecified is the proto3 zero value every Ads error enum starts with.
const unspecified = "UNSPECIFIED"

// UnknownErrorType is returned by Type when no code is set.
const UnknownErrorType = "UNKNOWN_ERROR"

var retryableValues = map[string]struct{}{
	"INTERNAL_ERROR":     {},
	"TRANSIENT_ERROR":    {},
	"DEADLINE_EXCEEDED":  {},
	"RESOURCE_EXHAUSTED": {},
	"QUOTA_ERROR":        {},
}

// Code is one variant of the ErrorCode oneof: the category that was set and
// its enum value. The zero Code is "not set".
type Code struct {
	Category Category
	Value    string
}

// IsSet reports whether the code carries a real enum value.
func (c Code) IsSet() bool {
	return c.Category != "" && c.Value != "" && c.Value != unspecified
}

// Retryable reports whether the enum value denotes a transient condition.
func (c Code) Retryable() bool {
	if !c.IsSet() {
		return false
	}
	_, ok := retryableValues[c.Value]
	return ok
}

// String renders the code as "<category>.<value>", or UNKNOWN_ERROR.
func (c Code) String() string {
	if !c.IsSet() {
		return UnknownErrorType
	}
	return string(c.Category) + "." + c.Value
}

// ParseType is the inverse of Code.String.
func ParseType(s string) (Code, bool) {
	category, value, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || category == "" || value == "" {
		return Code{}, false
	}
	c := Code{Category: Category(category), Value: value}
	return c, c.IsSet()
}

// UnmarshalJSON decodes the REST form of ErrorCode, an object with a single
// camelCase key such as {"quotaError":"RESOURCE_EXHAUSTED"}. Keys are read in
// wire order and the first set one wins.
func (c *Code) UnmarshalJSON(b []byte) error {
	*c = Code{}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("error code: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("error code: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("error code: %w", err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("error code %q: %w", key, err)
		}
		if c.IsSet() {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			// Numeric enums only show up with non-default marshalers; skip them.
			continue
		}
		candidate := Code{Category: Category(snakeCase(key)), Value: value}
		if candidate.IsSet() {
			*c = candidate
		}
	}
	return nil
}

// MarshalJSON writes the code back in its REST form.
func (c Code) MarshalJSON() ([]byte, error) {
	if c.Category == "" {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string{camelCase(string(c.Category)): c.Value})
}

func snakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func camelCase(s string) string {
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}
	return strings.Join(parts, "")
}
