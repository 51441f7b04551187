// Package gaql holds Google Ads Query Language helpers shared by the tools.
package gaql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/p-blackswan/google-ads-mcp/internal/adserr"
)

const dateLayout = "2006-01-02"

var customerIDPattern = regexp.MustCompile(`^\d{10}$`)

// SanitizeCustomerID strips the display hyphens from a customer ID.
func SanitizeCustomerID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}

// CustomerID sanitizes id and checks it is the ten digits the API expects.
func CustomerID(id string) (string, error) {
	s := SanitizeCustomerID(id)
	if !customerIDPattern.MatchString(s) {
		return "", fmt.Errorf("%w: customer id %q must be 10 digits", adserr.ErrInvalidInput, id)
	}
	return s, nil
}

// FormatCustomerID renders a ten digit ID as XXX-XXX-XXXX. Anything else is
// returned unchanged.
func FormatCustomerID(id string) string {
	if len(id) == 10 && !strings.Contains(id, "-") {
		return id[:3] + "-" + id[3:6] + "-" + id[6:]
	}
	return id
}

// CustomerIDFromResourceName extracts the ID from "customers/1234567890".
func CustomerIDFromResourceName(name string) string {
	return strings.TrimPrefix(name, "customers/")
}

// MicrosToCurrency converts an amount in micros to currency units.
func MicrosToCurrency(micros int64) float64 {
	return float64(micros) / 1_000_000
}

var nonNumeric = regexp.MustCompile(`[^\d.-]`)

// CurrencyToMicros parses an amount such as "$1,234.50" into micros.
func CurrencyToMicros(amount string) (int64, error) {
	cleaned := nonNumeric.ReplaceAllString(amount, "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", adserr.ErrInvalidInput, amount)
	}
	return int64(f * 1_000_000), nil
}

// Quote renders s as a GAQL string literal.
func Quote(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}

// Ranges GAQL accepts directly after DURING.
var duringRanges = map[string]bool{
	"TODAY":        true,
	"YESTERDAY":    true,
	"LAST_7_DAYS":  true,
	"LAST_14_DAYS": true,
	"LAST_30_DAYS": true,
	"THIS_MONTH":   true,
	"LAST_MONTH":   true,
}

var dateFormats = []string{"2006-01-02", "20060102", "01/02/2006", "02/01/2006", "2006/01/02"}

// ParseDate accepts YYYY-MM-DD, YYYYMMDD, MM/DD/YYYY, DD/MM/YYYY and
// YYYY/MM/DD, in that order of preference.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unable to parse date %q", adserr.ErrInvalidInput, s)
}

// DateRange resolves a named range or "start,end" to concrete dates relative
// to today.
func DateRange(r string, today time.Time) (start, end time.Time, err error) {
	y, m, d := today.Date()
	today = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	days := func(n int) time.Time { return today.AddDate(0, 0, -n) }

	switch r {
	case "TODAY":
		return today, today, nil
	case "YESTERDAY":
		return days(1), days(1), nil
	case "LAST_7_DAYS":
		return days(6), today, nil
	case "LAST_14_DAYS":
		return days(13), today, nil
	case "LAST_30_DAYS":
		return days(29), today, nil
	case "LAST_90_DAYS":
		return days(89), today, nil
	case "THIS_MONTH":
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC), today, nil
	case "LAST_MONTH":
		first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		return first.AddDate(0, -1, 0), first.AddDate(0, 0, -1), nil
	case "THIS_YEAR":
		return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC), today, nil
	case "LAST_YEAR":
		return time.Date(y-1, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(y-1, 12, 31, 0, 0, 0, 0, time.UTC), nil
	case "ALL_TIME":
		return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), today, nil
	}

	from, to, ok := strings.Cut(r, ",")
	if !ok {
		return start, end, fmt.Errorf("%w: unknown date range %q", adserr.ErrInvalidInput, r)
	}
	if start, err = ParseDate(from); err != nil {
		return start, end, err
	}
	if end, err = ParseDate(to); err != nil {
		return start, end, err
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("%w: date range %q ends before it starts", adserr.ErrInvalidInput, r)
	}
	return start, end, nil
}

// DateRangeClause returns the segments.date condition for r, using DURING
// where GAQL has a literal for it and BETWEEN otherwise.
func DateRangeClause(r string, today time.Time) (string, error) {
	r = strings.ToUpper(strings.TrimSpace(r))
	if duringRanges[r] {
		return "segments.date DURING " + r, nil
	}
	start, end, err := DateRange(r, today)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("segments.date BETWEEN '%s' AND '%s'", start.Format(dateLayout), end.Format(dateLayout)), nil
}

// Query builds a GAQL statement.
type Query struct {
	fields  []string
	from    string
	where   []string
	orderBy string
	desc    bool
	limit   int
}

// Select starts a query over the given fields.
func Select(fields ...string) *Query {
	return &Query{fields: fields}
}

// From sets the resource.
func (q *Query) From(resource string) *Query {
	q.from = resource
	return q
}

// Where appends conditions joined with AND. Empty conditions are ignored.
func (q *Query) Where(conds ...string) *Query {
	for _, c := range conds {
		if c != "" {
			q.where = append(q.where, c)
		}
	}
	return q
}

// OrderBy sets the sort field.
func (q *Query) OrderBy(field string, desc bool) *Query {
	q.orderBy, q.desc = field, desc
	return q
}

// Limit caps the row count; zero means no limit.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

func (q *Query) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.fields, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.from)
	if len(q.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.where, " AND "))
	}
	if q.orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.orderBy)
		if q.desc {
			b.WriteString(" DESC")
		}
	}
	if q.limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.limit)
	}
	return b.String()
}

// Clean trims whitespace and a trailing semicolon from a user query.
func Clean(query string) string {
	query = strings.TrimSpace(query)
	return strings.TrimSpace(strings.TrimSuffix(query, ";"))
}
