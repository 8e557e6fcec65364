package clean

import (
	"strings"

	"github.com/listclean/listclean/internal/tabular"
)

// Field resolution locates the interesting columns in a row whose headers
// follow no fixed schema. Resolution is per-record: two files in the same
// run may name their columns differently. Ties always break toward the
// first matching header in the row's original column order.

// ResolveEmail returns the value of the first header whose lowercased
// form contains "email", and whether such a header exists.
func ResolveEmail(row tabular.Row) (string, bool) {
	for _, h := range row.Headers {
		if strings.Contains(strings.ToLower(h), "email") {
			return row.Get(h), true
		}
	}
	return "", false
}

// nameStrategy attempts to derive a display name from one row. Each
// strategy is a pure function over the row's header set, so the heuristic
// stays auditable and each step independently testable.
type nameStrategy func(tabular.Row) (string, bool)

var nameStrategies = []nameStrategy{
	exactNameHeader,
	firstAndLastName,
	firstNameOnly,
	fuzzyNameHeader,
}

// ResolveName returns a best-effort display name for the row, trying each
// strategy in order and taking the first success. Returns "" when no
// strategy matches.
func ResolveName(row tabular.Row) string {
	for _, strategy := range nameStrategies {
		if name, ok := strategy(row); ok {
			return name
		}
	}
	return ""
}

// exactNameHeader matches a header that is exactly (case-insensitively)
// "name", "full name" or "fullname".
func exactNameHeader(row tabular.Row) (string, bool) {
	for _, h := range row.Headers {
		switch strings.ToLower(h) {
		case "name", "full name", "fullname":
			return strings.TrimSpace(row.Get(h)), true
		}
	}
	return "", false
}

// firstAndLastName joins a first-name column and a last-name column.
func firstAndLastName(row tabular.Row) (string, bool) {
	first, firstOK := headerIn(row, "first name", "firstname")
	last, lastOK := headerIn(row, "last name", "lastname")
	if !firstOK || !lastOK {
		return "", false
	}
	return strings.TrimSpace(row.Get(first) + " " + row.Get(last)), true
}

// firstNameOnly falls back to the first-name column alone.
func firstNameOnly(row tabular.Row) (string, bool) {
	h, ok := headerIn(row, "first name", "firstname")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(row.Get(h)), true
}

// fuzzyNameHeader is the last resort: any header containing "name" that
// is not an email or file column.
func fuzzyNameHeader(row tabular.Row) (string, bool) {
	for _, h := range row.Headers {
		lower := strings.ToLower(h)
		if strings.Contains(lower, "name") &&
			!strings.Contains(lower, "email") &&
			!strings.Contains(lower, "file") {
			return strings.TrimSpace(row.Get(h)), true
		}
	}
	return "", false
}

// headerIn returns the first header whose lowercased form equals one of
// the candidates.
func headerIn(row tabular.Row, candidates ...string) (string, bool) {
	for _, h := range row.Headers {
		lower := strings.ToLower(h)
		for _, c := range candidates {
			if lower == c {
				return h, true
			}
		}
	}
	return "", false
}
