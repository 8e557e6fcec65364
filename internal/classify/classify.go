// Package classify assigns a quality status to a single email address
// using an injected set of rule tables. The classifier is a pure function:
// every input maps to exactly one status, there is no error path.
package classify

import (
	"strings"

	"github.com/listclean/listclean/internal/rules"
)

// Status is the quality category assigned to one email address.
// Exactly one status applies per record.
type Status string

const (
	StatusValid         Status = "valid"
	StatusInvalidFormat Status = "invalid_format"
	StatusDuplicate     Status = "duplicate"
	StatusDisposable    Status = "disposable"
	StatusRoleBased     Status = "role_based"
	StatusTypoDomain    Status = "typo_domain"

	// StatusMissingMX is reserved for a future mail-exchange lookup.
	// The current rule chain never assigns it.
	StatusMissingMX Status = "missing_mx"
)

// NonValidStatuses lists every status a rejected record can carry, in
// display order. StatusMissingMX is included so counters and UIs reserve
// a slot for it even though it is never produced.
var NonValidStatuses = []Status{
	StatusInvalidFormat,
	StatusDuplicate,
	StatusDisposable,
	StatusRoleBased,
	StatusTypoDomain,
	StatusMissingMX,
}

// Normalize lowercases an address and strips surrounding whitespace.
// All comparisons in the system run on normalized form.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Classifier evaluates one address against a fixed rule chain.
type Classifier struct {
	tables *rules.Tables
}

// New returns a classifier over the given rule tables.
func New(tables *rules.Tables) *Classifier {
	return &Classifier{tables: tables}
}

// Classify returns the status for a candidate address. The chain runs in
// strict priority order, first match wins:
//
//  1. empty or missing '@'        -> invalid_format
//  2. syntax pattern mismatch     -> invalid_format
//  3. domain in typo set          -> typo_domain
//  4. domain in disposable set    -> disposable
//  5. local part in role set      -> role_based
//  6. otherwise                   -> valid
//
// The input is normalized here regardless of what the caller did, so the
// classifier is safe to reuse outside the pipeline. Duplicate detection
// is stateful and deliberately not part of this chain.
func (c *Classifier) Classify(email string) Status {
	if email == "" || !strings.Contains(email, "@") {
		return StatusInvalidFormat
	}

	normalized := Normalize(email)
	if !c.tables.MatchesSyntax(normalized) {
		return StatusInvalidFormat
	}

	at := strings.Index(normalized, "@")
	localPart, domain := normalized[:at], normalized[at+1:]

	switch {
	case c.tables.IsTypoDomain(domain):
		return StatusTypoDomain
	case c.tables.IsDisposableDomain(domain):
		return StatusDisposable
	case c.tables.IsRolePrefix(localPart):
		return StatusRoleBased
	default:
		return StatusValid
	}
}
