// Package rules holds the static reference data used for email
// classification: the address syntax pattern and three membership sets
// (known typo domains, disposable-mail domains, role-based local parts).
//
// Tables are immutable after construction and are injected into the
// classifier rather than accessed as package globals, so tests can supply
// alternate rule sets.
package rules

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// addressPattern accepts local@domain.tld where the local part is one or
// more of [a-z0-9._%+-], the domain is one or more of [a-z0-9.-] and the
// trailing label is at least two letters. Input is lowercased before
// matching, so the pattern only needs the lowercase ranges.
var addressPattern = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)

// Default membership data. Domains and prefixes are stored lowercase;
// lookups are exact-string against already-lowercased input, no wildcard
// or suffix matching.
var (
	defaultTypoDomains = []string{
		"gmal.com", "gmai.com", "gmial.com", "gamil.com", "gmali.com",
		"gnail.com", "hotmal.com", "hotmial.com", "yaho.com", "yahooo.com",
		"outlok.com", "example.com", "test.com", "email.com",
	}

	defaultDisposableDomains = []string{
		"mailinator.com", "guerrillamail.com", "10minutemail.com",
		"tempmail.com", "temp-mail.org", "throwawaymail.com",
		"yopmail.com", "getnada.com", "trashmail.com", "sharklasers.com",
		"maildrop.cc", "dispostable.com", "fakeinbox.com",
	}

	defaultRolePrefixes = []string{
		"admin", "administrator", "info", "support", "sales", "contact",
		"help", "webmaster", "postmaster", "noreply", "no-reply",
		"office", "billing", "marketing", "hr", "jobs", "abuse",
	}
)

// Tables is one immutable set of classification rules.
type Tables struct {
	pattern    *regexp.Regexp
	typo       map[string]struct{}
	disposable map[string]struct{}
	role       map[string]struct{}
}

// Overlay is extra membership data merged on top of the built-in defaults,
// typically decoded from a YAML rules file.
type Overlay struct {
	TypoDomains       []string `yaml:"typo_domains"`
	DisposableDomains []string `yaml:"disposable_domains"`
	RolePrefixes      []string `yaml:"role_prefixes"`
}

// Default returns the built-in rule tables.
func Default() *Tables {
	return build(Overlay{})
}

// New returns tables containing ONLY the given entries, with the standard
// syntax pattern. Intended for tests that need a minimal rule set.
func New(typoDomains, disposableDomains, rolePrefixes []string) *Tables {
	return &Tables{
		pattern:    addressPattern,
		typo:       toSet(typoDomains),
		disposable: toSet(disposableDomains),
		role:       toSet(rolePrefixes),
	}
}

// Load returns the defaults extended with the overlay from a YAML file.
// An empty path returns the defaults unchanged.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var overlay Overlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	return build(overlay), nil
}

func build(overlay Overlay) *Tables {
	t := &Tables{
		pattern:    addressPattern,
		typo:       toSet(defaultTypoDomains),
		disposable: toSet(defaultDisposableDomains),
		role:       toSet(defaultRolePrefixes),
	}
	addAll(t.typo, overlay.TypoDomains)
	addAll(t.disposable, overlay.DisposableDomains)
	addAll(t.role, overlay.RolePrefixes)
	return t
}

// MatchesSyntax reports whether a lowercased, trimmed address matches the
// syntax pattern.
func (t *Tables) MatchesSyntax(email string) bool {
	return t.pattern.MatchString(email)
}

// IsTypoDomain reports whether the domain is a known misspelling or
// placeholder domain.
func (t *Tables) IsTypoDomain(domain string) bool {
	_, ok := t.typo[domain]
	return ok
}

// IsDisposableDomain reports whether the domain belongs to a known
// throwaway-mailbox provider.
func (t *Tables) IsDisposableDomain(domain string) bool {
	_, ok := t.disposable[domain]
	return ok
}

// IsRolePrefix reports whether the local part is a conventional shared
// mailbox name.
func (t *Tables) IsRolePrefix(localPart string) bool {
	_, ok := t.role[localPart]
	return ok
}

// Counts contains the size of each membership set, for display.
type Counts struct {
	TypoDomains       int `json:"typo_domains"`
	DisposableDomains int `json:"disposable_domains"`
	RolePrefixes      int `json:"role_prefixes"`
}

// Counts returns the size of each membership set.
func (t *Tables) Counts() Counts {
	return Counts{
		TypoDomains:       len(t.typo),
		DisposableDomains: len(t.disposable),
		RolePrefixes:      len(t.role),
	}
}

func toSet(entries []string) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	addAll(set, entries)
	return set
}

func addAll(set map[string]struct{}, entries []string) {
	for _, e := range entries {
		if e != "" {
			set[e] = struct{}{}
		}
	}
}
