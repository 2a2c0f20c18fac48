package search

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ParsedQuery is a normalized search query together with its PII-masked
// twin. Query drives predicate construction; Masked exists only for logs and
// must never be fed back into predicates, which would silently break
// legitimate email or phone searches.
type ParsedQuery struct {
	Query  string
	Masked string
}

const (
	emailPlaceholder = "[email]"
	phonePlaceholder = "[phone]"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// Word boundaries keep digit runs inside identifiers (lot numbers,
	// cadastral codes) from being masked as phones
	phonePattern = regexp.MustCompile(`\b\+?\d[\d\s\-()]{6,}\d\b`)
)

// Parser normalizes and validates raw query strings.
type Parser struct {
	maxLength int
}

// NewParser creates a parser enforcing the given maximum query length.
// A non-positive maximum disables the length check.
func NewParser(maxLength int) *Parser {
	return &Parser{maxLength: maxLength}
}

// Parse trims the raw query and collapses internal whitespace runs to
// single spaces. A blank result returns (nil, nil): an empty query is a
// deliberate "apply no search filter" signal, not an error. Queries longer
// than the configured maximum fail with *QueryTooLongError.
func (p *Parser) Parse(raw string) (*ParsedQuery, error) {
	normalized := strings.Join(strings.Fields(raw), " ")
	if normalized == "" {
		return nil, nil
	}

	// Length is counted in characters, not bytes; Cyrillic queries would
	// otherwise hit the cap at half the advertised length
	if p.maxLength > 0 && utf8.RuneCountInString(normalized) > p.maxLength {
		return nil, &QueryTooLongError{MaxLength: p.maxLength}
	}

	return &ParsedQuery{
		Query:  normalized,
		Masked: Mask(normalized),
	}, nil
}

// Mask replaces email-shaped then phone-shaped substrings with fixed
// placeholders. Emails go first so digits inside an email's domain are not
// mistaken for a phone number. The substitution is idempotent on already
// masked text.
func Mask(query string) string {
	masked := emailPattern.ReplaceAllString(query, emailPlaceholder)
	return phonePattern.ReplaceAllString(masked, phonePlaceholder)
}
