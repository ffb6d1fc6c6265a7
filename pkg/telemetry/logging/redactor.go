package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"mercator-hq/waybill/pkg/config"
)

// Redactor redacts contact details from log attributes.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternEmail = "email"
	PatternPhone = "phone"
)

// NewRedactor creates a Redactor with the built-in patterns plus any custom ones.
// Custom patterns that fail to compile are skipped; config validation rejects
// empty ones before they get here.
func NewRedactor(customPatterns []config.RedactPattern) *Redactor {
	r := &Redactor{}

	r.patterns = append(r.patterns,
		&redactPattern{
			name:        PatternEmail,
			regex:       regexp.MustCompile(`[a-zA-Z0-9._%+-]+@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
			replacement: "***@$1",
		},
		&redactPattern{
			name:        PatternPhone,
			regex:       regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?(\d{4})\b`),
			replacement: "***-***-$1",
		},
	)

	for _, p := range customPatterns {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: p.Replacement,
		})
	}

	return r
}

// RedactString redacts PII from a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook. Attributes whose key
// names a contact field are masked entirely; other string values are scanned
// for emails and phone numbers.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, "[REDACTED]")
	}
	return slog.String(a.Key, r.RedactString(a.Value.String()))
}

// isSensitiveKey checks if an attribute key names contact data.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	for _, sensitive := range []string{"email", "phone", "contact_name", "extension"} {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}
