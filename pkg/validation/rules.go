package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"mercator-hq/waybill/pkg/record"
)

// formats checks single values against validator tags (email, e164, ...).
var formats = validator.New(validator.WithRequiredStructEnabled())

// Format checks apply only to entered values; Required reports missing ones.

// Required fails when the value has not been entered.
func Required(msg string) Rule {
	return Rule{
		Name:     "required",
		Validate: func(v any, _ record.Lookup) bool { return !record.IsEmpty(v) },
		Message:  msg,
		Severity: SeverityError,
	}
}

// MinLength fails when an entered string is shorter than n characters.
func MinLength(n int, msg string) Rule {
	return stringRule("minLength", msg, func(s string) bool {
		return utf8.RuneCountInString(s) >= n
	})
}

// MaxLength fails when an entered string is longer than n characters.
func MaxLength(n int, msg string) Rule {
	return stringRule("maxLength", msg, func(s string) bool {
		return utf8.RuneCountInString(s) <= n
	})
}

// Pattern fails when an entered string does not match re.
func Pattern(re *regexp.Regexp, msg string) Rule {
	return stringRule("pattern", msg, re.MatchString)
}

// Email fails when an entered string is not an email address.
func Email(msg string) Rule {
	return stringRule("email", msg, tagCheck("email"))
}

// Phone fails when an entered string is not a phone number. US numbers may be
// typed with punctuation and without the country code.
func Phone(msg string) Rule {
	return stringRule("phone", msg, func(s string) bool {
		return tagCheck("e164")(normalizePhone(s))
	})
}

// ZIP fails when an entered string is not a US ZIP or ZIP+4 code.
func ZIP(msg string) Rule {
	return stringRule("zip", msg, tagCheck("postcode_iso3166_alpha2=US"))
}

// StateCode fails when an entered string is not two letters.
func StateCode(msg string) Rule {
	return stringRule("stateCode", msg, tagCheck("len=2,alpha"))
}

// Country fails when an entered string is not an ISO 3166-1 alpha-2 code.
func Country(msg string) Rule {
	return stringRule("country", msg, func(s string) bool {
		return tagCheck("iso3166_1_alpha2")(strings.ToUpper(s))
	})
}

// Digits fails when an entered string contains anything but digits.
func Digits(msg string) Rule {
	return stringRule("digits", msg, tagCheck("numeric,excludesall=+-."))
}

// OneOf fails when an entered string is not one of options (case-insensitive).
func OneOf(options []string, msg string) Rule {
	return stringRule("oneOf", msg, func(s string) bool {
		for _, o := range options {
			if strings.EqualFold(s, o) {
				return true
			}
		}
		return false
	})
}

// Positive fails when a number is zero or negative. Non-numbers fail too.
func Positive(msg string) Rule {
	return numberRule("positive", msg, func(n float64) bool { return n > 0 })
}

// NonNegative fails when a number is negative.
func NonNegative(msg string) Rule {
	return numberRule("nonNegative", msg, func(n float64) bool { return n >= 0 })
}

// Max fails when a number exceeds limit.
func Max(limit float64, msg string) Rule {
	return numberRule("max", msg, func(n float64) bool { return n <= limit })
}

// RequiresField fails when the value is entered but dep is not.
func RequiresField(dep record.FieldPath, msg string) Rule {
	return Rule{
		Name: "requires:" + string(dep),
		Validate: func(v any, rec record.Lookup) bool {
			if record.IsEmpty(v) || rec == nil {
				return true
			}
			return !record.IsEmpty(rec.Value(dep))
		},
		Message:      msg,
		Severity:     SeverityError,
		Dependencies: []record.FieldPath{dep},
	}
}

// Warn downgrades r to a warning.
func Warn(r Rule) Rule {
	r.Severity = SeverityWarning
	return r
}

func stringRule(name, msg string, check func(string) bool) Rule {
	return Rule{
		Name: name,
		Validate: func(v any, _ record.Lookup) bool {
			if record.IsEmpty(v) {
				return true
			}
			s, ok := record.AsString(v)
			return ok && check(s)
		},
		Message:  msg,
		Severity: SeverityError,
	}
}

func numberRule(name, msg string, check func(float64) bool) Rule {
	return Rule{
		Name: name,
		Validate: func(v any, _ record.Lookup) bool {
			if v == nil {
				return true
			}
			n, ok := record.AsFloat(v)
			return ok && check(n)
		},
		Message:  msg,
		Severity: SeverityError,
	}
}

func tagCheck(tag string) func(string) bool {
	return func(s string) bool {
		return formats.Var(s, tag) == nil
	}
}

func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r == '+' && b.Len() == 0) || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "+") {
		return digits
	}
	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits
	}
	return "+" + digits
}
