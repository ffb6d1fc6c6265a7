package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"mercator-hq/waybill/pkg/config"
	"mercator-hq/waybill/pkg/record"
)

// Business rule keys.
const (
	KeyServiceArea   = "serviceArea"
	KeyValuePerPound = "valuePerPound"
	KeyHazmat        = "hazmat"
	KeyInsurance     = "insurance"
)

// DefaultRestrictedZIPPrefixes are the military APO/FPO prefixes that ground
// service does not reach.
var DefaultRestrictedZIPPrefixes = []string{
	"090", "091", "092", "093", "094", "095", "096", "097", "098",
	"340",
	"962", "963", "964", "965", "966",
}

// BusinessRules holds the lookup tables and thresholds for domain policy checks.
// A BusinessRules value is immutable once built.
type BusinessRules struct {
	restricted         map[string]bool
	valuePerPound      decimal.Decimal
	insuranceThreshold decimal.Decimal
	premiumHandling    []string
	hazmatKeywords     []string
}

// NewBusinessRules builds the rules from configuration. Configured ZIP prefixes
// extend DefaultRestrictedZIPPrefixes; zero thresholds fall back to defaults.
func NewBusinessRules(cfg config.ValidationConfig) *BusinessRules {
	b := &BusinessRules{
		restricted:         make(map[string]bool),
		valuePerPound:      decimal.NewFromFloat(orDefault(cfg.ValuePerPoundThreshold, config.DefaultValuePerPoundThreshold)),
		insuranceThreshold: decimal.NewFromFloat(orDefault(cfg.InsuranceThreshold, config.DefaultInsuranceThreshold)),
		premiumHandling:    cfg.PremiumHandling,
		hazmatKeywords:     cfg.HazmatKeywords,
	}
	for _, p := range DefaultRestrictedZIPPrefixes {
		b.restricted[p] = true
	}
	for _, p := range cfg.RestrictedZIPPrefixes {
		b.restricted[strings.TrimSpace(p)] = true
	}
	if len(b.premiumHandling) == 0 {
		b.premiumHandling = config.DefaultPremiumHandling
	}
	if len(b.hazmatKeywords) == 0 {
		b.hazmatKeywords = config.DefaultHazmatKeywords
	}
	return b
}

// DefaultBusinessRules returns the rules with every default applied.
func DefaultBusinessRules() *BusinessRules {
	return NewBusinessRules(config.ValidationConfig{})
}

// Validate runs every business check against rec.
func (b *BusinessRules) Validate(rec record.Lookup) Result {
	res := newResult()
	b.validate(nil, rec, &res)
	res.finalize()
	return res
}

func (b *BusinessRules) validate(p *pass, rec record.Lookup, res *Result) {
	if b == nil || rec == nil {
		return
	}
	for _, c := range []struct {
		key   string
		check func(record.Lookup, *Result)
	}{
		{KeyServiceArea, b.checkServiceArea},
		{KeyValuePerPound, b.checkValuePerPound},
		{KeyHazmat, b.checkHazmat},
		{KeyInsurance, b.checkInsurance},
	} {
		p.enter(c.key)
		c.check(rec, res)
	}
}

// IsRestrictedZIP reports whether zip falls in a restricted service area.
func (b *BusinessRules) IsRestrictedZIP(zip string) bool {
	zip = strings.TrimSpace(zip)
	if len(zip) < 3 {
		return false
	}
	return b.restricted[zip[:3]]
}

func (b *BusinessRules) checkServiceArea(rec record.Lookup, res *Result) {
	origin, _ := record.AsString(rec.Value("origin.zip"))
	dest, _ := record.AsString(rec.Value("destination.zip"))

	var ends []string
	if b.IsRestrictedZIP(origin) {
		ends = append(ends, "origin")
	}
	if b.IsRestrictedZIP(dest) {
		ends = append(ends, "destination")
	}
	if len(ends) == 0 {
		return
	}
	res.add(KeyServiceArea, SeverityError,
		fmt.Sprintf("Service is not available for the %s ZIP code.", strings.Join(ends, " and ")))
}

func (b *BusinessRules) checkValuePerPound(rec record.Lookup, res *Result) {
	value, ok := record.AsFloat(rec.Value("package.declaredValue"))
	if !ok || value <= 0 {
		return
	}
	weight, ok := record.AsFloat(rec.Value("package.weight.value"))
	if !ok || weight <= 0 {
		return
	}
	unit, _ := record.AsString(rec.Value("package.weight.unit"))

	perPound := decimal.NewFromFloat(value).Div(decimal.NewFromFloat(toPounds(weight, unit)))
	if perPound.GreaterThan(b.valuePerPound) {
		res.add(KeyValuePerPound, SeverityWarning,
			fmt.Sprintf("Declared value of $%s per lb is unusually high. Please verify the declared value.", perPound.StringFixed(2)))
	}
}

func (b *BusinessRules) checkHazmat(rec record.Lookup, res *Result) {
	if !containsFold(record.AsStrings(rec.Value("package.specialHandling")), "hazmat") {
		return
	}
	contents, _ := record.AsString(rec.Value("package.contents"))
	if mentionsAny(contents, b.hazmatKeywords) {
		return
	}
	res.add(KeyHazmat, SeverityWarning, "Hazmat handling is selected but the contents description does not identify hazardous materials.")
}

func (b *BusinessRules) checkInsurance(rec record.Lookup, res *Result) {
	value, ok := record.AsFloat(rec.Value("package.declaredValue"))
	if !ok || !decimal.NewFromFloat(value).GreaterThan(b.insuranceThreshold) {
		return
	}
	handling := record.AsStrings(rec.Value("package.specialHandling"))
	for _, h := range b.premiumHandling {
		if containsFold(handling, h) {
			return
		}
	}
	res.add(KeyInsurance, SeverityWarning,
		fmt.Sprintf("Consider adding insurance or signature confirmation for shipments valued over $%s.", b.insuranceThreshold.StringFixed(0)))
}

// mentionsAny matches whole words, so "un" matches "UN 3480" but not "sunglasses".
func mentionsAny(text string, keywords []string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	padded := " " + strings.Join(words, " ") + " "
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw == "" {
			continue
		}
		if strings.Contains(padded, " "+kw+" ") {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
