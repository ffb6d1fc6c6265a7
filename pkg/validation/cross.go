package validation

import (
	"strings"

	"mercator-hq/waybill/pkg/record"
)

// ValidateCrossField resolves the rule's fields through rec and evaluates it.
// A failure is reported under rule.Key().
func ValidateCrossField(rule CrossFieldRule, rec record.Lookup) Result {
	res := newResult()
	validateCrossRule(nil, rule, rec, &res)
	res.finalize()
	return res
}

func validateCrossRule(p *pass, rule CrossFieldRule, rec record.Lookup, res *Result) {
	p.enter(rule.Key())
	if rule.Validate == nil {
		return
	}

	values := make(map[record.FieldPath]any, len(rule.Fields)+len(rule.Context))
	for _, f := range rule.Fields {
		values[f] = lookupValue(rec, f)
	}
	for _, f := range rule.Context {
		values[f] = lookupValue(rec, f)
	}

	if !rule.Validate(values) {
		res.add(rule.Key(), rule.Severity, rule.Message)
	}
}

func lookupValue(rec record.Lookup, path record.FieldPath) any {
	if rec == nil {
		return nil
	}
	return rec.Value(path)
}

// WhenFilled wraps check so it only runs once every listed field has a value.
// Until then the rule passes.
func WhenFilled(fields []record.FieldPath, check func(values map[record.FieldPath]any) bool) func(map[record.FieldPath]any) bool {
	return func(values map[record.FieldPath]any) bool {
		for _, f := range fields {
			if record.IsEmpty(values[f]) {
				return true
			}
		}
		return check(values)
	}
}

// DefaultCrossFieldRules returns the compiled-in cross-field rules for a shipment.
func DefaultCrossFieldRules() []CrossFieldRule {
	zips := []record.FieldPath{"origin.zip", "destination.zip"}
	addresses := []record.FieldPath{"origin.address", "destination.address"}
	weightType := []record.FieldPath{"package.weight.value", "package.type"}
	dims := []record.FieldPath{"package.dimensions.length", "package.dimensions.width", "package.dimensions.height"}
	units := []record.FieldPath{"package.weight.unit", "package.dimensions.unit"}

	return []CrossFieldRule{
		{
			Name:   "distinctZip",
			Fields: zips,
			Validate: WhenFilled(zips, func(v map[record.FieldPath]any) bool {
				o, _ := record.AsString(v["origin.zip"])
				d, _ := record.AsString(v["destination.zip"])
				return zip5(o) != zip5(d)
			}),
			Message:  "Origin and destination ZIP codes cannot be the same.",
			Severity: SeverityError,
		},
		{
			Name:   "distinctAddress",
			Fields: addresses,
			Validate: WhenFilled(addresses, func(v map[record.FieldPath]any) bool {
				o, _ := record.AsString(v["origin.address"])
				d, _ := record.AsString(v["destination.address"])
				return normalizeAddress(o) != normalizeAddress(d)
			}),
			Message:  "Origin and destination addresses must be different.",
			Severity: SeverityError,
		},
		{
			Name:    "weightForType",
			Fields:  weightType,
			Context: []record.FieldPath{"package.weight.unit"},
			Validate: WhenFilled(weightType, func(v map[record.FieldPath]any) bool {
				w, ok := record.AsFloat(v["package.weight.value"])
				if !ok {
					return true
				}
				unit, _ := record.AsString(v["package.weight.unit"])
				typ, _ := record.AsString(v["package.type"])
				limit, limited := PackageWeightLimits[strings.ToLower(typ)]
				if !limited {
					return true
				}
				return toPounds(w, unit) <= limit
			}),
			Message:  "Package weight exceeds limits for selected package type.",
			Severity: SeverityError,
		},
		{
			Name:    "lengthPlusGirth",
			Fields:  dims,
			Context: []record.FieldPath{"package.dimensions.unit"},
			Validate: func(v map[record.FieldPath]any) bool {
				sides := make([]float64, 0, 3)
				for _, f := range dims {
					n, ok := record.AsFloat(v[f])
					if !ok || n <= 0 {
						return true
					}
					sides = append(sides, n)
				}
				unit, _ := record.AsString(v["package.dimensions.unit"])
				return lengthPlusGirth(sides, unit) <= MaxLengthPlusGirth
			},
			Message:  "Package length plus girth exceeds carrier maximum.",
			Severity: SeverityError,
		},
		{
			Name:   "consistentUnits",
			Fields: units,
			Validate: WhenFilled(units, func(v map[record.FieldPath]any) bool {
				w, _ := record.AsString(v["package.weight.unit"])
				d, _ := record.AsString(v["package.dimensions.unit"])
				return isMetric(w) == isMetric(d)
			}),
			Message:  "Weight and dimensions use different unit systems.",
			Severity: SeverityWarning,
		},
		{
			// Declared value is what this rule asks for, so only the
			// countries gate it.
			Name:   "internationalDeclaredValue",
			Fields: []record.FieldPath{"origin.country", "destination.country", "package.declaredValue"},
			Validate: func(v map[record.FieldPath]any) bool {
				o, _ := record.AsString(v["origin.country"])
				d, _ := record.AsString(v["destination.country"])
				if isDomestic(o) && isDomestic(d) {
					return true
				}
				dv, ok := record.AsFloat(v["package.declaredValue"])
				return ok && dv > 0
			},
			Message:  "International shipments require a declared value for customs.",
			Severity: SeverityError,
		},
	}
}

// PackageWeightLimits are the maximum weights in pounds per package type.
// Types missing from the table ("custom") have no limit.
var PackageWeightLimits = map[string]float64{
	"envelope": 1,
	"small":    10,
	"medium":   50,
	"large":    150,
	"pallet":   2500,
}

// MaxLengthPlusGirth is the carrier maximum in inches.
const MaxLengthPlusGirth = 165.0

const (
	poundsPerKilogram  = 2.20462
	centimetersPerInch = 2.54
)

func toPounds(w float64, unit string) float64 {
	if strings.EqualFold(unit, "kg") {
		return w * poundsPerKilogram
	}
	return w
}

// lengthPlusGirth uses the longest side as length.
func lengthPlusGirth(sides []float64, unit string) float64 {
	longest, sum := 0.0, 0.0
	for _, s := range sides {
		sum += s
		if s > longest {
			longest = s
		}
	}
	total := longest + 2*(sum-longest)
	if strings.EqualFold(unit, "cm") {
		total /= centimetersPerInch
	}
	return total
}

func isMetric(unit string) bool {
	switch strings.ToLower(unit) {
	case "kg", "cm":
		return true
	}
	return false
}

func isDomestic(country string) bool {
	return country == "" || strings.EqualFold(country, "US")
}

func zip5(z string) string {
	z = strings.TrimSpace(z)
	if len(z) > 5 {
		return z[:5]
	}
	return z
}

func normalizeAddress(a string) string {
	a = strings.ToLower(a)
	a = strings.NewReplacer(".", "", ",", "", "#", "").Replace(a)
	return strings.Join(strings.Fields(a), " ")
}
