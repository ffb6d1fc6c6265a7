package validation

import "mercator-hq/waybill/pkg/record"

// ValidateField evaluates value against the rules schema registers for path.
// A path with no rules is valid. rec is passed through to the rules for
// context and may be nil.
//
// ValidateField does not recover from panicking rules; the Engine does.
func ValidateField(path record.FieldPath, value any, schema Schema, rec record.Lookup) Result {
	res := newResult()
	validateFieldRules(nil, path, value, schema[path], rec, &res)
	res.finalize()
	return res
}

func validateFieldRules(p *pass, path record.FieldPath, value any, rules []Rule, rec record.Lookup, res *Result) {
	for _, rule := range rules {
		p.enter(string(path) + "/" + rule.Name)
		if rule.Validate == nil || rule.Validate(value, rec) {
			continue
		}
		res.add(string(path), rule.Severity, rule.Message)
	}
}
