package validation

import (
	"sort"
	"strings"

	"mercator-hq/waybill/pkg/record"
)

// Severity classifies a rule failure.
type Severity string

const (
	// SeverityError blocks IsValid.
	SeverityError Severity = "error"
	// SeverityWarning is advisory and never affects IsValid.
	SeverityWarning Severity = "warning"
)

// SystemFaultKey is the result key used when a rule panics.
const SystemFaultKey = "validation"

// SystemFaultMessage is reported under SystemFaultKey.
const SystemFaultMessage = "Validation system error"

// Rule is a single check on one field. Validate must be deterministic and free
// of side effects; rec gives read-only access to the rest of the record and may
// be nil.
type Rule struct {
	// Name identifies the rule in logs and metrics.
	Name string

	// Validate reports whether value passes.
	Validate func(value any, rec record.Lookup) bool

	// Message is reported when Validate returns false.
	Message string

	// Severity defaults to SeverityError when empty.
	Severity Severity

	// Dependencies lists other fields Validate reads from rec. Editing one of
	// them re-runs this field's rules during incremental validation.
	Dependencies []record.FieldPath
}

// Schema maps field paths to their ordered rules.
type Schema map[record.FieldPath][]Rule

// Paths returns the schema's paths in sorted order.
func (s Schema) Paths() []record.FieldPath {
	paths := make([]record.FieldPath, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

// CrossFieldRule is a constraint over several fields.
type CrossFieldRule struct {
	// Name identifies the rule in logs and metrics.
	Name string

	// Fields are the participating fields. They form the result key and
	// decide which edits re-run the rule.
	Fields []record.FieldPath

	// Context lists extra fields passed to Validate (units, for example)
	// that are not part of the key.
	Context []record.FieldPath

	// Validate receives the resolved value of every Fields and Context path.
	// Values not yet entered are nil.
	Validate func(values map[record.FieldPath]any) bool

	Message  string
	Severity Severity
}

// Key returns the fields joined with "_", e.g. "origin.zip_destination.zip".
func (r CrossFieldRule) Key() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, "_")
}

// Involves reports whether path is one of the rule's Fields.
func (r CrossFieldRule) Involves(path record.FieldPath) bool {
	for _, f := range r.Fields {
		if f == path {
			return true
		}
	}
	return false
}

// Result is the outcome of a validation pass.
type Result struct {
	// IsValid is true exactly when Errors is empty.
	IsValid bool `json:"isValid"`

	Errors   map[string]string `json:"errors"`
	Warnings map[string]string `json:"warnings"`

	// FieldValidation reports, per validated field path, whether that field
	// has no error of its own.
	FieldValidation map[record.FieldPath]bool `json:"fieldValidation,omitempty"`
}

func newResult() Result {
	return Result{
		Errors:   make(map[string]string),
		Warnings: make(map[string]string),
	}
}

// add stores msg under key, replacing any earlier message of the same severity.
func (r *Result) add(key string, sev Severity, msg string) {
	if sev == SeverityWarning {
		r.Warnings[key] = msg
		return
	}
	r.Errors[key] = msg
}

// merge copies other's findings into r. Keys already present in r are kept.
func (r *Result) merge(other Result) {
	for k, v := range other.Errors {
		if _, ok := r.Errors[k]; !ok {
			r.Errors[k] = v
		}
	}
	for k, v := range other.Warnings {
		if _, ok := r.Warnings[k]; !ok {
			r.Warnings[k] = v
		}
	}
}

func (r *Result) finalize() {
	r.IsValid = len(r.Errors) == 0
}

// ErrorFor returns the error reported under key, if any.
func (r Result) ErrorFor(key string) (string, bool) {
	msg, ok := r.Errors[key]
	return msg, ok
}

// WarningFor returns the warning reported under key, if any.
func (r Result) WarningFor(key string) (string, bool) {
	msg, ok := r.Warnings[key]
	return msg, ok
}

func systemFault() Result {
	res := newResult()
	res.Errors[SystemFaultKey] = SystemFaultMessage
	res.finalize()
	return res
}

// pass remembers the rule currently executing so a panic can be attributed.
type pass struct {
	current string
}

func (p *pass) enter(name string) {
	if p != nil {
		p.current = name
	}
}
