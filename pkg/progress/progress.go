package progress

import (
	"strings"

	"mercator-hq/waybill/pkg/record"
)

// Status buckets a completion percentage.
type Status string

const (
	StatusEmpty          Status = "empty"
	StatusStarted        Status = "started"
	StatusNearlyComplete Status = "nearly-complete"
	StatusComplete       Status = "complete"
)

// NearlyCompleteThreshold is the percentage at which a form counts as nearly complete.
const NearlyCompleteThreshold = 80

// Step names a wizard step that groups required fields.
type Step string

const (
	StepOrigin      Step = "origin"
	StepDestination Step = "destination"
	StepPackage     Step = "package"
)

// Steps lists the wizard steps in order.
var Steps = []Step{StepOrigin, StepDestination, StepPackage}

// DefaultRequiredFields is the ordered list of fields a user must fill to
// proceed to booking.
var DefaultRequiredFields = []record.FieldPath{
	"origin.address",
	"origin.city",
	"origin.state",
	"origin.zip",
	"origin.contactInfo.name",
	"origin.contactInfo.phone",
	"destination.address",
	"destination.city",
	"destination.state",
	"destination.zip",
	"destination.contactInfo.name",
	"destination.contactInfo.phone",
	"package.weight.value",
	"package.dimensions.length",
	"package.dimensions.width",
	"package.dimensions.height",
	"package.contents",
	"package.type",
}

// numericFields complete only when they hold a positive number.
var numericFields = map[record.FieldPath]bool{
	"package.weight.value":      true,
	"package.dimensions.length": true,
	"package.dimensions.width":  true,
	"package.dimensions.height": true,
	"package.declaredValue":     true,
}

// FormProgress summarizes completion of the required fields.
type FormProgress struct {
	Percentage             int                   `json:"percentage"`
	CompletedFields        int                   `json:"completedFields"`
	TotalFields            int                   `json:"totalFields"`
	RequiredFieldsComplete bool                  `json:"requiredFieldsComplete"`
	NextIncompleteField    *record.FieldPath     `json:"nextIncompleteField"`
	CompletionStatus       Status                `json:"completionStatus"`
	Steps                  map[Step]StepProgress `json:"steps,omitempty"`
}

// StepProgress is the completion of the required fields within one step.
type StepProgress struct {
	CompletedFields int  `json:"completedFields"`
	TotalFields     int  `json:"totalFields"`
	Complete        bool `json:"complete"`
}

// Tracker computes progress against an ordered required-field list.
type Tracker struct {
	required []record.FieldPath
}

// NewTracker creates a tracker over required. With no fields it uses
// DefaultRequiredFields.
func NewTracker(required ...record.FieldPath) *Tracker {
	if len(required) == 0 {
		required = DefaultRequiredFields
	}
	return &Tracker{required: append([]record.FieldPath(nil), required...)}
}

// RequiredFields returns the tracker's required fields in order.
func (t *Tracker) RequiredFields() []record.FieldPath {
	return append([]record.FieldPath(nil), t.required...)
}

// Calculate computes the progress of rec.
func (t *Tracker) Calculate(rec record.Lookup) FormProgress {
	p := FormProgress{
		TotalFields: len(t.required),
		Steps:       make(map[Step]StepProgress),
	}

	for _, path := range t.required {
		complete := IsFieldComplete(path, value(rec, path))

		step := stepOf(path)
		sp := p.Steps[step]
		sp.TotalFields++
		if complete {
			sp.CompletedFields++
			p.CompletedFields++
		} else if p.NextIncompleteField == nil {
			next := path
			p.NextIncompleteField = &next
		}
		p.Steps[step] = sp
	}

	for step, sp := range p.Steps {
		sp.Complete = sp.CompletedFields == sp.TotalFields
		p.Steps[step] = sp
	}

	if p.TotalFields > 0 {
		p.Percentage = p.CompletedFields * 100 / p.TotalFields
	} else {
		p.Percentage = 100
	}
	p.RequiredFieldsComplete = p.CompletedFields == p.TotalFields
	p.CompletionStatus = StatusFor(p.Percentage)
	return p
}

// NextIncompleteField returns the first required field, in order, that is not
// complete. ok is false when every required field is complete.
func (t *Tracker) NextIncompleteField(rec record.Lookup) (path record.FieldPath, ok bool) {
	for _, path := range t.required {
		if !IsFieldComplete(path, value(rec, path)) {
			return path, true
		}
	}
	return "", false
}

// CanAdvance reports whether every required field of step is complete.
func (t *Tracker) CanAdvance(rec record.Lookup, step Step) bool {
	for _, path := range t.required {
		if stepOf(path) == step && !IsFieldComplete(path, value(rec, path)) {
			return false
		}
	}
	return true
}

// IsFieldComplete reports whether value counts as filled in for path. Numeric
// fields need a number greater than zero, strings need non-blank text, and
// anything else must be non-nil and non-empty.
func IsFieldComplete(path record.FieldPath, v any) bool {
	if numericFields[path] {
		n, ok := record.AsFloat(v)
		return ok && n > 0
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return !record.IsEmpty(v)
}

// StatusFor maps a percentage to its completion status.
func StatusFor(percentage int) Status {
	switch {
	case percentage <= 0:
		return StatusEmpty
	case percentage >= 100:
		return StatusComplete
	case percentage >= NearlyCompleteThreshold:
		return StatusNearlyComplete
	default:
		return StatusStarted
	}
}

func stepOf(path record.FieldPath) Step {
	head, _, _ := strings.Cut(string(path), ".")
	return Step(head)
}

func value(rec record.Lookup, path record.FieldPath) any {
	if rec == nil {
		return nil
	}
	return rec.Value(path)
}
