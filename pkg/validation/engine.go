package validation

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"mercator-hq/waybill/pkg/record"
	"mercator-hq/waybill/pkg/telemetry/metrics"
)

// Engine runs field, cross-field and business validation over shipment records.
// It is safe for concurrent use; the schema and cross-field rules are fixed at
// construction and business rules can be replaced with SetBusinessRules.
type Engine struct {
	schema     Schema
	crossRules []CrossFieldRule
	business   atomic.Pointer[BusinessRules]

	// dependents maps a field to the schema paths whose rules read it.
	dependents map[record.FieldPath][]record.FieldPath

	logger  *slog.Logger
	metrics *metrics.Collector
}

// Option configures an Engine.
type Option func(*Engine)

// WithSchema replaces the default field schema.
func WithSchema(s Schema) Option {
	return func(e *Engine) { e.schema = s }
}

// WithCrossFieldRules replaces the default cross-field rules.
func WithCrossFieldRules(rules []CrossFieldRule) Option {
	return func(e *Engine) { e.crossRules = rules }
}

// WithBusinessRules sets the business rules. Passing nil disables them.
func WithBusinessRules(b *BusinessRules) Option {
	return func(e *Engine) { e.business.Store(b) }
}

// WithLogger sets the logger used to report panicking rules.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// NewEngine creates an engine with the default schema, cross-field rules and
// business rules unless overridden by opts. Every field path the rules name
// must exist on record.Shipment; a typo fails construction with a suggestion.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		schema:     DefaultSchema(),
		crossRules: DefaultCrossFieldRules(),
	}
	e.business.Store(DefaultBusinessRules())
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default().With("component", "validation")
	}

	if err := e.checkPaths(); err != nil {
		return nil, err
	}

	e.dependents = make(map[record.FieldPath][]record.FieldPath)
	for _, path := range e.schema.Paths() {
		seen := make(map[record.FieldPath]bool)
		for _, rule := range e.schema[path] {
			for _, dep := range rule.Dependencies {
				if !seen[dep] {
					seen[dep] = true
					e.dependents[dep] = append(e.dependents[dep], path)
				}
			}
		}
	}
	return e, nil
}

func (e *Engine) checkPaths() error {
	for _, path := range e.schema.Paths() {
		if err := record.ValidatePath(path); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
		for _, rule := range e.schema[path] {
			for _, dep := range rule.Dependencies {
				if err := record.ValidatePath(dep); err != nil {
					return fmt.Errorf("schema rule %s/%s: %w", path, rule.Name, err)
				}
			}
		}
	}
	for _, rule := range e.crossRules {
		if len(rule.Fields) == 0 {
			return fmt.Errorf("cross-field rule %q has no fields", rule.Name)
		}
		for _, f := range append(append([]record.FieldPath(nil), rule.Fields...), rule.Context...) {
			if err := record.ValidatePath(f); err != nil {
				return fmt.Errorf("cross-field rule %q: %w", rule.Name, err)
			}
		}
	}
	return nil
}

// SetBusinessRules swaps the business rules used by subsequent passes.
func (e *Engine) SetBusinessRules(b *BusinessRules) {
	e.business.Store(b)
}

// Schema returns the engine's field schema.
func (e *Engine) Schema() Schema {
	return e.schema
}

// CrossFieldRules returns the engine's cross-field rules.
func (e *Engine) CrossFieldRules() []CrossFieldRule {
	return e.crossRules
}

// ValidateAll validates every schema field, then every cross-field rule, then
// the business rules, and merges the findings.
func (e *Engine) ValidateAll(rec record.Lookup) (res Result) {
	start := time.Now()
	p := &pass{}
	defer e.recordPass("all", start, &res)
	defer e.recoverPass("all", p, &res)

	res = newResult()
	res.FieldValidation = make(map[record.FieldPath]bool, len(e.schema))

	for _, path := range e.schema.Paths() {
		validateFieldRules(p, path, lookupValue(rec, path), e.schema[path], rec, &res)
		_, failed := res.Errors[string(path)]
		res.FieldValidation[path] = !failed
	}

	cross := newResult()
	for _, rule := range e.crossRules {
		validateCrossRule(p, rule, rec, &cross)
	}
	res.merge(cross)

	business := newResult()
	e.business.Load().validate(p, rec, &business)
	res.merge(business)

	res.finalize()
	return res
}

// ValidateField validates a single edit: value is the candidate for path and
// rec supplies the rest of the record. Besides path's own rules it re-runs the
// cross-field rules that involve path and the rules of fields that depend on
// path, all reading value in place of rec's current one. Business rules are
// left to ValidateAll.
func (e *Engine) ValidateField(path record.FieldPath, value any, rec record.Lookup) (res Result) {
	start := time.Now()
	p := &pass{}
	defer e.recordPass("field", start, &res)
	defer e.recoverPass("field", p, &res)

	res = newResult()
	candidate := record.Overlay(rec, path, value)

	validateFieldRules(p, path, value, e.schema[path], candidate, &res)
	_, failed := res.Errors[string(path)]
	res.FieldValidation = map[record.FieldPath]bool{path: !failed}

	for _, dep := range e.dependents[path] {
		if dep == path {
			continue
		}
		validateFieldRules(p, dep, candidate.Value(dep), e.schema[dep], candidate, &res)
	}

	cross := newResult()
	for _, rule := range e.crossRules {
		if rule.Involves(path) {
			validateCrossRule(p, rule, candidate, &cross)
		}
	}
	res.merge(cross)

	res.finalize()
	return res
}

// recoverPass is the single panic boundary of a pass. It replaces whatever the
// pass had collected with one system fault.
func (e *Engine) recoverPass(kind string, p *pass, res *Result) {
	r := recover()
	if r == nil {
		return
	}
	e.logger.Error("validation rule panicked",
		"kind", kind,
		"rule", p.current,
		"panic", fmt.Sprint(r),
		"stack", string(debug.Stack()),
	)
	e.metrics.RecordValidationFault(p.current)
	*res = systemFault()
}

func (e *Engine) recordPass(kind string, start time.Time, res *Result) {
	outcome := "valid"
	switch {
	case res.Errors[SystemFaultKey] == SystemFaultMessage:
		outcome = "fault"
	case !res.IsValid:
		outcome = "invalid"
	}
	e.metrics.RecordValidation(kind, outcome, time.Since(start))
}
