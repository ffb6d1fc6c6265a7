package record

import (
	"errors"
	"strings"
	"testing"
)

func sampleShipment() *Shipment {
	return &Shipment{
		Origin: Location{
			Address: "100 Main St",
			City:    "Springfield",
			State:   "IL",
			Zip:     "62701",
			ContactInfo: ContactInfo{
				Name:  "Ada Lovelace",
				Phone: "+12175550100",
				Email: "ada@example.com",
			},
		},
		Package: Package{
			Weight:          Weight{Value: 4.5, Unit: "lb"},
			SpecialHandling: []string{"fragile"},
		},
	}
}

func TestResolve(t *testing.T) {
	s := sampleShipment()

	tests := []struct {
		name string
		path FieldPath
		want any
	}{
		{"top-level string", "origin.city", "Springfield"},
		{"nested contact", "origin.contactInfo.email", "ada@example.com"},
		{"number", "package.weight.value", 4.5},
		{"unit", "package.weight.unit", "lb"},
		{"empty string", "destination.zip", ""},
		{"case-insensitive field name", "origin.ContactInfo.Name", "Ada Lovelace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(s, tt.path)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolve_UnknownKeyIsPathError(t *testing.T) {
	_, err := Resolve(sampleShipment(), "origin.contactInfo.emial")
	if err == nil {
		t.Fatal("expected error for misspelled key")
	}
	if !errors.Is(err, ErrPathNotFound) {
		t.Errorf("expected ErrPathNotFound, got %v", err)
	}

	var pe *PathError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PathError, got %T", err)
	}
	if pe.Segment != "emial" {
		t.Errorf("Segment = %q, want emial", pe.Segment)
	}
	if !strings.Contains(pe.Suggestion, "email") {
		t.Errorf("Suggestion = %q, want mention of email", pe.Suggestion)
	}
}

func TestResolve_MissingIntermediateIsUndefined(t *testing.T) {
	doc := map[string]any{
		"origin": map[string]any{
			"zip": "12345",
		},
	}

	got, err := Resolve(doc, "origin.contactInfo.email")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing intermediate, got %v", got)
	}

	got, err = Resolve(doc, "origin.zip")
	if err != nil || got != "12345" {
		t.Errorf("Resolve(origin.zip) = %v, %v", got, err)
	}

	var nilShipment *Shipment
	got, err = Resolve(nilShipment, "origin.zip")
	if err != nil || got != nil {
		t.Errorf("nil root should resolve to nil, got %v, %v", got, err)
	}
}

func TestValidatePath(t *testing.T) {
	if err := ValidatePath("package.dimensions.height"); err != nil {
		t.Errorf("valid leaf rejected: %v", err)
	}
	if err := ValidatePath("package.specialHandling"); err != nil {
		t.Errorf("slice leaf rejected: %v", err)
	}
	if err := ValidatePath("origin.contactInfo"); !errors.Is(err, ErrPathNotFound) {
		t.Errorf("interior node should be rejected, got %v", err)
	}
	if err := ValidatePath("pakage.type"); !errors.Is(err, ErrPathNotFound) {
		t.Errorf("typo should be rejected, got %v", err)
	}
}

func TestKnownPaths(t *testing.T) {
	paths := KnownPaths()
	if len(paths) == 0 {
		t.Fatal("expected known paths")
	}
	if paths[0] != "origin.address" {
		t.Errorf("first path = %q, want origin.address", paths[0])
	}

	seen := make(map[FieldPath]bool)
	for _, p := range paths {
		if seen[p] {
			t.Errorf("duplicate path %q", p)
		}
		seen[p] = true
	}
	for _, want := range []FieldPath{"destination.contactInfo.extension", "package.declaredValue", "package.weight.unit"} {
		if !seen[want] {
			t.Errorf("missing path %q", want)
		}
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("package.weight.value", "12.5")
	if err != nil || v != 12.5 {
		t.Errorf("ParseValue(weight) = %v, %v", v, err)
	}

	v, err = ParseValue("origin.zip", "02134")
	if err != nil || v != "02134" {
		t.Errorf("ParseValue(zip) = %v, %v", v, err)
	}

	v, err = ParseValue("package.specialHandling", "hazmat, fragile")
	if err != nil {
		t.Fatalf("ParseValue(specialHandling) error: %v", err)
	}
	if got := v.([]string); len(got) != 2 || got[1] != "fragile" {
		t.Errorf("ParseValue(specialHandling) = %v", got)
	}

	if _, err := ParseValue("package.weight.value", "heavy"); err == nil {
		t.Error("expected error for non-numeric weight")
	}
	if _, err := ParseValue("package.wieght.value", "1"); !errors.Is(err, ErrPathNotFound) {
		t.Errorf("expected ErrPathNotFound, got %v", err)
	}
}

func TestOverlay(t *testing.T) {
	s := sampleShipment()
	l := Overlay(s, "origin.zip", "99999")

	if got := l.Value("origin.zip"); got != "99999" {
		t.Errorf("overlay value = %v, want 99999", got)
	}
	if got := l.Value("origin.city"); got != "Springfield" {
		t.Errorf("base value = %v, want Springfield", got)
	}
	if s.Origin.Zip != "62701" {
		t.Error("overlay must not mutate the base record")
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, true},
		{"", true},
		{"   ", true},
		{"x", false},
		{0.0, false},
		{[]string{}, true},
		{[]string{"a"}, false},
		{map[string]any{}, true},
	}
	for _, tt := range tests {
		if got := IsEmpty(tt.v); got != tt.want {
			t.Errorf("IsEmpty(%#v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
