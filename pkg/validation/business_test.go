package validation

import (
	"strings"
	"testing"

	"mercator-hq/waybill/pkg/config"
)

func TestBusinessRules_ServiceArea(t *testing.T) {
	b := DefaultBusinessRules()

	s := validShipment()
	s.Origin.Zip = "09012"
	s.Destination.Zip = "96601"
	res := b.Validate(s)
	msg, ok := res.ErrorFor(KeyServiceArea)
	if !ok {
		t.Fatalf("expected serviceArea error, got %v", res.Errors)
	}
	if !strings.Contains(msg, "origin and destination") {
		t.Errorf("message = %q", msg)
	}

	for zip, want := range map[string]bool{"09012": true, "34001": true, "96201-1234": true, "62701": false, "09": false} {
		if got := b.IsRestrictedZIP(zip); got != want {
			t.Errorf("IsRestrictedZIP(%q) = %v, want %v", zip, got, want)
		}
	}
}

func TestBusinessRules_ValuePerPound(t *testing.T) {
	b := DefaultBusinessRules()
	s := validShipment()
	s.Package.DeclaredValue = 2400
	s.Package.Weight.Value = 2

	res := b.Validate(s)
	msg, ok := res.WarningFor(KeyValuePerPound)
	if !ok {
		t.Fatalf("expected valuePerPound warning, got %v", res.Warnings)
	}
	if !strings.Contains(msg, "$1200.00") {
		t.Errorf("message = %q", msg)
	}
	if !res.IsValid {
		t.Error("valuePerPound is only a warning")
	}

	s.Package.Weight.Value = 3
	if _, ok := b.Validate(s).WarningFor(KeyValuePerPound); ok {
		t.Error("$800/lb should not warn")
	}
}

func TestBusinessRules_Hazmat(t *testing.T) {
	b := DefaultBusinessRules()
	s := validShipment()
	s.Package.SpecialHandling = []string{"hazmat"}

	s.Package.Contents = "Sunglasses"
	if _, ok := b.Validate(s).WarningFor(KeyHazmat); !ok {
		t.Error("expected hazmat warning for sunglasses")
	}

	for _, contents := range []string{"Lithium batteries", "UN 3480 cells", "Flammable paint"} {
		s.Package.Contents = contents
		if _, ok := b.Validate(s).WarningFor(KeyHazmat); ok {
			t.Errorf("%q names the hazard and should not warn", contents)
		}
	}
}

func TestBusinessRules_Insurance(t *testing.T) {
	b := NewBusinessRules(config.ValidationConfig{InsuranceThreshold: 1000})
	s := validShipment()
	s.Package.DeclaredValue = 1500
	s.Package.Weight.Value = 10

	if _, ok := b.Validate(s).WarningFor(KeyInsurance); !ok {
		t.Error("expected insurance warning above threshold")
	}

	s.Package.SpecialHandling = []string{"Signature-Required"}
	if _, ok := b.Validate(s).WarningFor(KeyInsurance); ok {
		t.Error("premium handling should satisfy the insurance recommendation")
	}
}

func TestBusinessRules_NeverOverrideEarlierFindings(t *testing.T) {
	res := newResult()
	res.add(KeyHazmat, SeverityWarning, "earlier")
	res.merge(Result{Errors: map[string]string{}, Warnings: map[string]string{KeyHazmat: "later"}})
	if res.Warnings[KeyHazmat] != "earlier" {
		t.Errorf("merge replaced an existing finding: %q", res.Warnings[KeyHazmat])
	}
}
