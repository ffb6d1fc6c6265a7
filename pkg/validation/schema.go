package validation

import (
	"mercator-hq/waybill/pkg/record"
)

// PackageTypes lists the accepted package.type values.
var PackageTypes = []string{"envelope", "small", "medium", "large", "pallet", "custom"}

// DefaultSchema returns the compiled-in field rules for a shipment.
func DefaultSchema() Schema {
	s := Schema{}
	addLocation(s, "origin", "Origin", true)
	addLocation(s, "destination", "Destination", false)

	s["package.weight.value"] = []Rule{
		Warn(Max(150, "Packages over 150 lb may require freight service.")),
		Positive("Package weight must be greater than 0."),
		Max(2500, "Package weight cannot exceed 2500 lb."),
	}
	s["package.weight.unit"] = []Rule{
		OneOf([]string{"lb", "kg"}, "Weight unit must be lb or kg."),
	}
	for _, dim := range []string{"length", "width", "height"} {
		s[record.FieldPath("package.dimensions."+dim)] = []Rule{
			Positive("Package " + dim + " must be greater than 0."),
			Max(120, "Package "+dim+" cannot exceed 120."),
		}
	}
	s["package.dimensions.unit"] = []Rule{
		OneOf([]string{"in", "cm"}, "Dimension unit must be in or cm."),
	}
	s["package.declaredValue"] = []Rule{
		NonNegative("Declared value cannot be negative."),
		Max(100000, "Declared value cannot exceed $100,000."),
	}
	s["package.contents"] = []Rule{
		Required("Package contents description is required."),
		MinLength(3, "Contents description must be at least 3 characters."),
	}
	s["package.type"] = []Rule{
		Required("Package type is required."),
		OneOf(PackageTypes, "Select a valid package type."),
	}
	return s
}

func addLocation(s Schema, prefix, label string, emailRequired bool) {
	p := func(leaf string) record.FieldPath { return record.FieldPath(prefix + "." + leaf) }

	s[p("address")] = []Rule{
		Required(label + " address is required."),
		MaxLength(100, label+" address cannot exceed 100 characters."),
	}
	s[p("city")] = []Rule{
		Required(label + " city is required."),
	}
	s[p("state")] = []Rule{
		Required(label + " state is required."),
		StateCode("Use the 2-letter state code."),
	}
	s[p("zip")] = []Rule{
		Required(label + " ZIP code is required."),
		ZIP("Enter a valid ZIP code (12345 or 12345-6789)."),
	}
	s[p("country")] = []Rule{
		Country("Use the 2-letter country code."),
	}
	s[p("contactInfo.name")] = []Rule{
		Required("Contact name is required."),
		MinLength(2, "Contact name must be at least 2 characters."),
	}
	s[p("contactInfo.phone")] = []Rule{
		Required("Contact phone is required."),
		Phone("Enter a valid phone number."),
	}

	email := []Rule{Email("Enter a valid email address.")}
	if emailRequired {
		email = append([]Rule{Required("Contact email is required.")}, email...)
	}
	s[p("contactInfo.email")] = email

	s[p("contactInfo.extension")] = []Rule{
		Warn(Digits("Extension should contain digits only.")),
		Warn(RequiresField(p("contactInfo.phone"), "Extension has no phone number to attach to.")),
	}
}
