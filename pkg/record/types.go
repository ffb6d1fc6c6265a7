package record

// Shipment is the nested record being booked: where it ships from, where it ships
// to, and what is being shipped.
type Shipment struct {
	// Origin is the pickup location.
	Origin Location `json:"origin" yaml:"origin"`

	// Destination is the delivery location.
	Destination Location `json:"destination" yaml:"destination"`

	// Package describes the physical and financial attributes of the parcel.
	Package Package `json:"package" yaml:"package"`
}

// Location is an address together with the person to contact there.
type Location struct {
	Address string `json:"address" yaml:"address"`
	City    string `json:"city" yaml:"city"`
	State   string `json:"state" yaml:"state"`
	Zip     string `json:"zip" yaml:"zip"`

	// Country is an ISO 3166-1 alpha-2 code. Empty means domestic (US).
	Country string `json:"country,omitempty" yaml:"country,omitempty"`

	// LocationType is "residential" or "commercial".
	LocationType string `json:"locationType,omitempty" yaml:"locationType,omitempty"`

	ContactInfo ContactInfo `json:"contactInfo" yaml:"contactInfo"`
}

// ContactInfo identifies who to reach at a location.
type ContactInfo struct {
	Name      string `json:"name" yaml:"name"`
	Company   string `json:"company,omitempty" yaml:"company,omitempty"`
	Phone     string `json:"phone" yaml:"phone"`
	Email     string `json:"email" yaml:"email"`
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`
}

// Package holds the parcel attributes that drive package-type limits and
// declared-value policy.
type Package struct {
	Weight     Weight     `json:"weight" yaml:"weight"`
	Dimensions Dimensions `json:"dimensions" yaml:"dimensions"`

	// DeclaredValue is the declared value in USD.
	DeclaredValue float64 `json:"declaredValue" yaml:"declaredValue"`

	// Contents is a free-text description of what is inside.
	Contents string `json:"contents" yaml:"contents"`

	// Type is the package category (envelope, small, medium, large, pallet, custom).
	Type string `json:"type" yaml:"type"`

	// SpecialHandling lists handling options such as "hazmat" or "signature-required".
	SpecialHandling []string `json:"specialHandling,omitempty" yaml:"specialHandling,omitempty"`
}

// Weight is a mass with its unit ("lb" or "kg").
type Weight struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit" yaml:"unit"`
}

// Dimensions are the outer measurements with their unit ("in" or "cm").
type Dimensions struct {
	Length float64 `json:"length" yaml:"length"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Unit   string  `json:"unit" yaml:"unit"`
}

// Value resolves path against the shipment. Unknown paths and values that have
// not been entered both resolve to nil; use Resolve to tell them apart.
func (s *Shipment) Value(path FieldPath) any {
	if s == nil {
		return nil
	}
	v, err := Resolve(s, path)
	if err != nil {
		return nil
	}
	return v
}
