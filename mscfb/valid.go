package mscfb

import "fmt"

// Validation selects how much of the container is checked. Permissive
// parsing accepts what real-world writers produce and repairs allocation
// marks; strict parsing rejects any deviation from the format.
type Validation int

const (
	ValidationPermissive Validation = iota
	ValidationStrict
)

func (v Validation) IsStrict() bool {
	return v == ValidationStrict
}

func (v Validation) String() string {
	if v.IsStrict() {
		return "strict"
	}
	return "permissive"
}

func (v Validation) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Validation) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "permissive":
		*v = ValidationPermissive
	case "strict":
		*v = ValidationStrict
	default:
		return fmt.Errorf("invalid validation mode %q", text)
	}
	return nil
}
