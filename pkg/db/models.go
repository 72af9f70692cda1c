package db

// Structure is the primary chemical entity record.
type Structure struct {
	ID      uint32
	Name    *string
	Formula string
	Smiles  *string
	Charge  int8
}

// Component is a composition edge: StructureID is built from Count units of ComponentID.
type Component struct {
	StructureID uint32
	ComponentID uint32
	Count       uint32
}

// Edge pairs a composition edge with the structure on its other end.
// Structure is nil when that structure does not exist.
type Edge struct {
	Component Component
	Structure *Structure
}

// Property holds the optional measurements attached to a structure.
type Property struct {
	StructureID         uint32
	DecompTemp          *float64
	Density             *float64
	DissTemp            *float64
	FormationEnthalpy   *float64
	ImpactSensitive     *float64
	FrictionSensitivity *float64
	DetVelocity         *float64
	DetPressure         *float64
	NContent            *float64
	OContent            *float64
	NOContent           *float64
	References          *string
	Remarks             *string
}

// Numbers returns pointers to the numeric fields in declaration order.
func (p *Property) Numbers() []**float64 {
	return []**float64{
		&p.DecompTemp,
		&p.Density,
		&p.DissTemp,
		&p.FormationEnthalpy,
		&p.ImpactSensitive,
		&p.FrictionSensitivity,
		&p.DetVelocity,
		&p.DetPressure,
		&p.NContent,
		&p.OContent,
		&p.NOContent,
	}
}

// Image is the picture attached to a structure. Filename includes the extension.
type Image struct {
	StructureID uint32
	Filename    string `validate:"required,max=255,excludesall=/\\,ne=.,ne=.."`
	Image       []byte `validate:"required"`
}

// NullIfBlank maps the empty string to nil so that NULL is the only
// representation of an absent optional text value. Whitespace is a value.
func NullIfBlank(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
