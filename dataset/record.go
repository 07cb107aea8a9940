package dataset

import (
	"fmt"
	"strconv"
)

// Species is a penguin species name.
type Species string

const (
	Adelie    Species = "Adelie"
	Chinstrap Species = "Chinstrap"
	Gentoo    Species = "Gentoo"
)

// AllSpecies returns the species enumeration in display order.
func AllSpecies() []Species {
	return []Species{Adelie, Gentoo, Chinstrap}
}

// Island is the island an individual was observed on.
type Island string

const (
	Biscoe    Island = "Biscoe"
	Dream     Island = "Dream"
	Torgersen Island = "Torgersen"
)

// AllIslands returns the island enumeration in alphabetical order.
func AllIslands() []Island {
	return []Island{Biscoe, Dream, Torgersen}
}

// Measurement is a numeric value that may be absent.
type Measurement struct {
	Value float64
	Valid bool
}

// Measured returns a present measurement.
func Measured(v float64) Measurement {
	return Measurement{Value: v, Valid: true}
}

// Float returns the value and whether it is present.
func (m Measurement) Float() (float64, bool) {
	return m.Value, m.Valid
}

func (m Measurement) String() string {
	if !m.Valid {
		return "NA"
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

// Attribute names one of the four numeric columns.
type Attribute string

const (
	BillLength    Attribute = "bill_length_mm"
	BillDepth     Attribute = "bill_depth_mm"
	FlipperLength Attribute = "flipper_length_mm"
	BodyMass      Attribute = "body_mass_g"
)

// Attributes returns the numeric columns in dataset order.
func Attributes() []Attribute {
	return []Attribute{BillLength, BillDepth, FlipperLength, BodyMass}
}

// ParseAttribute validates a column key.
func ParseAttribute(s string) (Attribute, error) {
	for _, a := range Attributes() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, s)
}

// Record is one measured individual.
type Record struct {
	Species         Species
	Island          Island
	BillLengthMM    Measurement
	BillDepthMM     Measurement
	FlipperLengthMM Measurement
	BodyMassG       Measurement
	Sex             string // "" when not recorded
	Year            int    // 0 when not recorded
}

// Measure returns the measurement for a numeric attribute.
func (r Record) Measure(a Attribute) Measurement {
	switch a {
	case BillLength:
		return r.BillLengthMM
	case BillDepth:
		return r.BillDepthMM
	case FlipperLength:
		return r.FlipperLengthMM
	case BodyMass:
		return r.BodyMassG
	default:
		return Measurement{}
	}
}
