package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Lengths in configuration files may carry a unit; the engine itself works in
// points, the unit every Measurer reports widths in.

// Unit is the unit a length was written in.
type Unit int

const (
	UnitNone Unit = iota // bare numbers
	UnitPT               // points
	UnitPX               // CSS pixels, 0.75pt
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
	PxToPt = 0.75
)

func (u Unit) String() string {
	switch u {
	case UnitPT:
		return "pt"
	case UnitPX:
		return "px"
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// ToPT converts the length to points. Bare numbers are taken as points.
func (l Length) ToPT() float64 {
	switch l.Unit {
	case UnitPX:
		return l.Value * PxToPt
	case UnitMM:
		return l.Value * MmToPt
	case UnitCM:
		return l.Value * 10 * MmToPt
	case UnitIN:
		return l.Value * 72
	default:
		return l.Value
	}
}

// ToMM converts the length to millimeters.
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	default:
		return l.ToPT() * PtToMm
	}
}

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'g', -1, 64) + l.Unit.String()
}

var unitSuffixes = []struct {
	s string
	u Unit
}{{"pt", UnitPT}, {"px", UnitPX}, {"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}}

// ParseRawLengthStr parses strings such as "12pt", "4.2mm" or "10", keeping
// the unit. Malformed input yields a zero Length with UnitNone.
func ParseRawLengthStr(value string) Length {
	l, err := ParseLength(value)
	if err != nil {
		return Length{}
	}
	return l
}

// ParseLength is ParseRawLengthStr with an error for malformed input.
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, nil
	}
	unit := UnitNone
	num := v
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}

// LineHeightKind distinguishes factor-based vs absolute line heights.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec keeps what the author wrote: either a factor (1.5) or an
// absolute length (18pt).
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ParseLineHeight reads "1.5", "1.5x" or a length with a unit.
func ParseLineHeight(value string) (LineHeightSpec, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return LineHeightSpec{Kind: LineHeightFactor, Factor: DefaultLineHeight}, nil
	}
	if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64); err == nil {
		return LineHeightSpec{Kind: LineHeightFactor, Factor: f}, nil
	}
	l, err := ParseLength(v)
	if err != nil {
		return LineHeightSpec{}, err
	}
	return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}, nil
}

// FactorFor turns the line height into a multiple of fontSizePT, the form Input uses.
func (s LineHeightSpec) FactorFor(fontSizePT float64) float64 {
	switch s.Kind {
	case LineHeightAbsolute:
		if fontSizePT <= 0 {
			return DefaultLineHeight
		}
		return s.Len.ToPT() / fontSizePT
	default:
		if s.Factor <= 0 {
			return DefaultLineHeight
		}
		return s.Factor
	}
}
