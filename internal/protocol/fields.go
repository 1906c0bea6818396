package protocol

import "sort"

// Field describes one wire-level status/command field: its firmware field
// code and, for categorical fields, the named wire values. Numeric fields
// (temperature, offsets) carry no value enumeration.
type Field struct {
	Code   string
	Values map[string]int
}

// Value resolves a named wire value. ok is false for unknown names and
// for numeric fields.
func (f Field) Value(name string) (int, bool) {
	v, ok := f.Values[name]
	return v, ok
}

// ValueName resolves a wire value back to its name. ok is false for
// unknown values and for numeric fields.
func (f Field) ValueName(v int) (string, bool) {
	for name, val := range f.Values {
		if val == v {
			return name, true
		}
	}
	return "", false
}

// Categorical reports whether the field has an enumerated value set.
func (f Field) Categorical() bool {
	return f.Values != nil
}

// ValueNames returns the field's value names ordered by wire value, for
// error messages and help text. Empty for numeric fields.
func (f Field) ValueNames() []string {
	names := make([]string, 0, len(f.Values))
	for name := range f.Values {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return f.Values[names[i]] < f.Values[names[j]]
	})
	return names
}

// capabilityOrder fixes the iteration order of the table: it determines
// the column list sent in every status poll, so it must stay stable.
var capabilityOrder = []string{
	"power",
	"mode",
	"temperatureUnit",
	"temperature",
	"temperatureCorrection",
	"fanSpeed",
	"air",
	"blow",
	"health",
	"sleep",
	"lights",
	"swingHorizontal",
	"swingVertical",
	"quiet",
	"powerful",
	"safetyHeating",
}

// fields maps logical capability names to wire fields. The field codes
// and value numbers come from the appliance firmware and are not free to
// change.
var fields = map[string]Field{
	"power": {Code: "Pow", Values: map[string]int{
		"off": 0,
		"on":  1,
	}},
	"mode": {Code: "Mod", Values: map[string]int{
		"auto": 0,
		"cool": 1,
		"dry":  2,
		"fan":  3,
		"heat": 4,
	}},
	"temperatureUnit": {Code: "TemUn", Values: map[string]int{
		"celsius":    0,
		"fahrenheit": 1,
	}},
	"temperature": {Code: "SetTem"},
	// Rounding direction for Fahrenheit setpoints; DecodeFahrenheit needs
	// it alongside SetTem, so it is polled and cached like any column.
	"temperatureCorrection": {Code: "TemRec"},
	"fanSpeed": {Code: "WdSpd", Values: map[string]int{
		"auto":       0,
		"low":        1,
		"mediumLow":  2,
		"medium":     3,
		"mediumHigh": 4,
		"high":       5,
	}},
	"air": {Code: "Air", Values: map[string]int{
		"off":     0,
		"inside":  1,
		"outside": 2,
		"mode3":   3,
	}},
	"blow": {Code: "Blo", Values: map[string]int{
		"off": 0,
		"on":  1,
	}},
	"health": {Code: "Health", Values: map[string]int{
		"off": 0,
		"on":  1,
	}},
	"sleep": {Code: "SwhSlp", Values: map[string]int{
		"off": 0,
		"on":  1,
	}},
	"lights": {Code: "Lig", Values: map[string]int{
		"off": 0,
		"on":  1,
	}},
	"swingHorizontal": {Code: "SwingLfRig", Values: map[string]int{
		"default":       0,
		"full":          1,
		"fixedLeft":     2,
		"fixedMidLeft":  3,
		"fixedMid":      4,
		"fixedMidRight": 5,
		"fixedRight":    6,
	}},
	"swingVertical": {Code: "SwUpDn", Values: map[string]int{
		"default":      0,
		"full":         1,
		"fixedHighest": 2,
		"fixedHigher":  3,
		"fixedMiddle":  4,
		"fixedLower":   5,
		"fixedLowest":  6,
		"swingLowest":  7,
		"swingLower":   8,
		"swingMiddle":  9,
		"swingHigher":  10,
		"swingHighest": 11,
	}},
	"quiet": {Code: "Quiet", Values: map[string]int{
		"off":   0,
		"mode1": 1,
		"mode2": 2,
	}},
	"powerful": {Code: "Tur", Values: map[string]int{
		"off": 0,
		"on":  1,
	}},
	"safetyHeating": {Code: "StHt", Values: map[string]int{
		"off": 0,
		"on":  1,
	}},
}

// Lookup resolves a logical capability name to its wire field.
func Lookup(capability string) (Field, bool) {
	f, ok := fields[capability]
	return f, ok
}

// LookupCode resolves a wire field code back to its capability name.
func LookupCode(code string) (string, bool) {
	for name, f := range fields {
		if f.Code == code {
			return name, true
		}
	}
	return "", false
}

// Capabilities returns the logical capability names in table order.
func Capabilities() []string {
	out := make([]string, len(capabilityOrder))
	copy(out, capabilityOrder)
	return out
}

// Columns returns every known wire field code in table order. This is the
// full column list the engine polls when a consumer has not narrowed it.
func Columns() []string {
	cols := make([]string, 0, len(capabilityOrder))
	for _, name := range capabilityOrder {
		cols = append(cols, fields[name].Code)
	}
	return cols
}

// KnownColumn reports whether a wire field code appears in the table.
// The engine uses this to reject unknown codes defensively.
func KnownColumn(code string) bool {
	_, ok := LookupCode(code)
	return ok
}
