package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSetting translates one capability assignment into the wire fields
// it expands to. Most capabilities map to a single field; temperature is
// the exception, expanding to the unit, setpoint, and correction-bit
// fields together.
//
// Accepted value forms:
//
//	power=on            categorical value by name
//	fanSpeed=3          categorical value by number
//	temperature=72F     Fahrenheit setpoint
//	temperature=22C     Celsius setpoint
func ParseSetting(name, value string) ([]FieldValue, error) {
	if name == "temperature" {
		return parseTemperature(value)
	}

	f, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown capability %q", name)
	}

	if f.Categorical() {
		if v, ok := f.Value(value); ok {
			return []FieldValue{{Code: f.Code, Value: v}}, nil
		}
	}

	v, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q for %s (want one of %s)", value, name, strings.Join(f.ValueNames(), ", "))
	}
	return []FieldValue{{Code: f.Code, Value: v}}, nil
}

// parseTemperature expands a setpoint like "72F" or "22C" into the unit,
// setpoint, and correction-bit fields. A bare number is taken as Celsius,
// matching the wire's native unit.
func parseTemperature(value string) ([]FieldValue, error) {
	unit := "C"
	num := value
	if len(value) > 0 {
		switch value[len(value)-1] {
		case 'f', 'F':
			unit, num = "F", value[:len(value)-1]
		case 'c', 'C':
			unit, num = "C", value[:len(value)-1]
		}
	}

	deg, err := strconv.Atoi(num)
	if err != nil {
		return nil, fmt.Errorf("invalid temperature %q (want e.g. 72F or 22C)", value)
	}

	if unit == "F" {
		setTem, temRec := EncodeFahrenheit(deg)
		return []FieldValue{
			{Code: "TemUn", Value: 1},
			{Code: "SetTem", Value: setTem},
			{Code: "TemRec", Value: temRec},
		}, nil
	}

	return []FieldValue{
		{Code: "TemUn", Value: 0},
		{Code: "SetTem", Value: deg},
	}, nil
}
