package protocol

import (
	"reflect"
	"testing"
)

func TestParseSetting(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []FieldValue
	}{
		{"power", "on", []FieldValue{{Code: "Pow", Value: 1}}},
		{"power", "off", []FieldValue{{Code: "Pow", Value: 0}}},
		{"mode", "heat", []FieldValue{{Code: "Mod", Value: 4}}},
		{"fanSpeed", "mediumHigh", []FieldValue{{Code: "WdSpd", Value: 4}}},
		{"fanSpeed", "3", []FieldValue{{Code: "WdSpd", Value: 3}}},
		{"swingVertical", "swingHighest", []FieldValue{{Code: "SwUpDn", Value: 11}}},
		{"temperature", "72F", []FieldValue{{Code: "TemUn", Value: 1}, {Code: "SetTem", Value: 22}, {Code: "TemRec", Value: 1}}},
		{"temperature", "61f", []FieldValue{{Code: "TemUn", Value: 1}, {Code: "SetTem", Value: 16}, {Code: "TemRec", Value: 1}}},
		{"temperature", "22C", []FieldValue{{Code: "TemUn", Value: 0}, {Code: "SetTem", Value: 22}}},
		{"temperature", "25", []FieldValue{{Code: "TemUn", Value: 0}, {Code: "SetTem", Value: 25}}},
	}

	for _, tt := range tests {
		got, err := ParseSetting(tt.name, tt.value)
		if err != nil {
			t.Errorf("ParseSetting(%q, %q) error = %v", tt.name, tt.value, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseSetting(%q, %q) = %v, want %v", tt.name, tt.value, got, tt.want)
		}
	}
}

func TestParseSettingErrors(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"notACapability", "on"},
		{"power", "sideways"},
		{"mode", "defrost"},
		{"temperature", "toasty"},
		{"temperature", "F"},
	}

	for _, tt := range tests {
		if _, err := ParseSetting(tt.name, tt.value); err == nil {
			t.Errorf("ParseSetting(%q, %q) accepted an invalid setting", tt.name, tt.value)
		}
	}
}
