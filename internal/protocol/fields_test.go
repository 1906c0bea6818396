package protocol

import "testing"

func TestLookupKnownCapabilities(t *testing.T) {
	tests := []struct {
		capability string
		code       string
	}{
		{"power", "Pow"},
		{"mode", "Mod"},
		{"temperature", "SetTem"},
		{"temperatureCorrection", "TemRec"},
		{"temperatureUnit", "TemUn"},
		{"fanSpeed", "WdSpd"},
		{"swingVertical", "SwUpDn"},
		{"swingHorizontal", "SwingLfRig"},
		{"lights", "Lig"},
		{"powerful", "Tur"},
	}

	for _, tt := range tests {
		f, ok := Lookup(tt.capability)
		if !ok {
			t.Errorf("Lookup(%q) not found", tt.capability)
			continue
		}
		if f.Code != tt.code {
			t.Errorf("Lookup(%q).Code = %q, want %q", tt.capability, f.Code, tt.code)
		}
	}
}

func TestLookupUnknownCapability(t *testing.T) {
	if _, ok := Lookup("warpDrive"); ok {
		t.Error("Lookup() should not resolve unknown capabilities")
	}
}

func TestFieldValues(t *testing.T) {
	power, _ := Lookup("power")
	if v, ok := power.Value("on"); !ok || v != 1 {
		t.Errorf("power.Value(on) = (%d, %v), want (1, true)", v, ok)
	}
	if v, ok := power.Value("off"); !ok || v != 0 {
		t.Errorf("power.Value(off) = (%d, %v), want (0, true)", v, ok)
	}

	mode, _ := Lookup("mode")
	if v, ok := mode.Value("heat"); !ok || v != 4 {
		t.Errorf("mode.Value(heat) = (%d, %v), want (4, true)", v, ok)
	}
	if name, ok := mode.ValueName(1); !ok || name != "cool" {
		t.Errorf("mode.ValueName(1) = (%q, %v), want (cool, true)", name, ok)
	}

	temp, _ := Lookup("temperature")
	if temp.Categorical() {
		t.Error("temperature should be numeric, not categorical")
	}
	if _, ok := temp.Value("anything"); ok {
		t.Error("numeric field should not resolve value names")
	}
}

func TestColumnsCoverEveryCapability(t *testing.T) {
	cols := Columns()
	caps := Capabilities()
	if len(cols) != len(caps) {
		t.Fatalf("Columns() has %d entries, Capabilities() has %d", len(cols), len(caps))
	}

	seen := make(map[string]bool)
	for _, code := range cols {
		if seen[code] {
			t.Errorf("duplicate column %q", code)
		}
		seen[code] = true

		name, ok := LookupCode(code)
		if !ok {
			t.Errorf("LookupCode(%q) not found", code)
			continue
		}
		f, _ := Lookup(name)
		if f.Code != code {
			t.Errorf("round trip %q -> %q -> %q", code, name, f.Code)
		}
	}
}

func TestColumnsOrderStable(t *testing.T) {
	a := Columns()
	b := Columns()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Columns() order not stable at index %d: %q vs %q", i, a[i], b[i])
		}
	}
	// Power leads the poll list; that ordering is load-bearing for the
	// status request the engine sends.
	if a[0] != "Pow" {
		t.Errorf("Columns()[0] = %q, want Pow", a[0])
	}
}

func TestKnownColumn(t *testing.T) {
	if !KnownColumn("Pow") {
		t.Error("KnownColumn(Pow) = false, want true")
	}
	// Half-degree Fahrenheit setpoints are unreadable without TemRec
	if !KnownColumn("TemRec") {
		t.Error("KnownColumn(TemRec) = false, want true")
	}
	if KnownColumn("NotAField") {
		t.Error("KnownColumn(NotAField) = true, want false")
	}
}

func TestValueNamesOrderedByWireValue(t *testing.T) {
	mode, _ := Lookup("mode")
	got := mode.ValueNames()
	want := []string{"auto", "cool", "dry", "fan", "heat"}
	if len(got) != len(want) {
		t.Fatalf("ValueNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ValueNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Gaps in the wire numbering must not truncate the list
	sparse := Field{Code: "X", Values: map[string]int{"high": 7, "low": 2}}
	got = sparse.ValueNames()
	if len(got) != 2 || got[0] != "low" || got[1] != "high" {
		t.Errorf("ValueNames() on sparse values = %v, want [low high]", got)
	}
}
