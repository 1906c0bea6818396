package protocol

import "testing"

// Reference table for the supported thermostat range, verified against
// appliance behavior: each Fahrenheit degree maps to a unique
// (SetTem, TemRec) pair and back.
var fahrenheitTable = []struct {
	f      int
	setTem int
	temRec int
}{
	{61, 16, 1},
	{62, 17, 0},
	{63, 17, 1},
	{64, 18, 0},
	{65, 18, 1},
	{66, 19, 0},
	{67, 19, 1},
	{68, 20, 1},
	{69, 21, 0},
	{70, 21, 1},
	{71, 22, 0},
	{72, 22, 1},
	{73, 23, 0},
	{74, 23, 1},
	{75, 24, 0},
	{76, 24, 1},
	{77, 25, 1},
	{78, 26, 0},
	{79, 26, 1},
	{80, 27, 0},
	{81, 27, 1},
	{82, 28, 0},
	{83, 28, 1},
	{84, 29, 0},
	{85, 29, 1},
}

func TestEncodeFahrenheit(t *testing.T) {
	for _, tt := range fahrenheitTable {
		setTem, temRec := EncodeFahrenheit(tt.f)
		if setTem != tt.setTem || temRec != tt.temRec {
			t.Errorf("EncodeFahrenheit(%d) = (%d, %d), want (%d, %d)",
				tt.f, setTem, temRec, tt.setTem, tt.temRec)
		}
	}
}

func TestDecodeFahrenheit(t *testing.T) {
	for _, tt := range fahrenheitTable {
		f := DecodeFahrenheit(tt.setTem, tt.temRec)
		if f != tt.f {
			t.Errorf("DecodeFahrenheit(%d, %d) = %d, want %d",
				tt.setTem, tt.temRec, f, tt.f)
		}
	}
}

func TestFahrenheitRoundTrip(t *testing.T) {
	for f := 61; f <= 85; f++ {
		setTem, temRec := EncodeFahrenheit(f)
		got := DecodeFahrenheit(setTem, temRec)
		if got != f {
			t.Errorf("round trip %d°F -> (%d, %d) -> %d°F", f, setTem, temRec, got)
		}
	}
}

func TestEncodeFahrenheitWholeCelsius(t *testing.T) {
	// 68°F and 77°F land exactly on 20°C and 25°C; the fractional flag
	// must still be 1 because (C - SetTem) is not negative.
	tests := []struct {
		f      int
		setTem int
	}{
		{68, 20},
		{77, 25},
	}
	for _, tt := range tests {
		setTem, temRec := EncodeFahrenheit(tt.f)
		if setTem != tt.setTem {
			t.Errorf("EncodeFahrenheit(%d) SetTem = %d, want %d", tt.f, setTem, tt.setTem)
		}
		if temRec != 1 {
			t.Errorf("EncodeFahrenheit(%d) TemRec = %d, want 1", tt.f, temRec)
		}
	}
}
