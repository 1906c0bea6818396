package protocol

// Fahrenheit target temperatures do not map one-to-one onto the wire
// encoding: the appliance stores a rounded Celsius integer (SetTem) plus
// a fractional flag (TemRec) that disambiguates which Fahrenheit degree
// the Celsius value came from. All arithmetic below runs in integer
// tenths of a degree so the encoding is exact; 1.8 has no finite binary
// representation and float rounding would corrupt the table.

// EncodeFahrenheit converts a Fahrenheit target to the (SetTem, TemRec)
// wire pair. SetTem is Celsius rounded half-up; TemRec is 0 when the true
// Celsius value is below SetTem and 1 otherwise.
func EncodeFahrenheit(f int) (setTem int, temRec int) {
	// Celsius in tenths: c10 = (f-32)*10/1.8*... kept as n/18 rational
	n := (f - 32) * 10 // celsius * 18

	// Round n/18 half away from zero
	if n >= 0 {
		setTem = (2*n + 18) / 36
	} else {
		setTem = -((-2*n + 18) / 36)
	}

	// (C - SetTem) < 0  <=>  n < setTem*18
	if n < setTem*18 {
		temRec = 0
	} else {
		temRec = 1
	}
	return setTem, temRec
}

// DecodeFahrenheit converts a (SetTem, TemRec) wire pair back to the
// displayed Fahrenheit degree: SetTem*1.8+32 when that lands on a whole
// degree, otherwise its floor plus the fractional flag.
func DecodeFahrenheit(setTem int, temRec int) int {
	f10 := setTem*18 + 320 // fahrenheit * 10, exact
	if f10%10 == 0 {
		return f10 / 10
	}
	return f10/10 + temRec
}
