package value

import (
	"math"
	"testing"
)

// TestBoxIntRoundTrip verifies every 48-bit signed integer round-trips through
// BoxInt/PayloadInt and carries the INT external tag.
func TestBoxIntRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 1<<47 - 1, -(1 << 47), 12345, -98765}
	for _, i := range cases {
		w := BoxInt(i)
		if IsFloat(w) {
			t.Fatalf("BoxInt(%d) was classified as a float", i)
		}
		if got := PayloadInt(w); got != i {
			t.Errorf("PayloadInt(BoxInt(%d)) = %d, want %d", i, got, i)
		}
		if got := ExtTagOf(w); got != ExtInt {
			t.Errorf("ExtTagOf(BoxInt(%d)) = %d, want ExtInt", i, got)
		}
	}
}

// TestBoxFloatRoundTrip verifies that every representable finite double round-trips bitwise and
// is classified as a float.
func TestBoxFloatRoundTrip(t *testing.T) {
	cases := []float64{0, -0.0, 1.5, -1.5, 3.14159, math.MaxFloat64, -math.MaxFloat64, math.Inf(1), math.Inf(-1)}
	for _, d := range cases {
		w := BoxFloat(d)
		if !IsFloat(w) {
			t.Fatalf("BoxFloat(%v) was classified as boxed", d)
		}
		if got := PayloadDouble(w); math.Float64bits(got) != math.Float64bits(d) {
			t.Errorf("PayloadDouble(BoxFloat(%v)) = %v, want bitwise-identical %v", d, got, d)
		}
	}
}

// TestBoxBool verifies boolean round-trips and truth values.
func TestBoxBool(t *testing.T) {
	if PayloadBool(BoxBool(true)) != true {
		t.Error("PayloadBool(BoxBool(true)) != true")
	}
	if PayloadBool(BoxBool(false)) != false {
		t.Error("PayloadBool(BoxBool(false)) != false")
	}
	if ExtTagOf(BoxBool(true)) != ExtBool {
		t.Error("ExtTagOf(BoxBool(true)) != ExtBool")
	}
}

// TestBoxPointerRoundTrip verifies string/list pointer round-trips for every 48-bit address.
func TestBoxPointerRoundTrip(t *testing.T) {
	addrs := []uint64{0x1, 0xDEADBE, 1<<48 - 1}
	for _, a := range addrs {
		ws := BoxStringPtr(a)
		if PayloadPtr(ws) != a {
			t.Errorf("PayloadPtr(BoxStringPtr(%x)) = %x, want %x", a, PayloadPtr(ws), a)
		}
		if ExtTagOf(ws) != ExtString {
			t.Errorf("ExtTagOf(BoxStringPtr(%x)) != ExtString", a)
		}

		wl := BoxListPtr(a)
		if PayloadPtr(wl) != a {
			t.Errorf("PayloadPtr(BoxListPtr(%x)) = %x, want %x", a, PayloadPtr(wl), a)
		}
		if ExtTagOf(wl) != ExtList {
			t.Errorf("ExtTagOf(BoxListPtr(%x)) != ExtList", a)
		}
	}
}

// TestToTruth exercises the branch-condition predicate's edge cases, notably -0.0 being falsy.
func TestToTruth(t *testing.T) {
	tests := []struct {
		name string
		w    uint64
		want bool
	}{
		{"int zero", BoxInt(0), false},
		{"int nonzero", BoxInt(42), true},
		{"int negative", BoxInt(-1), true},
		{"bool false", BoxBool(false), false},
		{"bool true", BoxBool(true), true},
		{"float zero", BoxFloat(0.0), false},
		{"float negative zero", BoxFloat(math.Copysign(0, -1)), false},
		{"float nonzero", BoxFloat(0.5), true},
		{"null string ptr", BoxStringPtr(0), false},
		{"nonnull string ptr", BoxStringPtr(1), true},
		{"null list ptr", BoxListPtr(0), false},
		{"nonnull list ptr", BoxListPtr(1), true},
	}
	for _, tt := range tests {
		if got := ToTruth(tt.w); got != tt.want {
			t.Errorf("%s: ToTruth = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// TestIsFloatDefinitive verifies that no boxed word is misclassified as a double and vice versa.
func TestIsFloatDefinitive(t *testing.T) {
	boxed := []uint64{BoxInt(0), BoxInt(-1), BoxBool(true), BoxStringPtr(1), BoxListPtr(1)}
	for _, w := range boxed {
		if IsFloat(w) {
			t.Errorf("boxed word %#x misclassified as float", w)
		}
	}
	floats := []float64{0, 1, -1, 3.14, math.Inf(1), math.Inf(-1)}
	for _, d := range floats {
		w := BoxFloat(d)
		if !IsFloat(w) {
			t.Errorf("float %v (word %#x) misclassified as boxed", d, w)
		}
	}
}
