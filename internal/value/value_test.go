package value

import (
	"testing"

	"github.com/gmlscript/gmlscript/internal/symbol"
)

func TestIsTruthy(t *testing.T) {
	in := symbol.NewInterner()
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"real nonzero", Real(1), true},
		{"real zero", Real(0), false},
		{"real negative", Real(-1), true},
		{"string always truthy", String(in.Intern("x")), true},
		{"empty string still truthy", String(in.Intern("")), true},
		{"live entity", EntityVal(Entity(3)), true},
		{"noone", EntityVal(NoEntity), false},
		{"array", ArrayVal(NewArray(1)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsTruthy(); got != tt.want {
				t.Errorf("IsTruthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoerceNumber(t *testing.T) {
	in := symbol.NewInterner()
	tests := []struct {
		name    string
		v       Value
		want    float64
		wantOk  bool
	}{
		{"real passes through", Real(3.5), 3.5, true},
		{"numeric string parses", String(in.Intern("42")), 42, true},
		{"signed numeric string", String(in.Intern("-1.5")), -1.5, true},
		{"non-numeric string fails", String(in.Intern("abc")), 0, false},
		{"entity fails", EntityVal(Entity(1)), 0, false},
		{"array fails", ArrayVal(NewArray(1)), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceNumber(tt.v, in)
			if ok != tt.wantOk {
				t.Fatalf("CoerceNumber() ok = %v, want %v", ok, tt.wantOk)
			}
			if ok && got != tt.want {
				t.Errorf("CoerceNumber() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArray1D(t *testing.T) {
	a := NewArray(1)
	if _, ok := a.Get(0, 0); ok {
		t.Fatal("Get on empty array should report not-set")
	}
	a.Set(0, 0, Real(10))
	a.Set(3, 0, Real(30))
	if v, ok := a.Get(0, 0); !ok || v.Real != 10 {
		t.Errorf("Get(0) = %v, %v, want 10, true", v, ok)
	}
	if v, ok := a.Get(3, 0); !ok || v.Real != 30 {
		t.Errorf("Get(3) = %v, %v, want 30, true", v, ok)
	}
	if _, ok := a.Get(1, 0); ok {
		t.Error("Get(1) should be unset after only writing 0 and 3")
	}
	if _, ok := a.Get(-1, 0); ok {
		t.Error("Get(-1) should report out of bounds")
	}
}

func TestArray2D(t *testing.T) {
	a := NewArray(2)
	a.Set(1, 2, Real(7))
	if v, ok := a.Get(1, 2); !ok || v.Real != 7 {
		t.Errorf("Get(1,2) = %v, %v, want 7, true", v, ok)
	}
	if _, ok := a.Get(1, 5); ok {
		t.Error("Get(1,5) should be out of bounds before any row grows that wide")
	}
}

func TestFormatReal(t *testing.T) {
	tests := []struct {
		f    float64
		want string
	}{
		{3, "3"},
		{-3, "-3"},
		{3.5, "3.5"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := formatReal(tt.f); got != tt.want {
			t.Errorf("formatReal(%v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestToDisplayString(t *testing.T) {
	in := symbol.NewInterner()
	if got := ToDisplayString(Real(1.5), in); got != "1.5" {
		t.Errorf("ToDisplayString(real) = %q", got)
	}
	if got := ToDisplayString(String(in.Intern("hi")), in); got != "hi" {
		t.Errorf("ToDisplayString(string) = %q", got)
	}
}
