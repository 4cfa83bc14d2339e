package ir

import "testing"

func TestTypeWidenNarrow(t *testing.T) {
	if got := I8.Widen(); got != I16 {
		t.Fatalf("I8.Widen() = %v, want %v", got, I16)
	}
	if got := I16.Narrow(); got != I8 {
		t.Fatalf("I16.Narrow() = %v, want %v", got, I8)
	}
	if got := U32.Widen(); got != U64 {
		t.Fatalf("U32.Widen() = %v, want %v", got, U64)
	}
}

func TestTypeWidenPanicsAt64(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic widening a 64-bit type")
		}
	}()
	I64.Widen()
}

func TestTypeNarrowPanicsAt8(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic narrowing an 8-bit type")
		}
	}()
	I8.Narrow()
}

func TestTypeBytes(t *testing.T) {
	cases := []struct {
		t    Type
		want uint32
	}{
		{U8, 1}, {I16, 2}, {F32, 4}, {F64, 8},
		{Bool1, 1},
		{U8.WithLanes(4), 4},
		{I16.WithLanes(4), 8},
	}
	for _, c := range cases {
		if got := c.t.Bytes(); got != c.want {
			t.Errorf("%v.Bytes() = %d, want %d", c.t, got, c.want)
		}
	}
}

func TestTypeWithCodeAndLanes(t *testing.T) {
	v := I32.WithLanes(4)
	if !v.IsVector() || v.Lanes() != 4 {
		t.Fatalf("WithLanes(4) = %v, want 4-lane vector", v)
	}
	u := v.WithCode(Uint)
	if u.Code() != Uint || u.Bits() != 32 || u.Lanes() != 4 {
		t.Fatalf("WithCode(Uint) = %v", u)
	}
}

func TestBoolTypeValidation(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic constructing a malformed bool type")
		}
	}()
	New(Bool, 8, 1)
}

func TestIntMinMax(t *testing.T) {
	if I8.Min() != -128 || I8.Max() != 127 {
		t.Fatalf("I8 bounds = [%v, %v], want [-128, 127]", I8.Min(), I8.Max())
	}
	if U8.Min() != 0 || U8.Max() != 255 {
		t.Fatalf("U8 bounds = [%v, %v], want [0, 255]", U8.Min(), U8.Max())
	}
}

func TestTypeString(t *testing.T) {
	cases := map[Type]string{
		I32:              "i32",
		U8:               "u8",
		F64:              "f64",
		Bool1:            "bool",
		Handle:           "handle",
		I16.WithLanes(4): "i16x4",
	}
	for ty, want := range cases {
		if got := ty.String(); got != want {
			t.Errorf("%#v.String() = %q, want %q", ty, got, want)
		}
	}
}
