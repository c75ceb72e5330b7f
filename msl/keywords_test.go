package msl

import "testing"

func TestEscapeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"color", "color"},
		{"float", "float_"},
		{"kernel", "kernel_"},
		{"", "_unnamed"},
		{"__x", "x__x"},
		{"_Tex", "x_Tex"},
		{"_tex", "_tex"},
	}
	for _, tc := range tests {
		if got := escapeName(tc.in); got != tc.want {
			t.Errorf("escapeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNamer(t *testing.T) {
	n := newNamer()
	n.reserve("_out")
	for _, tc := range []struct {
		base, want string
	}{
		{"x", "x"},
		{"x", "x_1"},
		{"x", "x_2"},
		{"_out", "_out_3"},
		{"while", "while_"},
	} {
		if got := n.call(tc.base); got != tc.want {
			t.Errorf("call(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}
