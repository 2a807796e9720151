package glcall

import "testing"

func TestTrimLog(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"0(3) : error C0000: syntax error\n\x00\x00", "0(3) : error C0000: syntax error"},
		{"ERROR: 0:1: 'x' : undeclared identifier\r\n\n\x00", "ERROR: 0:1: 'x' : undeclared identifier"},
		{"line one\nline two\x00garbage", "line one\nline two"},
	}
	for _, tt := range tests {
		if got := trimLog(tt.in); got != tt.want {
			t.Errorf("trimLog(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
