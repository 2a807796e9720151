package glcall

import "errors"

var (
	// ErrCompile is wrapped when a shader stage fails to compile.
	ErrCompile = errors.New("glcall: shader compile failed")

	// ErrLink is wrapped when a program fails to link.
	ErrLink = errors.New("glcall: program link failed")
)
