// Package shader translates WGSL shader stages into the shading language
// each backend consumes.
//
// Compilation itself is delegated to github.com/gogpu/naga; this package
// only selects the target and packages the result.
package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/hlsl"
)

// Profile is a target shading language.
type Profile uint8

// Target profiles.
const (
	// SPIRV produces SPIR-V words for the unified backend.
	SPIRV Profile = iota
	// GLSL produces GLSL 3.30 source for the arb backend.
	GLSL
	// HLSL produces Shader Model 5.0 source for the fixed backend.
	HLSL
)

// String returns the profile name.
func (p Profile) String() string {
	switch p {
	case SPIRV:
		return "spirv"
	case GLSL:
		return "glsl"
	case HLSL:
		return "hlsl"
	default:
		return fmt.Sprintf("Profile(%d)", uint8(p))
	}
}

// Errors returned by Compile.
var (
	// ErrEmptySource is returned for an empty shader source.
	ErrEmptySource = errors.New("shader: empty source")

	// ErrUnknownProfile is returned for an unsupported Profile.
	ErrUnknownProfile = errors.New("shader: unknown profile")
)

// Code is a compiled shader stage. SPIRV is set for the SPIRV profile,
// Source for the text profiles.
type Code struct {
	Profile Profile
	Entry   string
	SPIRV   []uint32
	Source  string
}

// Compile translates WGSL source for profile. Entry selects the entry point
// for text profiles; SPIR-V modules keep every entry point. Compiler
// diagnostics are returned in the error.
func Compile(source, entry string, profile Profile) (*Code, error) {
	if source == "" {
		return nil, ErrEmptySource
	}

	switch profile {
	case SPIRV:
		words, err := compileSPIRV(source)
		if err != nil {
			return nil, err
		}
		return &Code{Profile: profile, Entry: entry, SPIRV: words}, nil
	case GLSL, HLSL:
		src, err := compileText(source, entry, profile)
		if err != nil {
			return nil, err
		}
		return &Code{Profile: profile, Entry: entry, Source: src}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownProfile, profile)
	}
}

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("shader: compile spirv: %w", err)
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

func compileText(source, entry string, profile Profile) (string, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return "", fmt.Errorf("shader: parse: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return "", fmt.Errorf("shader: lower: %w", err)
	}

	var out string
	switch profile {
	case GLSL:
		opts := glsl.DefaultOptions()
		opts.LangVersion = glsl.Version330
		opts.EntryPoint = entry
		out, _, err = glsl.Compile(module, opts)
	case HLSL:
		opts := hlsl.DefaultOptions()
		opts.ShaderModel = hlsl.ShaderModel5_0
		opts.EntryPoint = entry
		out, _, err = hlsl.Compile(module, opts)
	}
	if err != nil {
		return "", fmt.Errorf("shader: compile %v: %w", profile, err)
	}
	return out, nil
}
