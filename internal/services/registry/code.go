package registry

import (
	"fmt"

	"github.com/mcoot/quizroom/internal/dependencies/random"
	"github.com/mcoot/quizroom/internal/model"
)

const (
	// CodeLength is the length of generated join codes
	CodeLength = 6
	// codeMask keeps 24 bits so the hex form never exceeds CodeLength
	codeMask = 0xFFFFFF
	// MaxCodeAttempts bounds the number of draws CreateUniqueGame makes
	MaxCodeAttempts = 16
)

// CodeGenerator produces candidate join codes
type CodeGenerator interface {
	NextCode() model.GameCode
}

// CodeGeneratorFunc adapts a function to CodeGenerator
type CodeGeneratorFunc func() model.GameCode

// NextCode calls f
func (f CodeGeneratorFunc) NextCode() model.GameCode {
	return f()
}

// HexCodeGenerator formats random 24-bit values as zero-padded uppercase hex
type HexCodeGenerator struct {
	random random.Random
}

// NewHexCodeGenerator creates a HexCodeGenerator backed by rnd
func NewHexCodeGenerator(rnd random.Random) *HexCodeGenerator {
	return &HexCodeGenerator{random: rnd}
}

// NextCode returns a code such as "0A1B2C"
func (g *HexCodeGenerator) NextCode() model.GameCode {
	return FormatCode(g.random.Uint32())
}

// FormatCode renders the low 24 bits of v as a join code
func FormatCode(v uint32) model.GameCode {
	return model.GameCode(fmt.Sprintf("%06X", v&codeMask))
}
