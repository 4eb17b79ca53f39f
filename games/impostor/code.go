package impostor

import "strings"

const (
	// CodeAlphabet leaves out 0/O and 1/I so codes survive being read aloud.
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength   = 4

	maxCodeAttempts = 64
)

// CodeGenerator produces short room codes.
type CodeGenerator struct {
	src Source
}

func NewCodeGenerator(src Source) *CodeGenerator {
	return &CodeGenerator{src: src}
}

// Generate returns a code for which taken reports false, giving up with
// ErrCapacityExhausted after a bounded number of attempts.
func (g *CodeGenerator) Generate(taken func(code string) bool) (string, error) {
	for range maxCodeAttempts {
		out := make([]byte, CodeLength)
		for i := range out {
			out[i] = CodeAlphabet[g.src.Intn(len(CodeAlphabet))]
		}
		code := string(out)

		if !taken(code) {
			return code, nil
		}
	}

	return "", ErrCapacityExhausted
}

// NormalizeCode canonicalizes user input to the stored form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether an already-normalized code could have been generated.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}

	for i := 0; i < len(code); i++ {
		if strings.IndexByte(CodeAlphabet, code[i]) < 0 {
			return false
		}
	}

	return true
}
