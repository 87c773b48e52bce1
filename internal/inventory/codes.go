package inventory

import (
	"context"
	"crypto/rand"
)

// codeAlphabet excludes 0/O and 1/I so codes survive being read aloud
// or retyped from a printout.  32 symbols divide 256 evenly, so mapping
// random bytes by modulo introduces no bias.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeGenerator produces unguessable ticket codes from crypto/rand and
// checks them for collisions via a caller-supplied lookup.  Collisions
// are retried a bounded number of times; the UNIQUE index on the codes
// column remains the final arbiter.
type CodeGenerator struct {
	length     int
	maxRetries int
}

// NewCodeGenerator builds a generator.  Non-positive arguments fall
// back to 12 characters and 5 retries.
func NewCodeGenerator(length, maxRetries int) *CodeGenerator {
	if length <= 0 {
		length = 12
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &CodeGenerator{length: length, maxRetries: maxRetries}
}

// random returns one candidate code.
func (g *CodeGenerator) random() (string, error) {
	b := make([]byte, g.length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}

// Generate returns a code that taken() reports as unused.  After
// maxRetries collisions it gives up with ErrCodeSpaceExhausted rather
// than loop forever against a saturated code space.
func (g *CodeGenerator) Generate(ctx context.Context, taken func(context.Context, string) (bool, error)) (string, error) {
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		code, err := g.random()
		if err != nil {
			return "", err
		}
		exists, err := taken(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
