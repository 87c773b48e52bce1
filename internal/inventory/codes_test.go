package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func neverTaken(context.Context, string) (bool, error) { return false, nil }

func TestCodeGeneratorLengthAndAlphabet(t *testing.T) {
	g := NewCodeGenerator(12, 5)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := g.Generate(context.Background(), neverTaken)
		require.NoError(t, err)
		assert.Len(t, code, 12)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected symbol %q in %s", r, code)
		}
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestCodeGeneratorDefaults(t *testing.T) {
	g := NewCodeGenerator(0, 0)
	code, err := g.Generate(context.Background(), neverTaken)
	require.NoError(t, err)
	assert.Len(t, code, 12)
}

func TestCodeGeneratorRetriesOnCollision(t *testing.T) {
	g := NewCodeGenerator(8, 5)
	calls := 0
	taken := func(context.Context, string) (bool, error) {
		calls++
		return calls <= 2, nil
	}
	code, err := g.Generate(context.Background(), taken)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.Equal(t, 3, calls)
}

func TestCodeGeneratorExhaustion(t *testing.T) {
	g := NewCodeGenerator(8, 3)
	calls := 0
	alwaysTaken := func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}
	_, err := g.Generate(context.Background(), alwaysTaken)
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
	assert.Equal(t, 3, calls)
}

func TestCodeGeneratorUniqueInShrunkenSpace(t *testing.T) {
	// Two symbols over a 32-rune alphabet leaves only 1024 codes, so
	// collisions against the taken set are guaranteed well before the
	// space fills up.
	g := NewCodeGenerator(2, 256)
	issued := map[string]bool{}
	taken := func(_ context.Context, code string) (bool, error) {
		return issued[code], nil
	}
	for i := 0; i < 4000; i++ {
		code, err := g.Generate(context.Background(), taken)
		if err != nil {
			// With 256 retries the draw only fails once nearly every
			// code has been handed out.
			require.ErrorIs(t, err, ErrCodeSpaceExhausted)
			break
		}
		require.Len(t, code, 2)
		require.False(t, issued[code], "duplicate code %s", code)
		issued[code] = true
	}
	assert.GreaterOrEqual(t, len(issued), 900, "expected most of the code space to be issued")
}

func TestCodeGeneratorLookupError(t *testing.T) {
	g := NewCodeGenerator(8, 3)
	boom := errors.New("db down")
	_, err := g.Generate(context.Background(), func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}
