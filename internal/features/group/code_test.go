package group

import (
	"context"
	"errors"
	"testing"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRand replays fixed draws, then repeats the last one.
type scriptedRand struct {
	draws []int
	pos   int
}

func (r *scriptedRand) IntN(n int) int {
	v := r.draws[min(r.pos, len(r.draws)-1)]
	r.pos++
	return v % n
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestGenerate_RetriesOnCollision(t *testing.T) {
	// First code is AAAAAA (taken), second is BBBBBB.
	draws := append(repeat(0, CodeLength), repeat(1, CodeLength)...)
	existing := map[string]bool{"AAAAAA": true}
	var checked []string

	gen := &CodeGenerator{
		Rand: &scriptedRand{draws: draws},
		Exists: func(ctx context.Context, code string) (bool, error) {
			checked = append(checked, code)
			return existing[code], nil
		},
	}

	code, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", code)
	assert.Equal(t, []string{"AAAAAA", "BBBBBB"}, checked)
	assert.False(t, existing[code])
}

func TestGenerate_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	gen := &CodeGenerator{
		Rand: &scriptedRand{draws: []int{7}},
		Exists: func(ctx context.Context, code string) (bool, error) {
			calls++
			return true, nil
		},
	}

	_, err := gen.Generate(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrStorage))
	assert.Equal(t, maxCodeAttempts, calls)
}

func TestGenerate_PropagatesLookupError(t *testing.T) {
	boom := errors.New("boom")
	gen := &CodeGenerator{
		Rand:   DefaultRand(),
		Exists: func(ctx context.Context, code string) (bool, error) { return false, boom },
	}
	_, err := gen.Generate(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestGenerate_DefaultRandProducesValidCodes(t *testing.T) {
	gen := &CodeGenerator{
		Rand:   DefaultRand(),
		Exists: func(ctx context.Context, code string) (bool, error) { return false, nil },
	}
	for i := 0; i < 200; i++ {
		code, err := gen.Generate(context.Background())
		require.NoError(t, err)
		assert.True(t, ValidCode(code), code)
	}
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("AB12CD"))
	assert.False(t, ValidCode("ab12cd"))
	assert.False(t, ValidCode("AB12C"))
	assert.False(t, ValidCode("AB12CD7"))
	assert.False(t, ValidCode("AB-2CD"))
	assert.True(t, ValidCode(NormalizeCode(" ab12cd ")))
}
