package group

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"
)

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CodeLength      = 6
	maxCodeAttempts = 100
)

var errCodeSpaceExhausted = errors.New("no free group code after max attempts")

// RandSource is the subset of *rand.Rand used to draw codes and hero images.
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from math/rand/v2's concurrency-safe global source.
func DefaultRand() RandSource { return globalRand{} }

// CodeGenerator draws join codes until Exists reports a free one.
type CodeGenerator struct {
	Rand   RandSource
	Exists func(ctx context.Context, code string) (bool, error)
}

func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := g.draw()
		taken, err := g.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperr.Storage("generate group code", errCodeSpaceExhausted)
}

func (g *CodeGenerator) draw() string {
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(codeAlphabet[g.Rand.IntN(len(codeAlphabet))])
	}
	return b.String()
}

// NormalizeCode upper-cases user input so lookups are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(codeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
