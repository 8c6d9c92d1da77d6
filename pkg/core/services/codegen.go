package services

import (
	"encoding/hex"

	"github.com/google/uuid"
)

const (
	DefaultCodeLength = 8
	maxCodeLength     = 32 // hex digits in a UUID
)

// CodeGenerator hands out short codes. Uniqueness of custom codes is the
// caller's problem; random codes come from a v4 UUID.
type CodeGenerator struct {
	length int
}

func NewCodeGenerator(length int) *CodeGenerator {
	if length <= 0 {
		length = DefaultCodeLength
	}
	return &CodeGenerator{length: min(length, maxCodeLength)}
}

// Generate returns customCode verbatim when set, otherwise the first
// length hex digits of a random UUID.
func (g *CodeGenerator) Generate(customCode string) (string, error) {
	if customCode != "" {
		return customCode, nil
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(id[:])[:g.length], nil
}
