package group

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet excludes 0/O/1/I to keep invite codes easy to read aloud
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the length of group invite codes
const CodeLength = 6

// GenerateCode returns a random invite code drawn from codeAlphabet
func GenerateCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	code := make([]byte, CodeLength)
	for i, b := range buf {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}

	return string(code), nil
}
