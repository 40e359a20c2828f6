package invite

import (
	"crypto/rand"
	"fmt"
)

// CodeLength is the length of every generated invite code.
const CodeLength = 8

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCode returns a random code of CodeLength uppercase letters and digits.
func GenerateCode() (string, error) {
	// largest multiple of len(codeAlphabet) that fits in a byte, to keep the
	// distribution uniform
	const limit = 256 - 256%len(codeAlphabet)

	out := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength*2)
	for len(out) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == CodeLength {
				break
			}
		}
	}
	return string(out), nil
}
