package orders

import (
	"crypto/rand"
	"fmt"
)

// simplifiedIDAlphabet omits easily-confused characters (0/O, 1/I/L)
// because customers read these codes over the phone.
const simplifiedIDAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const simplifiedIDLength = 8

// NewSimplifiedID generates a short, human-presentable order code
// like "FB-7K2M9XQD". Uniqueness is enforced by the orders table, not
// here; callers retry on collision.
func NewSimplifiedID() (string, error) {
	buf := make([]byte, simplifiedIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating order code: %w", err)
	}
	code := make([]byte, simplifiedIDLength)
	for i, b := range buf {
		code[i] = simplifiedIDAlphabet[int(b)%len(simplifiedIDAlphabet)]
	}
	return "FB-" + string(code), nil
}
