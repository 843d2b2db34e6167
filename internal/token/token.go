// Package token mints opaque verification tokens.
package token

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Length is the token size in base62 characters (about 190 bits).
const Length = 32

// Generator mixes the capture identity, a nanosecond timestamp and fresh
// randomness through BLAKE2b, so a token reveals none of its inputs.
type Generator struct {
	Now    func() time.Time
	Random func(b []byte) (int, error)
}

func NewGenerator() *Generator {
	return &Generator{Now: time.Now, Random: rand.Read}
}

func (g *Generator) New(email, variant string) (string, error) {
	salt := make([]byte, 32)
	if _, err := g.Random(salt); err != nil {
		return "", fmt.Errorf("token entropy: %w", err)
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(g.Now().UnixNano()))

	h.Write([]byte(email))
	h.Write([]byte{0})
	h.Write([]byte(variant))
	h.Write([]byte{0})
	h.Write(ts[:])
	h.Write(salt)

	return encode(h.Sum(nil)), nil
}

// encode renders digest in base62 ([0-9a-zA-Z]), fixed to Length chars.
func encode(digest []byte) string {
	s := new(big.Int).SetBytes(digest).Text(62)
	if len(s) >= Length {
		return s[:Length]
	}
	return strings.Repeat("0", Length-len(s)) + s
}

// Valid reports whether s has the shape of a minted token.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}
