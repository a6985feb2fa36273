package id

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// UUIDGenerator issues random identifiers backed by crypto/rand.
type UUIDGenerator struct {
	prefix string
}

func NewUUIDGenerator() *UUIDGenerator { return &UUIDGenerator{} }

// NewReferenceGenerator returns a generator whose ids carry prefix, e.g.
// "chat-" for payment references. Only characters accepted by Paystack
// references ([A-Za-z0-9.=-]) should be used in prefix.
func NewReferenceGenerator(prefix string) *UUIDGenerator {
	return &UUIDGenerator{prefix: prefix}
}

func (g *UUIDGenerator) NewID() string {
	return g.prefix + uuid.NewString()
}

// NewToken returns 16 random bytes hex encoded, suitable for cookies.
func (g *UUIDGenerator) NewToken() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
