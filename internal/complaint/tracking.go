package complaint

import (
	"math/rand/v2"
	"strings"
	"sync"

	"civiceye/backend/internal/config"
	"civiceye/backend/internal/models"
)

const (
	anonymousAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	base36Digits      = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// IDGenerator produces tracking identifiers from a non-cryptographic source.
type IDGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewIDGenerator uses src, or the runtime's global source when src is nil.
func NewIDGenerator(src rand.Source) *IDGenerator {
	g := &IDGenerator{}
	if src != nil {
		g.rnd = rand.New(src)
	}
	return g
}

func (g *IDGenerator) intN(n int) int {
	if g.rnd == nil {
		return rand.IntN(n)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.IntN(n)
}

func (g *IDGenerator) float() float64 {
	if g.rnd == nil {
		return rand.Float64()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64()
}

// Anonymous returns "ANON-" followed by six symbols of [A-Z0-9].
func (g *IDGenerator) Anonymous() string {
	var b strings.Builder
	b.WriteString(config.AnonymousIDPrefix)
	for i := 0; i < config.TrackingIDLength; i++ {
		b.WriteByte(anonymousAlphabet[g.intN(len(anonymousAlphabet))])
	}
	return b.String()
}

// Civic returns "CIV-" followed by the first six base-36 digits of a random
// fraction, upper-cased.
func (g *IDGenerator) Civic() string {
	f := g.float()
	var b strings.Builder
	b.WriteString(config.CivicIDPrefix)
	for i := 0; i < config.TrackingIDLength; i++ {
		f *= 36
		d := int(f)
		f -= float64(d)
		b.WriteByte(base36Digits[d])
	}
	return strings.ToUpper(b.String())
}

// For returns a fresh identifier in the namespace of the given type.
func (g *IDGenerator) For(t models.ComplaintType) string {
	if t.Anonymous() {
		return g.Anonymous()
	}
	return g.Civic()
}

var defaultIDs = NewIDGenerator(nil)

func NewAnonymousID() string { return defaultIDs.Anonymous() }

func NewCivicID() string { return defaultIDs.Civic() }
