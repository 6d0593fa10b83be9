package orders

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberSuffix   = 6
)

// NumberGenerator produces order numbers of the form PREFIX-yyyymmddHHMMSS-XXXXXX.
type NumberGenerator struct {
	Prefix string
	Clock  func() time.Time
	Rand   io.Reader
}

// NewNumberGenerator uses crypto/rand and the wall clock.
func NewNumberGenerator(prefix string) *NumberGenerator {
	if strings.TrimSpace(prefix) == "" {
		prefix = "ORD"
	}
	return &NumberGenerator{Prefix: prefix, Clock: time.Now, Rand: rand.Reader}
}

// Next returns a fresh number. Uniqueness is enforced by the database.
func (g *NumberGenerator) Next() string {
	buf := make([]byte, orderNumberSuffix)
	if _, err := io.ReadFull(g.Rand, buf); err != nil {
		// crypto/rand does not fail on supported platforms; fall back to the clock.
		nanos := g.Clock().UnixNano()
		for i := range buf {
			buf[i] = byte(nanos >> (8 * i))
		}
	}
	suffix := make([]byte, orderNumberSuffix)
	for i, b := range buf {
		suffix[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("%s-%s-%s", g.Prefix, g.Clock().UTC().Format("20060102150405"), suffix)
}
