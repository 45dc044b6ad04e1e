// Package trackingcode produces the human-readable codes handed back to
// submitters, e.g. GC30-20250719-4721.
package trackingcode

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
)

// DefaultPrefix is the project prefix used when none is configured.
const DefaultPrefix = "GC30"

// Generator builds codes from a prefix, the current UTC date and a random
// four digit suffix. It does not check codes against existing records.
type Generator struct {
	prefix string
	now    func() time.Time
	intN   func(n int) int
}

// Option customizes a Generator.
type Option func(*Generator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithRand overrides the random source. intN must return a value in [0, n).
func WithRand(intN func(n int) int) Option {
	return func(g *Generator) {
		g.intN = intN
	}
}

// New creates a generator for the given prefix.
func New(prefix string, opts ...Option) *Generator {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	g := &Generator{
		prefix: prefix,
		now:    time.Now,
		intN:   rand.IntN,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a new code such as GC30-20250719-0042.
func (g *Generator) Generate() string {
	date := g.now().UTC().Format("20060102")
	return fmt.Sprintf("%s-%s-%04d", g.prefix, date, g.intN(10000))
}

var pattern = regexp.MustCompile(`^(.+)-(\d{8})-(\d{4})$`)

// Valid reports whether code has the PREFIX-YYYYMMDD-NNNN shape with a real
// calendar date.
func Valid(code string) bool {
	m := pattern.FindStringSubmatch(code)
	if m == nil {
		return false
	}
	_, err := time.Parse("20060102", m[2])
	return err == nil
}
