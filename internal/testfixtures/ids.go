package testfixtures

import (
	"fmt"
	"strings"
	"sync"
)

// idLength matches the dash-less UUIDs generated for stored records.
const idLength = 32

// IDGenerator yields deterministic record identifiers of the same length as
// production ones: the prefix followed by a zero-padded counter.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewIDGenerator returns a generator for prefix. Prefixes longer than the
// identifier length are cut.
func NewIDGenerator(prefix string) *IDGenerator {
	if len(prefix) > idLength/2 {
		prefix = prefix[:idLength/2]
	}
	return &IDGenerator{prefix: strings.ToLower(prefix)}
}

// Next returns the next identifier.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s%0*d", g.prefix, idLength-len(g.prefix), g.counter)
}

// NextFunc exposes Next for repository constructors.
func (g *IDGenerator) NextFunc() func() string {
	return g.Next
}
