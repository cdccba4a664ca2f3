// internal/nodeid/generator.go
package nodeid

import "sync"

// Generator hands out ids with a per-prefix incrementing counter.
type Generator struct {
	mu   sync.Mutex
	last map[string]int
}

// NewGenerator creates a generator whose counters all start at zero.
func NewGenerator() *Generator {
	return &Generator{last: make(map[string]int)}
}

// Observe advances the counter for id's prefix so that later ids never
// collide with it. Ids without the structured form are ignored.
func (g *Generator) Observe(id string) {
	addr, err := Parse(id)
	if err != nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if addr.Seq > g.last[addr.Prefix] {
		g.last[addr.Prefix] = addr.Seq
	}
}

// Next returns the next free address for prefix. taken reports ids that are
// already in use; those are skipped.
func (g *Generator) Next(prefix string, taken func(id string) bool) *Address {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		g.last[prefix]++
		addr := New(prefix, g.last[prefix])
		if taken == nil || !taken(addr.String()) {
			return addr
		}
	}
}

// Reset clears every counter.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = make(map[string]int)
}
