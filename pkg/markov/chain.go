package markov

// BigramKey is an ordered pair of adjacent words. It is comparable, so two
// keys with equal components are the same map key.
type BigramKey struct {
	First  string
	Second string
}

// String returns the pair joined by a single space.
func (k BigramKey) String() string {
	return k.First + " " + k.Second
}

// Chain maps each bigram to the words that followed it in the source text.
// Successor lists keep encounter order and duplicates. Keys are also kept in
// first-seen order so that walks driven by a seeded Selector are reproducible.
//
// A Chain must not be modified after it is built; reads are safe from
// multiple goroutines.
type Chain struct {
	keys  []BigramKey
	links map[BigramKey][]string
}

func newChain() *Chain {
	return &Chain{links: make(map[BigramKey][]string)}
}

// add appends next to the successor list of key, registering key on first use.
func (c *Chain) add(key BigramKey, next string) {
	successors, ok := c.links[key]
	if !ok {
		c.keys = append(c.keys, key)
	}
	c.links[key] = append(successors, next)
}

// Len returns the number of distinct bigram keys. A nil Chain has length 0.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns a copy of the chain's keys in first-seen order.
func (c *Chain) Keys() []BigramKey {
	if c == nil {
		return nil
	}
	keys := make([]BigramKey, len(c.keys))
	copy(keys, c.keys)
	return keys
}

// Successors returns the words observed after key and whether key exists.
// The returned slice is shared with the chain and must not be modified.
func (c *Chain) Successors(key BigramKey) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	successors, ok := c.links[key]
	return successors, ok
}

// Contains reports whether key has at least one successor.
func (c *Chain) Contains(key BigramKey) bool {
	_, ok := c.Successors(key)
	return ok
}

// Map returns a copy of the chain as a plain map.
func (c *Chain) Map() map[BigramKey][]string {
	m := make(map[BigramKey][]string, c.Len())
	if c == nil {
		return m
	}
	for key, successors := range c.links {
		m[key] = append([]string(nil), successors...)
	}
	return m
}
