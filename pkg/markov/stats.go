package markov

// ChainStats holds aggregated statistics for a single chain.
type ChainStats struct {
	Keys         int `json:"keys"`          // The number of distinct bigram keys.
	Transitions  int `json:"transitions"`   // The sum of all successor list lengths; one per trained triple.
	Vocabulary   int `json:"vocabulary"`    // The number of distinct words appearing in keys or successors.
	DeadEnds     int `json:"dead_ends"`     // The number of distinct (key, successor) links that lead to a non-key.
	MaxBranching int `json:"max_branching"` // The largest number of distinct successors of any one key.
}

// Stats returns a snapshot of statistics for the chain.
func (c *Chain) Stats() ChainStats {
	var stats ChainStats
	if c == nil {
		return stats
	}

	vocab := make(map[string]struct{})
	for _, key := range c.keys {
		successors := c.links[key]
		stats.Transitions += len(successors)
		vocab[key.First] = struct{}{}
		vocab[key.Second] = struct{}{}

		distinct := make(map[string]struct{}, len(successors))
		for _, next := range successors {
			if _, seen := distinct[next]; seen {
				continue
			}
			distinct[next] = struct{}{}
			vocab[next] = struct{}{}
			if !c.Contains(BigramKey{First: key.Second, Second: next}) {
				stats.DeadEnds++
			}
		}
		if len(distinct) > stats.MaxBranching {
			stats.MaxBranching = len(distinct)
		}
	}

	stats.Keys = len(c.keys)
	stats.Vocabulary = len(vocab)
	return stats
}
