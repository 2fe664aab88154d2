package crawler

import "sync"

// visitedRegistry maps a URL to the deepest depth it has been scheduled at.
// A URL scheduled at depth d already covers every request at depth <= d.
type visitedRegistry struct {
	mu     sync.Mutex
	depths map[string]int
}

func newVisitedRegistry() *visitedRegistry {
	return &visitedRegistry{depths: make(map[string]int)}
}

// tryAdmit records depth for rawURL if it is deeper than anything recorded so
// far. admitted reports whether the caller should schedule a fetch; first
// reports whether this is the first time rawURL was admitted at all.
// Depth 0 never admits.
func (v *visitedRegistry) tryAdmit(rawURL string, depth int) (admitted, first bool) {
	if depth <= 0 {
		return false, false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	recorded, seen := v.depths[rawURL]
	if seen && recorded >= depth {
		return false, false
	}
	v.depths[rawURL] = depth
	return true, !seen
}

// depth returns the recorded depth for rawURL, or 0 if it was never admitted.
func (v *visitedRegistry) depth(rawURL string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.depths[rawURL]
}

// len returns the number of distinct URLs admitted.
func (v *visitedRegistry) len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.depths)
}
