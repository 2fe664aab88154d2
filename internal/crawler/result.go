package crawler

import (
	"maps"
	"slices"
)

// Result is the outcome of a Download call.
// No URL appears both in Downloaded and as a key of Errors.
type Result struct {
	// Downloaded lists the URLs fetched successfully, sorted.
	Downloaded []string

	// Errors maps each failed URL to a *URLError.
	Errors map[string]error
}

// ErrorURLs returns the keys of Errors, sorted.
func (r *Result) ErrorURLs() []string {
	return slices.Sorted(maps.Keys(r.Errors))
}

func (r *Result) sort() {
	slices.Sort(r.Downloaded)
}
