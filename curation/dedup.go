package curation

import "sync"

// DedupState is the only state shared across scenes in a project run:
// the set of content hashes and URLs already committed. Mutations are
// append-only and atomic (check-and-insert) so concurrent downloads
// cannot double-accept near-duplicate candidates.
type DedupState struct {
	mu         sync.Mutex
	usedHashes map[string]struct{}
	usedURLs   map[string]struct{}
}

func NewDedupState() *DedupState {
	return &DedupState{
		usedHashes: make(map[string]struct{}),
		usedURLs:   make(map[string]struct{}),
	}
}

// SeedURLs pre-populates the used-URL set, e.g. from assets persisted by
// earlier runs of the same series.
func (d *DedupState) SeedURLs(urls []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range urls {
		if u != "" {
			d.usedURLs[u] = struct{}{}
		}
	}
}

// HasURL reports whether a URL has already been used. Checked before a
// download is even attempted.
func (d *DedupState) HasURL(url string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.usedURLs[url]
	return ok
}

// Commit atomically checks the hash and URLs against the used sets and,
// if all are new, inserts them. Returns false without mutating anything
// when the hash or any URL was already present. Nothing is counted as
// used until its download survived validation, so a failed download
// never poisons the state.
func (d *DedupState) Commit(hash string, urls ...string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.usedHashes[hash]; ok {
		return false
	}
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := d.usedURLs[u]; ok {
			return false
		}
	}

	d.usedHashes[hash] = struct{}{}
	for _, u := range urls {
		if u != "" {
			d.usedURLs[u] = struct{}{}
		}
	}
	return true
}

// Counts returns the number of committed hashes and URLs.
func (d *DedupState) Counts() (hashes, urls int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.usedHashes), len(d.usedURLs)
}
