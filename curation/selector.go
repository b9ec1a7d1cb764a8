package curation

import "sort"

// CandidateSelector scores and ranks one scene's candidate pool,
// enforcing source/kind diversity across the top picks and excluding
// anything already used in the project. Pure computation, no I/O.
type CandidateSelector struct{}

type providerKind struct {
	provider Provider
	kind     MediaKind
}

// Select returns up to targetCount candidates ordered by total score.
// A short (or empty) result is not an error here; the caller decides
// whether that triggers a retry or fallback.
func (CandidateSelector) Select(candidates []MediaCandidate, targetCount int, req SceneMediaRequest, dedup *DedupState, order []Provider) []ScoredCandidate {
	if targetCount <= 0 {
		return nil
	}

	locationContent := isLocationContent(req)

	// Pre-filter: drop anything whose URLs are already used.
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if dedup != nil && (dedup.HasURL(c.PageURL) || dedup.HasURL(c.DownloadURL)) {
			continue
		}
		sc := ScoredCandidate{
			MediaCandidate: c,
			RelevanceScore: scoreRelevance(c, req, locationContent),
			QualityScore:   scoreQuality(c),
			SourceScore:    scoreSource(c, order, locationContent),
		}
		sc.TotalScore = sc.RelevanceScore*weightRelevance + sc.QualityScore*weightQuality + sc.SourceScore*weightSource
		scored = append(scored, sc)
	}

	// Deterministic ranking: total score descending, candidate ID as
	// the tie-break so equal inputs always produce the same order.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].TotalScore != scored[j].TotalScore {
			return scored[i].TotalScore > scored[j].TotalScore
		}
		return scored[i].ID < scored[j].ID
	})

	// Diversity-constrained pick: for the first half of the slots,
	// skip candidates whose (provider, kind) pair was already picked,
	// so one provider can't fill the whole scene. Once half the slots
	// are filled, relax and take the next best regardless.
	diverseSlots := (targetCount + 1) / 2
	picked := make([]ScoredCandidate, 0, targetCount)
	pickedPairs := make(map[providerKind]struct{})
	usedIdx := make(map[int]struct{})

	for i, sc := range scored {
		if len(picked) >= diverseSlots {
			break
		}
		pair := providerKind{sc.Provider, sc.Kind}
		if _, ok := pickedPairs[pair]; ok {
			continue
		}
		pickedPairs[pair] = struct{}{}
		usedIdx[i] = struct{}{}
		picked = append(picked, sc)
	}

	for i, sc := range scored {
		if len(picked) >= targetCount {
			break
		}
		if _, ok := usedIdx[i]; ok {
			continue
		}
		picked = append(picked, sc)
	}

	// The diversity pass can promote lower-ranked candidates ahead of
	// skipped ones; that ordering is intentional and kept.
	return picked
}
