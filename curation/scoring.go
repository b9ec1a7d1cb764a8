package curation

import "strings"

// Scoring constants live here so they can be tuned in one place.
// The weights split total score 50/30/20 across relevance, quality and
// source priority.
const (
	weightRelevance = 0.5
	weightQuality   = 0.3
	weightSource    = 0.2

	relevanceBase     = 50.0
	keywordOverlapMax = 30.0
	kindMatchBonus    = 10.0
	placeContentBonus = 10.0
	placeRatingBonus  = 5.0
	placeRatingFloor  = 4.3
	attractionBonus   = 5.0

	qualityBase       = 50.0
	widthTierHigh     = 1920
	widthTierHighPts  = 30.0
	widthTierMid      = 1280
	widthTierMidPts   = 15.0
	aspectBonus       = 10.0
	aspectRatioMin    = 1.5
	aspectRatioMax    = 2.0
	clipDurationBonus = 10.0
	clipUsableMinSec  = 5.0
	clipUsableMaxSec  = 30.0

	sourceTopScore   = 100.0
	sourceStepDown   = 25.0
	placeSourceBoost = 20.0
)

// travelTerms is a small lexicon used to detect location-centric scenes,
// which boosts place-search candidates.
var travelTerms = []string{
	"city", "tower", "beach", "mountain", "skyline", "landmark",
	"temple", "island", "park", "bridge", "castle", "museum",
	"travel", "street", "harbor", "cathedral",
}

func isLocationContent(req SceneMediaRequest) bool {
	probe := strings.ToLower(strings.Join(req.SearchKeywords, " ") + " " + req.Context.Title)
	for _, t := range travelTerms {
		if strings.Contains(probe, t) {
			return true
		}
	}
	return false
}

// scoreRelevance: base 50 plus keyword overlap with the candidate's
// tags, a bonus when the candidate kind matches the pacing strategy,
// and place-provider bonuses for location-centric content.
func scoreRelevance(c MediaCandidate, req SceneMediaRequest, locationContent bool) float64 {
	score := relevanceBase

	if len(req.SearchKeywords) > 0 && len(c.Tags) > 0 {
		tagSet := make(map[string]struct{}, len(c.Tags))
		for _, t := range c.Tags {
			tagSet[strings.ToLower(t)] = struct{}{}
		}
		matched := 0
		total := 0
		for _, kw := range req.SearchKeywords {
			for _, word := range strings.Fields(strings.ToLower(kw)) {
				total++
				if _, ok := tagSet[word]; ok {
					matched++
				}
			}
		}
		if total > 0 {
			score += keywordOverlapMax * float64(matched) / float64(total)
		}
	}

	if c.Kind == KindVideo && req.Pacing.Strategy == "dynamic" {
		score += kindMatchBonus
	}
	if c.Kind == KindImage && req.Pacing.Strategy == "slow" {
		score += kindMatchBonus
	}

	if c.Provider == ProviderPlaces && locationContent {
		score += placeContentBonus
		if c.PlaceRating >= placeRatingFloor {
			score += placeRatingBonus
		}
		for _, t := range c.PlaceTypes {
			if t == "tourist_attraction" {
				score += attractionBonus
				break
			}
		}
	}

	return clampScore(score)
}

// scoreQuality: base 50 plus resolution tier, landscape aspect-ratio
// bonus, and a usable-clip-duration bonus for videos.
func scoreQuality(c MediaCandidate) float64 {
	score := qualityBase

	switch {
	case c.Width >= widthTierHigh:
		score += widthTierHighPts
	case c.Width >= widthTierMid:
		score += widthTierMidPts
	}

	if c.Height > 0 {
		ratio := float64(c.Width) / float64(c.Height)
		if ratio >= aspectRatioMin && ratio <= aspectRatioMax {
			score += aspectBonus
		}
	}

	if c.Kind == KindVideo && c.DurationSeconds >= clipUsableMinSec && c.DurationSeconds <= clipUsableMaxSec {
		score += clipDurationBonus
	}

	return clampScore(score)
}

// scoreSource: earlier position in the rotated provider order scores
// higher; the place provider gets a fixed boost for location content.
func scoreSource(c MediaCandidate, order []Provider, locationContent bool) float64 {
	score := 0.0
	for i, p := range order {
		if p == c.Provider {
			score = sourceTopScore - float64(i)*sourceStepDown
			break
		}
	}
	if c.Provider == ProviderPlaces && locationContent {
		score += placeSourceBoost
	}
	return clampScore(score)
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
