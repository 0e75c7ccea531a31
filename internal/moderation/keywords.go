package moderation

import "strings"

// ReasonInappropriate is the user-facing reason for every rejection.
const ReasonInappropriate = "inappropriate content"

var (
	restrictedTerms = []string{
		"nude", "naked", "nudity", "nsfw", "porn", "sex", "explicit", "topless",
		"erotic", "lingerie", "undressed", "genital", "fetish",
	}
	minorTerms = []string{
		"child", "children", "kid", "minor", "underage", "teen", "toddler", "baby",
		"infant", "schoolgirl", "schoolboy", "young girl", "young boy", "loli", "preteen",
	}
	photorealTerms = []string{
		"photo", "realistic", "realism", "hyperreal", "lifelike", "cinematic", "dslr", "portrait",
	}
)

// KeywordFilter is the local pre-classification pass over prompt text.
// Matching is plain substring search, so it errs towards false positives.
type KeywordFilter struct {
	restricted []string
	minor      []string
	photoreal  []string
}

func NewKeywordFilter() *KeywordFilter {
	return &KeywordFilter{
		restricted: restrictedTerms,
		minor:      minorTerms,
		photoreal:  photorealTerms,
	}
}

// Evaluate applies the rules most severe first:
//
//  1. restricted and minor terms in the prompt: flagged, counted
//  2. restricted prompt with a photorealistic style: flagged, not counted
//  3. restricted prompt alone: flagged, counted
//
// Rule 2 not counting towards the user's flags matches established behaviour.
func (f *KeywordFilter) Evaluate(prompt, style string) Outcome {
	prompt = strings.ToLower(prompt)
	style = strings.ToLower(style)

	restricted := containsAny(prompt, f.restricted)
	switch {
	case restricted && containsAny(prompt, f.minor):
		return keywordReject(RuleRestrictedMinor, true)
	case restricted && containsAny(style, f.photoreal):
		return keywordReject(RuleRestrictedPhotoreal, false)
	case restricted:
		return keywordReject(RuleRestricted, true)
	default:
		return Outcome{}
	}
}

func keywordReject(rule Rule, counted bool) Outcome {
	return Outcome{
		Flagged:           true,
		Reason:            ReasonInappropriate,
		Source:            SourceKeywords,
		Rule:              rule,
		CountsTowardFlags: counted,
	}
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
