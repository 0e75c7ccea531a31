package moderation

import "artgallery/internal/contentsafety"

type Source string

const (
	SourceKeywords   Source = "keywords"
	SourceClassifier Source = "classifier"
)

type Rule int

const (
	RuleNone Rule = iota
	RuleRestrictedMinor
	RuleRestrictedPhotoreal
	RuleRestricted
)

// Outcome is the result of one moderation evaluation. It is never persisted.
type Outcome struct {
	Flagged bool
	Reason  string
	Source  Source
	Rule    Rule
	// CountsTowardFlags marks keyword matches that bump the user's flag counter.
	CountsTowardFlags bool
	Severities        map[contentsafety.Category]contentsafety.Severity
	Decision          *contentsafety.Decision
}

func (o Outcome) result() string {
	if o.Flagged {
		return "rejected"
	}
	return "accepted"
}
