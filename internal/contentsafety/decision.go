package contentsafety

import (
	"errors"
	"fmt"
)

type Action int

const (
	ActionAccept Action = iota + 1
	ActionReject
)

func (a Action) String() string {
	if a == ActionReject {
		return "reject"
	}
	return "accept"
}

type BlocklistMatch struct {
	BlocklistName string
	ItemID        string
	ItemText      string
}

// Result is the classifier output for one piece of content.
type Result struct {
	Severities       map[Category]Severity
	BlocklistMatches []BlocklistMatch
}

type Decision struct {
	SuggestedAction  Action
	ActionByCategory map[Category]Action
}

func (d Decision) Rejected() bool {
	return d.SuggestedAction == ActionReject
}

// RejectedCategories returns the categories that crossed their threshold.
func (d Decision) RejectedCategories() []Category {
	var out []Category
	for _, c := range Categories {
		if d.ActionByCategory[c] == ActionReject {
			out = append(out, c)
		}
	}
	return out
}

var ErrMissingCategory = errors.New("classification result has no severity for category")

// Decide applies thresholds to a classification result. A category rejects
// when its severity reaches the threshold; any blocklist match rejects the
// whole decision regardless of scores.
func Decide(result Result, thresholds Thresholds) (Decision, error) {
	if err := thresholds.Validate(); err != nil {
		return Decision{}, err
	}

	decision := Decision{
		SuggestedAction:  ActionAccept,
		ActionByCategory: make(map[Category]Action, len(Categories)),
	}

	for _, c := range Categories {
		threshold := thresholds.For(c)
		if threshold == ThresholdDisabled {
			decision.ActionByCategory[c] = ActionAccept
			continue
		}

		severity, ok := result.Severities[c]
		if !ok {
			return Decision{}, fmt.Errorf("%w: %s", ErrMissingCategory, c)
		}

		action := ActionAccept
		if int(severity) >= int(threshold) {
			action = ActionReject
			decision.SuggestedAction = ActionReject
		}
		decision.ActionByCategory[c] = action
	}

	if len(result.BlocklistMatches) > 0 {
		decision.SuggestedAction = ActionReject
	}

	return decision, nil
}
