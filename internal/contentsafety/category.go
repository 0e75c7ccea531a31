package contentsafety

import (
	"errors"
	"fmt"
)

type MediaKind int

const (
	MediaText MediaKind = iota + 1
	MediaImage
)

func (k MediaKind) String() string {
	switch k {
	case MediaText:
		return "text"
	case MediaImage:
		return "image"
	default:
		return fmt.Sprintf("media(%d)", int(k))
	}
}

// Category is one of the four harm categories the classifier scores.
type Category string

const (
	CategoryHate     Category = "Hate"
	CategorySelfHarm Category = "SelfHarm"
	CategorySexual   Category = "Sexual"
	CategoryViolence Category = "Violence"
)

// Categories lists every category in evaluation order.
var Categories = [...]Category{CategoryHate, CategorySelfHarm, CategorySexual, CategoryViolence}

func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// Severity is ordinal. The service only ever emits 0, 2, 4 and 6.
type Severity int

func (s Severity) Valid() bool {
	switch s {
	case 0, 2, 4, 6:
		return true
	}
	return false
}

// Threshold is the per-category cutoff: severity >= threshold rejects.
type Threshold int

const ThresholdDisabled Threshold = -1

func (t Threshold) Valid() bool {
	switch t {
	case ThresholdDisabled, 0, 2, 4, 6:
		return true
	}
	return false
}

var ErrInvalidThreshold = errors.New("reject threshold can only be -1, 0, 2, 4 or 6")

// Thresholds carries one threshold per category, so a category can never be
// misspelled or forgotten.
type Thresholds struct {
	Hate     Threshold
	SelfHarm Threshold
	Sexual   Threshold
	Violence Threshold
}

func (t Thresholds) For(c Category) Threshold {
	switch c {
	case CategoryHate:
		return t.Hate
	case CategorySelfHarm:
		return t.SelfHarm
	case CategorySexual:
		return t.Sexual
	case CategoryViolence:
		return t.Violence
	default:
		return ThresholdDisabled
	}
}

func (t Thresholds) Validate() error {
	for _, c := range Categories {
		if v := t.For(c); !v.Valid() {
			return fmt.Errorf("%w: %s=%d", ErrInvalidThreshold, c, int(v))
		}
	}
	return nil
}
