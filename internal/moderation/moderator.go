package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"artgallery/internal/config"
	"artgallery/internal/contentsafety"
)

var outcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gallery_moderation_outcomes_total",
		Help: "Moderation decisions by deciding stage and result.",
	},
	[]string{"source", "result"},
)

// ErrClassifierUnavailable means no authoritative decision could be made.
// Callers must treat it like a rejection.
var ErrClassifierUnavailable = errors.New("content classifier unavailable")

// FlagRecorder persists the cumulative per-user flag counter.
type FlagRecorder interface {
	IncrementFlagCount(ctx context.Context, userID string) (int, error)
}

// Submission is the content presented for publication.
type Submission struct {
	UserID string
	Prompt string
	Style  string
	// Image is nil for text-only content.
	Image []byte
}

type Moderator struct {
	keywords   *KeywordFilter
	classifier contentsafety.Classifier
	thresholds contentsafety.Thresholds
	blocklists []string
	flags      FlagRecorder
	log        zerolog.Logger
}

func NewModerator(
	keywords *KeywordFilter,
	classifier contentsafety.Classifier,
	flags FlagRecorder,
	cfs config.ContentSafetyConfig,
	log zerolog.Logger,
) (*Moderator, error) {
	thresholds := ThresholdsFromConfig(cfs.Thresholds)
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	if classifier == nil {
		classifier = contentsafety.Unavailable{}
	}
	return &Moderator{
		keywords:   keywords,
		classifier: classifier,
		thresholds: thresholds,
		blocklists: cfs.Blocklists,
		flags:      flags,
		log:        log,
	}, nil
}

func ThresholdsFromConfig(cfg config.ThresholdConfig) contentsafety.Thresholds {
	return contentsafety.Thresholds{
		Hate:     contentsafety.Threshold(cfg.Hate),
		SelfHarm: contentsafety.Threshold(cfg.SelfHarm),
		Sexual:   contentsafety.Threshold(cfg.Sexual),
		Violence: contentsafety.Threshold(cfg.Violence),
	}
}

// Screen runs the keyword pass only and records a flag for counted matches.
func (m *Moderator) Screen(ctx context.Context, userID, prompt, style string) Outcome {
	outcome := m.keywords.Evaluate(prompt, style)
	if outcome.Flagged && outcome.CountsTowardFlags {
		m.recordFlag(ctx, userID, outcome)
	}
	if outcome.Flagged {
		outcomesTotal.WithLabelValues(string(SourceKeywords), outcome.result()).Inc()
	}
	return outcome
}

// Review is the full pipeline: keyword pass first, then the classifier for
// every submission carrying an image. Classifier failures return
// ErrClassifierUnavailable.
func (m *Moderator) Review(ctx context.Context, sub Submission) (Outcome, error) {
	if outcome := m.Screen(ctx, sub.UserID, sub.Prompt, sub.Style); outcome.Flagged {
		return outcome, nil
	}

	if sub.Image == nil {
		outcomesTotal.WithLabelValues(string(SourceKeywords), "accepted").Inc()
		return Outcome{}, nil
	}

	result, err := m.classifier.Classify(ctx, contentsafety.MediaImage, sub.Image, m.blocklists)
	if err != nil {
		outcomesTotal.WithLabelValues(string(SourceClassifier), "error").Inc()
		m.log.Error().Err(err).Str("user_id", sub.UserID).Msg("image classification failed")
		return Outcome{}, fmt.Errorf("%w: %w", ErrClassifierUnavailable, err)
	}

	decision, err := contentsafety.Decide(result, m.thresholds)
	if err != nil {
		outcomesTotal.WithLabelValues(string(SourceClassifier), "error").Inc()
		return Outcome{}, fmt.Errorf("%w: %w", ErrClassifierUnavailable, err)
	}

	outcome := Outcome{
		Source:     SourceClassifier,
		Severities: result.Severities,
		Decision:   &decision,
	}
	if decision.Rejected() {
		outcome.Flagged = true
		outcome.Reason = ReasonInappropriate
		m.log.Info().
			Str("user_id", sub.UserID).
			Interface("categories", decision.RejectedCategories()).
			Int("blocklist_matches", len(result.BlocklistMatches)).
			Msg("classifier rejected image")
	}
	outcomesTotal.WithLabelValues(string(SourceClassifier), outcome.result()).Inc()
	return outcome, nil
}

func (m *Moderator) recordFlag(ctx context.Context, userID string, outcome Outcome) {
	if m.flags == nil || userID == "" {
		return
	}
	count, err := m.flags.IncrementFlagCount(ctx, userID)
	if err != nil {
		m.log.Error().Err(err).Str("user_id", userID).Msg("record moderation flag failed")
		return
	}
	m.log.Info().
		Str("user_id", userID).
		Int("rule", int(outcome.Rule)).
		Int("flag_count", count).
		Msg("prompt flagged by keyword filter")
}
