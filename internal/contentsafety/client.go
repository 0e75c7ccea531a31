package contentsafety

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"artgallery/internal/config"
)

var (
	classifyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_classifier_requests_total",
			Help: "Content safety classification calls by media kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	classifyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_classifier_request_duration_seconds",
			Help:    "Latency of content safety classification calls including retries.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

// Classifier scores content against the harm categories.
type Classifier interface {
	Classify(ctx context.Context, kind MediaKind, content []byte, blocklists []string) (Result, error)
}

// Client calls the remote content safety analyze endpoints.
type Client struct {
	endpoint   string
	apiKey     string
	apiVersion string
	httpClient *http.Client
	maxRetries uint64
	backoff    time.Duration
	log        zerolog.Logger
}

func NewClient(cfg config.ContentSafetyConfig, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
		backoff:    200 * time.Millisecond,
		log:        log,
	}
}

type textRequest struct {
	Text           string   `json:"text"`
	BlocklistNames []string `json:"blocklistNames"`
}

type imageRequest struct {
	Image imageContent `json:"image"`
}

type imageContent struct {
	Content string `json:"content"`
}

type categoryAnalysis struct {
	Category string `json:"category"`
	Severity *int   `json:"severity"`
}

type blocklistMatch struct {
	BlocklistName     string `json:"blocklistName"`
	BlocklistItemID   string `json:"blocklistItemId"`
	BlocklistItemText string `json:"blocklistItemText"`
}

type analyzeResponse struct {
	CategoriesAnalysis []categoryAnalysis `json:"categoriesAnalysis"`
	BlocklistsMatch    []blocklistMatch   `json:"blocklistsMatch"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) buildURL(kind MediaKind) (string, error) {
	switch kind {
	case MediaText:
		return fmt.Sprintf("%s/contentsafety/text:analyze?api-version=%s", c.endpoint, c.apiVersion), nil
	case MediaImage:
		return fmt.Sprintf("%s/contentsafety/image:analyze?api-version=%s", c.endpoint, c.apiVersion), nil
	default:
		return "", fmt.Errorf("invalid media kind %s", kind)
	}
}

func buildRequestBody(kind MediaKind, content []byte, blocklists []string) ([]byte, error) {
	switch kind {
	case MediaText:
		if blocklists == nil {
			blocklists = []string{}
		}
		return sonic.Marshal(textRequest{Text: string(content), BlocklistNames: blocklists})
	case MediaImage:
		return sonic.Marshal(imageRequest{Image: imageContent{Content: base64.StdEncoding.EncodeToString(content)}})
	default:
		return nil, fmt.Errorf("invalid media kind %s", kind)
	}
}

// Classify submits content once, repeating transient failures with
// exponential backoff up to the configured retry budget.
func (c *Client) Classify(ctx context.Context, kind MediaKind, content []byte, blocklists []string) (Result, error) {
	url, err := c.buildURL(kind)
	if err != nil {
		return Result{}, err
	}
	body, err := buildRequestBody(kind, content, blocklists)
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	start := time.Now()
	var result Result
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, err := c.analyze(ctx, url, body)
		if err != nil {
			if isTransient(err) {
				c.log.Warn().Err(err).Str("kind", kind.String()).Msg("classifier call failed, retrying")
				return retry.RetryableError(err)
			}
			return err
		}
		result = res
		return nil
	})
	classifyDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		classifyRequestsTotal.WithLabelValues(kind.String(), "error").Inc()
		return Result{}, err
	}
	classifyRequestsTotal.WithLabelValues(kind.String(), "ok").Inc()
	return result, nil
}

func (c *Client) analyze(ctx context.Context, url string, body []byte) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		classifierErr := &ClassifierError{StatusCode: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: string(raw)}
		var payload errorResponse
		if err := sonic.Unmarshal(raw, &payload); err == nil && payload.Error.Code != "" {
			classifierErr.Code = payload.Error.Code
			classifierErr.Message = payload.Error.Message
		}
		return Result{}, classifierErr
	}

	var payload analyzeResponse
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return payload.toResult()
}

func (r analyzeResponse) toResult() (Result, error) {
	result := Result{Severities: make(map[Category]Severity, len(r.CategoriesAnalysis))}
	for _, analysis := range r.CategoriesAnalysis {
		category, ok := ParseCategory(analysis.Category)
		if !ok {
			continue
		}
		if analysis.Severity == nil {
			return Result{}, fmt.Errorf("%w: no severity for %s", ErrMalformedResponse, analysis.Category)
		}
		severity := Severity(*analysis.Severity)
		if !severity.Valid() {
			return Result{}, fmt.Errorf("%w: severity %d for %s", ErrMalformedResponse, *analysis.Severity, analysis.Category)
		}
		result.Severities[category] = severity
	}
	for _, match := range r.BlocklistsMatch {
		result.BlocklistMatches = append(result.BlocklistMatches, BlocklistMatch{
			BlocklistName: match.BlocklistName,
			ItemID:        match.BlocklistItemID,
			ItemText:      match.BlocklistItemText,
		})
	}
	return result, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var classifierErr *ClassifierError
	if errors.As(err, &classifierErr) {
		return classifierErr.Temporary()
	}
	return !errors.Is(err, ErrMalformedResponse)
}

// Unavailable is wired when no classifier endpoint is configured. Every call
// fails, so image content can never be published unchecked.
type Unavailable struct{}

func (Unavailable) Classify(context.Context, MediaKind, []byte, []string) (Result, error) {
	return Result{}, ErrNotConfigured
}
