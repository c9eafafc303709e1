package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talentscoutke/talentscout-backend/internal/config"
	"github.com/talentscoutke/talentscout-backend/internal/logger"
	"github.com/talentscoutke/talentscout-backend/internal/types"
)

// ScoringClient encapsulates the external generative model as a single
// deterministic-contract call: video in, AnalysisResult out.
type ScoringClient interface {
	ScoreVideo(ctx context.Context, videoURL, sport, position string, age int) (*types.AnalysisResult, error)
}

type geminiClient struct {
	log             *logger.Logger
	baseURL         string
	apiKey          string
	model           string
	temperature     float64
	analysisVersion string

	httpClient  *http.Client
	fetchClient *http.Client

	maxRetries int
}

func NewGeminiClient(log *logger.Logger, scoring config.ScoringPolicy) (ScoringClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}

	baseURL := os.Getenv("GEMINI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	// Default generation timeout is high: scoring a full clip is a slow call.
	timeoutSec := 180
	if v := os.Getenv("GEMINI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 3
	if v := os.Getenv("GEMINI_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &geminiClient{
		log:             log.With("service", "GeminiClient"),
		baseURL:         baseURL,
		apiKey:          apiKey,
		model:           scoring.Model,
		temperature:     scoring.Temperature,
		analysisVersion: scoring.AnalysisVersion,
		httpClient:      &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		fetchClient:     &http.Client{Timeout: 2 * time.Minute},
		maxRetries:      maxRetries,
	}, nil
}

type geminiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *geminiHTTPError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	if code >= 500 && code <= 599 {
		return true
	}
	return false
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
	}
	var httpErr *geminiHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		if fetchErr.Status == 0 {
			return true
		}
		return isRetryableHTTP(fetchErr.Status)
	}
	return false
}

func jitterSleep(base time.Duration) time.Duration {
	// +/- 20%
	if base <= 0 {
		return 0
	}
	j := 0.2
	delta := base.Seconds() * j
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(high-low)
	return time.Duration(v * float64(time.Second))
}

func (c *geminiClient) ScoreVideo(ctx context.Context, videoURL, sport, position string, age int) (*types.AnalysisResult, error) {
	videoData, mimeType, err := c.fetchWithRetry(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	req := geminiRequest{
		Contents: []geminiContent{
			{
				Role: "user",
				Parts: []geminiPart{
					{Text: c.buildPrompt(sport, position, age)},
					{InlineData: &geminiInlineData{
						MimeType: mimeType,
						Data:     base64.StdEncoding.EncodeToString(videoData),
					}},
				},
			},
		},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     c.temperature,
			TopP:            1,
			TopK:            32,
			MaxOutputTokens: 4096,
		},
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.model)
	var resp geminiResponse
	if err := c.do(ctx, path, req, &resp); err != nil {
		return nil, err
	}

	text := resp.text()
	if text == "" {
		return nil, &MalformedResponseError{Msg: "model returned no text"}
	}

	result, err := parseAnalysisResult(text)
	if err != nil {
		return nil, err
	}
	result.AnalysisVersion = c.analysisVersion
	return result, nil
}

// fetchWithRetry pulls the raw video bytes the blob store is serving. This is
// the single most fragile boundary in the pipeline, so transient failures are
// retried under the same policy as model calls.
func (c *geminiClient) fetchWithRetry(ctx context.Context, videoURL string) ([]byte, string, error) {
	backoff := 1 * time.Second
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}

		data, err := c.fetchOnce(ctx, videoURL)
		if err == nil {
			return data, mimeTypeForURL(videoURL), nil
		}
		lastErr = err

		if !isRetryableErr(err) || attempt == c.maxRetries {
			return nil, "", err
		}

		sleepFor := jitterSleep(backoff)
		c.log.Warn("Video fetch retrying",
			"url", videoURL,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		time.Sleep(sleepFor)
		backoff *= 2
	}
	return nil, "", lastErr
}

func (c *geminiClient) fetchOnce(ctx context.Context, videoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	resp, err := c.fetchClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Status: resp.StatusCode, Err: fmt.Errorf("GET %s: status %d", videoURL, resp.StatusCode)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	return data, nil
}

func (c *geminiClient) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &geminiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *geminiClient) do(ctx context.Context, path string, body any, out any) error {
	// exponential backoff: 1s, 2s, 4s (cap 10s)
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, path, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return &MalformedResponseError{Msg: "undecodable model envelope", Err: uErr}
			}
			return nil
		}

		if !isRetryableErr(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		sleepFor := backoff
		if resp != nil {
			ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
			if ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}
		sleepFor = jitterSleep(sleepFor)

		c.log.Warn("Gemini request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

func (c *geminiClient) buildPrompt(sport, position string, age int) string {
	return fmt.Sprintf(`Analyze this %s player video for a %d-year-old %s.
Provide objective performance analysis focusing on:

1. Technical Skills (ball control, passing accuracy, shooting technique)
2. Physical Attributes (speed, agility, strength, endurance)
3. Tactical Awareness (positioning, decision making, game reading)
4. Mental Strength (composure, leadership, resilience)

Rate each category from 1-100 and provide an overall score.
Give specific recommendations for improvement and highlight key strengths.
Be objective and merit-based in your assessment.

Format your response as JSON with the following structure:
{
  "overallScore": number,
  "technicalSkills": number,
  "physicalAttributes": number,
  "tacticalAwareness": number,
  "mentalStrength": number,
  "recommendations": ["recommendation1", "recommendation2"],
  "strengths": ["strength1", "strength2"],
  "areasForImprovement": ["area1", "area2"],
  "detailedAnalysis": "detailed analysis text"
}
Only respond with the JSON object, no additional text or markdown.`, sport, age, position)
}

// ---- Wire types ----

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func (r *geminiResponse) text() string {
	var sb strings.Builder
	for _, cand := range r.Candidates {
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// ---- Parsing ----

// rawAnalysisResult uses pointers for the five ratings so a missing field is
// distinguishable from a zero score.
type rawAnalysisResult struct {
	OverallScore        *float64 `json:"overallScore"`
	TechnicalSkills     *float64 `json:"technicalSkills"`
	PhysicalAttributes  *float64 `json:"physicalAttributes"`
	TacticalAwareness   *float64 `json:"tacticalAwareness"`
	MentalStrength      *float64 `json:"mentalStrength"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
	Recommendations     []string `json:"recommendations"`
	DetailedAnalysis    string   `json:"detailedAnalysis"`
}

// stripFences removes markdown code-fence wrapping the model emits despite
// being told not to.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func parseAnalysisResult(text string) (*types.AnalysisResult, error) {
	cleaned := stripFences(text)

	var raw rawAnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &MalformedResponseError{Msg: "model output is not valid JSON", Err: err}
	}

	missing := []string{}
	for name, field := range map[string]*float64{
		"overallScore":       raw.OverallScore,
		"technicalSkills":    raw.TechnicalSkills,
		"physicalAttributes": raw.PhysicalAttributes,
		"tacticalAwareness":  raw.TacticalAwareness,
		"mentalStrength":     raw.MentalStrength,
	} {
		if field == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MalformedResponseError{Msg: fmt.Sprintf("missing required numeric fields: %s", strings.Join(missing, ", "))}
	}

	return &types.AnalysisResult{
		OverallScore:        clampScore(*raw.OverallScore),
		TechnicalSkills:     clampScore(*raw.TechnicalSkills),
		PhysicalAttributes:  clampScore(*raw.PhysicalAttributes),
		TacticalAwareness:   clampScore(*raw.TacticalAwareness),
		MentalStrength:      clampScore(*raw.MentalStrength),
		Strengths:           raw.Strengths,
		AreasForImprovement: raw.AreasForImprovement,
		Recommendations:     raw.Recommendations,
		DetailedAnalysis:    raw.DetailedAnalysis,
	}, nil
}

func mimeTypeForURL(url string) string {
	trimmed := url
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	ext := ""
	if i := strings.LastIndex(trimmed, "."); i >= 0 {
		ext = strings.ToLower(trimmed[i+1:])
	}
	switch ext {
	case "mov":
		return "video/quicktime"
	case "avi":
		return "video/x-msvideo"
	case "webm":
		return "video/webm"
	default:
		return "video/mp4"
	}
}
