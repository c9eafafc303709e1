package services

import (
	"errors"
	"strings"
	"testing"
)

const validModelOutput = `{
	"overallScore": 82,
	"technicalSkills": 85,
	"physicalAttributes": 78,
	"tacticalAwareness": 80,
	"mentalStrength": 84,
	"strengths": ["first touch", "vision"],
	"areasForImprovement": ["weak foot"],
	"recommendations": ["practice left-footed finishing"],
	"detailedAnalysis": "Composed midfielder."
}`

func TestParseAnalysisResult(t *testing.T) {
	res, err := parseAnalysisResult(validModelOutput)
	if err != nil {
		t.Fatalf("parseAnalysisResult: %v", err)
	}
	if res.OverallScore != 82 || res.MentalStrength != 84 {
		t.Fatalf("scores not carried through: %+v", res)
	}
	if len(res.Strengths) != 2 || res.Strengths[0] != "first touch" {
		t.Fatalf("strengths order lost: %v", res.Strengths)
	}
	if res.DetailedAnalysis != "Composed midfielder." {
		t.Fatalf("detailed analysis = %q", res.DetailedAnalysis)
	}
}

func TestParseAnalysisResultStripsMarkdownFences(t *testing.T) {
	fenced := "```json\n" + validModelOutput + "\n```"
	res, err := parseAnalysisResult(fenced)
	if err != nil {
		t.Fatalf("parseAnalysisResult: %v", err)
	}
	if res.OverallScore != 82 {
		t.Fatalf("overallScore = %v, want 82", res.OverallScore)
	}
}

func TestParseAnalysisResultMissingScoreIsAnError(t *testing.T) {
	// overallScore absent entirely, not zero.
	missing := strings.Replace(validModelOutput, `"overallScore": 82,`, "", 1)
	_, err := parseAnalysisResult(missing)
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
	if !strings.Contains(err.Error(), "overallScore") {
		t.Fatalf("error should name the missing field: %v", err)
	}
}

func TestParseAnalysisResultZeroScoreIsValid(t *testing.T) {
	zeroed := strings.Replace(validModelOutput, `"overallScore": 82,`, `"overallScore": 0,`, 1)
	res, err := parseAnalysisResult(zeroed)
	if err != nil {
		t.Fatalf("a present zero score must not be treated as missing: %v", err)
	}
	if res.OverallScore != 0 {
		t.Fatalf("overallScore = %v, want 0", res.OverallScore)
	}
}

func TestParseAnalysisResultClampsOutOfRangeScores(t *testing.T) {
	clamped := strings.Replace(validModelOutput, `"overallScore": 82,`, `"overallScore": 140,`, 1)
	clamped = strings.Replace(clamped, `"technicalSkills": 85,`, `"technicalSkills": -3,`, 1)
	res, err := parseAnalysisResult(clamped)
	if err != nil {
		t.Fatalf("parseAnalysisResult: %v", err)
	}
	if res.OverallScore != 100 {
		t.Fatalf("overallScore = %v, want clamp to 100", res.OverallScore)
	}
	if res.TechnicalSkills != 0 {
		t.Fatalf("technicalSkills = %v, want clamp to 0", res.TechnicalSkills)
	}
}

func TestParseAnalysisResultRejectsNonJSON(t *testing.T) {
	_, err := parseAnalysisResult("I'm sorry, I cannot analyze this video.")
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := stripFences(tc.in); got != tc.want {
			t.Errorf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMimeTypeForURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://cdn.test/videos/a/b.mp4", "video/mp4"},
		{"https://cdn.test/videos/a/b.mov", "video/quicktime"},
		{"https://cdn.test/videos/a/b.webm", "video/webm"},
		{"https://cdn.test/videos/a/b.avi", "video/x-msvideo"},
		{"https://cdn.test/videos/a/b.mov?sig=abc", "video/quicktime"},
		{"https://cdn.test/videos/a/b", "video/mp4"},
	}
	for _, tc := range cases {
		if got := mimeTypeForURL(tc.url); got != tc.want {
			t.Errorf("mimeTypeForURL(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestIsRetryableHTTP(t *testing.T) {
	retryable := []int{408, 429, 500, 502, 503, 599}
	for _, code := range retryable {
		if !isRetryableHTTP(code) {
			t.Errorf("status %d should be retryable", code)
		}
	}
	terminal := []int{400, 401, 403, 404, 422}
	for _, code := range terminal {
		if isRetryableHTTP(code) {
			t.Errorf("status %d should not be retryable", code)
		}
	}
}
