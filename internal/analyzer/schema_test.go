package analyzer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validResponse = `{
	"bias_analysis": {
		"overall_score": 0.72,
		"political_leaning": "center-right",
		"bias_indicators": ["loaded phrasing in headline"],
		"language_bias": 0.6,
		"source_bias": 0.4,
		"framing_bias": 0.5
	},
	"misinformation_analysis": {
		"risk_score": 0.3,
		"fact_checks": [
			{"claim": "unemployment fell last quarter", "verdict": "accurate", "confidence": 0.8, "explanation": "matches official figures"}
		],
		"red_flags": []
	},
	"sentiment_analysis": {
		"overall_sentiment": -0.4,
		"emotional_tone": "critical",
		"key_phrases": ["sharp decline"]
	},
	"credibility_assessment": {
		"overall_score": 0.65,
		"evidence_quality": 0.7,
		"source_reliability": 0.6
	},
	"confidence": 0.85
}`

func TestParseAndValidate(t *testing.T) {
	result, err := ParseAndValidate(validResponse)
	require.NoError(t, err)

	assert.Equal(t, 0.72, result.BiasAnalysis.OverallScore)
	assert.Equal(t, "center-right", result.BiasAnalysis.PoliticalLeaning)
	assert.Equal(t, -0.4, result.SentimentAnalysis.OverallSentiment)
	require.Len(t, result.MisinformationAnalysis.FactChecks, 1)
	assert.Equal(t, "accurate", result.MisinformationAnalysis.FactChecks[0].Verdict)
}

func TestParseAndValidateStripsCodeFence(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	result, err := ParseAndValidate(fenced)
	require.NoError(t, err)
	assert.Equal(t, 0.85, result.Confidence)
}

func TestParseAndValidateDefaults(t *testing.T) {
	minimal := `{
		"bias_analysis": {"overall_score": 0.5},
		"misinformation_analysis": {"risk_score": 0.2},
		"sentiment_analysis": {"overall_sentiment": 0.0},
		"credibility_assessment": {"overall_score": 0.5},
		"confidence": 0.5
	}`
	result, err := ParseAndValidate(minimal)
	require.NoError(t, err)
	assert.Equal(t, "center", result.BiasAnalysis.PoliticalLeaning)
	assert.Equal(t, "neutral", result.SentimentAnalysis.EmotionalTone)
}

func TestParseAndValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(m map[string]any)
		wantField string
	}{
		{
			name: "bias above one",
			mutate: func(m map[string]any) {
				m["bias_analysis"].(map[string]any)["overall_score"] = 1.5
			},
			wantField: "bias_analysis.overall_score",
		},
		{
			name: "negative risk",
			mutate: func(m map[string]any) {
				m["misinformation_analysis"].(map[string]any)["risk_score"] = -0.1
			},
			wantField: "misinformation_analysis.risk_score",
		},
		{
			name: "sentiment below minus one",
			mutate: func(m map[string]any) {
				m["sentiment_analysis"].(map[string]any)["overall_sentiment"] = -1.2
			},
			wantField: "sentiment_analysis.overall_sentiment",
		},
		{
			name: "fact check confidence",
			mutate: func(m map[string]any) {
				checks := m["misinformation_analysis"].(map[string]any)["fact_checks"].([]any)
				checks[0].(map[string]any)["confidence"] = 2.0
			},
			wantField: "fact_checks[0].confidence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m map[string]any
			require.NoError(t, json.Unmarshal([]byte(validResponse), &m))
			tt.mutate(m)
			raw, err := json.Marshal(m)
			require.NoError(t, err)

			_, err = ParseAndValidate(string(raw))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}

func TestParseAndValidateRejectsNonJSON(t *testing.T) {
	_, err := ParseAndValidate("I cannot analyze this article.")
	assert.Error(t, err)
}

func TestFallbackAnalysisIsValid(t *testing.T) {
	fb := NewFallbackAnalysis("RateLimited")

	raw, err := json.Marshal(fb)
	require.NoError(t, err)

	result, err := ParseAndValidate(string(raw))
	require.NoError(t, err)

	assert.Equal(t, 0.1, result.MisinformationAnalysis.RiskScore)
	assert.Equal(t, 0.3, result.CredibilityAssessment.OverallScore)
	assert.Equal(t, 0.1, result.Confidence)
	assert.Equal(t, "center (fallback - RateLimited)", result.BiasAnalysis.PoliticalLeaning)
	assert.Equal(t, "neutral (fallback - RateLimited)", result.SentimentAnalysis.EmotionalTone)
}

func TestFallbackAnalysisTruncatesReason(t *testing.T) {
	fb := NewFallbackAnalysis("AVeryLongReasonStringThatKeepsGoing")
	assert.Equal(t, "center (fallback - AVeryLongReasonStrin)", fb.BiasAnalysis.PoliticalLeaning)
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Headline", "The Times", "Body text of the article.")

	assert.Contains(t, prompt, "Headline")
	assert.Contains(t, prompt, "The Times")
	assert.Contains(t, prompt, "Body text of the article.")
	assert.Contains(t, prompt, "bias_analysis")
	assert.Contains(t, prompt, "misinformation_analysis")
}
