// Package analyzer runs AI bias, misinformation, sentiment and credibility
// analysis over stored articles and writes the results back.
package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Jefino9488/TruthGuard/internal/models"
)

// schemaVersion tags the response contract sent to the model. Bump it when
// the shape below changes.
const schemaVersion = "v1"

// responseSchema is the JSON contract the model is instructed to follow.
// It is a fixed document, not derived from the Go types at runtime, so the
// prompt stays stable across refactors.
const responseSchema = `{
  "bias_analysis": {
    "overall_score": "float 0.0-1.0, where 0.0 is neutral and 1.0 is extremely biased",
    "political_leaning": "one of: left, center-left, center, center-right, right",
    "bias_indicators": ["list of specific biased phrases or techniques found"],
    "language_bias": "float 0.0-1.0 for loaded or emotive language",
    "source_bias": "float 0.0-1.0 for one-sided sourcing",
    "framing_bias": "float 0.0-1.0 for selective framing of facts"
  },
  "misinformation_analysis": {
    "risk_score": "float 0.0-1.0 overall misinformation risk",
    "fact_checks": [
      {
        "claim": "a specific checkable claim from the article",
        "verdict": "one of: accurate, misleading, false, unverifiable",
        "confidence": "float 0.0-1.0",
        "explanation": "one sentence justifying the verdict"
      }
    ],
    "red_flags": ["list of misinformation warning signs found"]
  },
  "sentiment_analysis": {
    "overall_sentiment": "float -1.0 (very negative) to 1.0 (very positive)",
    "emotional_tone": "one word, e.g. neutral, angry, fearful, hopeful",
    "key_phrases": ["phrases that carry the emotional weight"]
  },
  "credibility_assessment": {
    "overall_score": "float 0.0-1.0",
    "evidence_quality": "float 0.0-1.0",
    "source_reliability": "float 0.0-1.0"
  },
  "confidence": "float 0.0-1.0, your confidence in this whole analysis"
}`

// maxPromptContentChars bounds how much article text goes into the prompt.
const maxPromptContentChars = 20000

// BuildPrompt renders the analysis instruction for one article.
func BuildPrompt(title, source, content string) string {
	if len(content) > maxPromptContentChars {
		content = content[:maxPromptContentChars]
	}
	var b strings.Builder
	b.WriteString("You are a media analysis system. Analyze the news article below for bias, misinformation risk, sentiment and credibility.\n\n")
	b.WriteString("Respond with ONLY a single JSON object matching this schema (" + schemaVersion + "), no prose:\n")
	b.WriteString(responseSchema)
	b.WriteString("\n\nTitle: ")
	b.WriteString(title)
	b.WriteString("\nSource: ")
	b.WriteString(source)
	b.WriteString("\n\nArticle:\n")
	b.WriteString(content)
	return b.String()
}

// ParseAndValidate decodes a model response and enforces the schema's value
// ranges. Out-of-range scores are rejected, never clamped, so a bad response
// surfaces as an error instead of silently skewing the stored metrics.
func ParseAndValidate(raw string) (*models.AnalysisResult, error) {
	raw = strings.TrimSpace(raw)
	// Models occasionally wrap the JSON in a fenced code block.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}

	if result.BiasAnalysis.PoliticalLeaning == "" {
		result.BiasAnalysis.PoliticalLeaning = "center"
	}
	if result.SentimentAnalysis.EmotionalTone == "" {
		result.SentimentAnalysis.EmotionalTone = "neutral"
	}

	if err := validateRanges(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func validateRanges(r *models.AnalysisResult) error {
	unit := []struct {
		name  string
		value float64
	}{
		{"bias_analysis.overall_score", r.BiasAnalysis.OverallScore},
		{"bias_analysis.language_bias", r.BiasAnalysis.LanguageBias},
		{"bias_analysis.source_bias", r.BiasAnalysis.SourceBias},
		{"bias_analysis.framing_bias", r.BiasAnalysis.FramingBias},
		{"misinformation_analysis.risk_score", r.MisinformationAnalysis.RiskScore},
		{"credibility_assessment.overall_score", r.CredibilityAssessment.OverallScore},
		{"credibility_assessment.evidence_quality", r.CredibilityAssessment.EvidenceQuality},
		{"credibility_assessment.source_reliability", r.CredibilityAssessment.SourceReliability},
		{"confidence", r.Confidence},
	}
	for _, f := range unit {
		if f.value < 0 || f.value > 1 {
			return fmt.Errorf("field %s out of range [0,1]: %v", f.name, f.value)
		}
	}
	for i, fc := range r.MisinformationAnalysis.FactChecks {
		if fc.Confidence < 0 || fc.Confidence > 1 {
			return fmt.Errorf("field misinformation_analysis.fact_checks[%d].confidence out of range [0,1]: %v", i, fc.Confidence)
		}
	}
	if s := r.SentimentAnalysis.OverallSentiment; s < -1 || s > 1 {
		return fmt.Errorf("field sentiment_analysis.overall_sentiment out of range [-1,1]: %v", s)
	}
	return nil
}

// NewFallbackAnalysis returns the neutral low-confidence result recorded when
// the model cannot produce a usable analysis. The reason is embedded in the
// leaning and tone strings so a later reader can tell why the fallback fired.
func NewFallbackAnalysis(reason string) models.AnalysisResult {
	short := reason
	if len(short) > 20 {
		short = short[:20]
	}
	return models.AnalysisResult{
		BiasAnalysis: models.BiasAnalysis{
			OverallScore:     0.5,
			PoliticalLeaning: "center (fallback - " + short + ")",
			BiasIndicators:   []string{},
		},
		MisinformationAnalysis: models.MisinformationAnalysis{
			RiskScore:  0.1,
			FactChecks: []models.FactCheck{},
			RedFlags:   []string{},
		},
		SentimentAnalysis: models.SentimentAnalysis{
			OverallSentiment: 0,
			EmotionalTone:    "neutral (fallback - " + short + ")",
			KeyPhrases:       []string{},
		},
		CredibilityAssessment: models.CredibilityAssessment{
			OverallScore:      0.3,
			EvidenceQuality:   0.3,
			SourceReliability: 0.3,
		},
		Confidence: 0.1,
	}
}
