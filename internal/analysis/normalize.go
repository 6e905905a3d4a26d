package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/healthvault/backend/pkg/model"
)

// Static strings attached to every result
const (
	vitalsDisclaimer = "This AI analysis is for informational purposes only. Always consult healthcare professionals for medical advice and diagnosis."
	reportDisclaimer = "This AI analysis is for informational purposes only. Always consult your doctor before making any medical decisions."
	schemaVersion    = "2.0"

	// listPlaceholder replaces empty list fields in report results
	listPlaceholder = "Information not available from analysis"
)

// extractJSON strips Markdown code fences and keeps the largest
// brace-delimited substring. The model is permitted to wrap its JSON in
// prose; everything outside the first '{' and last '}' is discarded.
func extractJSON(raw string) (string, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("%w: no JSON structure found", ErrUnparsableResponse)
	}

	return cleaned[start : end+1], nil
}

// rawOverallAssessment is the loosely-typed parse target for the
// model's overallAssessment block. Score is a float pointer so both
// "82" and "82.5" are accepted and absence is detectable.
type rawOverallAssessment struct {
	Score       *float64 `json:"score"`
	Status      string   `json:"status"`
	RiskLevel   string   `json:"riskLevel"`
	Summary     string   `json:"summary"`
	KeyFindings []string `json:"keyFindings"`
	Urgency     string   `json:"urgency"`
	Confidence  string   `json:"confidence"`
}

type rawVitalsAnalysis struct {
	OverallAssessment  *rawOverallAssessment          `json:"overallAssessment"`
	MetricAnalysis     map[string]model.MetricInsight `json:"metricAnalysis"`
	AIRecommendations  map[string][]string            `json:"aiRecommendations"`
	TrendInsights      string                         `json:"trendInsights"`
	RedFlags           []string                       `json:"redFlags"`
	PositiveIndicators []string                       `json:"positiveIndicators"`
	NextSteps          []string                       `json:"nextSteps"`
}

// NormalizeVitals converts raw model text into a guaranteed-shape
// vitals analysis. The model is treated as an untrusted text source:
// the JSON substring is extracted, parsed, structurally validated
// (a numeric overallAssessment.score is mandatory), and every missing
// field of the fixed shape is filled with a schema-conformant default.
func NormalizeVitals(rawText, modelID string, now time.Time) (*model.VitalsAnalysis, error) {
	jsonText, err := extractJSON(rawText)
	if err != nil {
		return nil, err
	}

	var raw rawVitalsAnalysis
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}

	if raw.OverallAssessment == nil || raw.OverallAssessment.Score == nil {
		return nil, fmt.Errorf("%w: missing numeric overallAssessment.score", ErrUnparsableResponse)
	}

	result := &model.VitalsAnalysis{
		OverallAssessment: model.OverallAssessment{
			Score:       clampScore(int(math.Round(*raw.OverallAssessment.Score))),
			Status:      raw.OverallAssessment.Status,
			RiskLevel:   raw.OverallAssessment.RiskLevel,
			Summary:     raw.OverallAssessment.Summary,
			KeyFindings: orEmpty(raw.OverallAssessment.KeyFindings),
			Urgency:     raw.OverallAssessment.Urgency,
			Confidence:  raw.OverallAssessment.Confidence,
		},
		MetricAnalysis:     raw.MetricAnalysis,
		AIRecommendations:  normalizeRecommendations(raw.AIRecommendations),
		TrendInsights:      raw.TrendInsights,
		RedFlags:           orEmpty(raw.RedFlags),
		PositiveIndicators: orEmpty(raw.PositiveIndicators),
		NextSteps:          orEmpty(raw.NextSteps),
		AIMetadata: model.AnalysisMetadata{
			AnalyzedAt: now.UTC().Format(time.RFC3339),
			Model:      modelID,
			Disclaimer: vitalsDisclaimer,
			Version:    schemaVersion,
		},
	}

	if result.MetricAnalysis == nil {
		result.MetricAnalysis = map[string]model.MetricInsight{}
	}

	return result, nil
}

// NormalizeReport converts raw model text into a guaranteed-shape
// report analysis. No single field is mandatory: missing or empty list
// fields are replaced with a one-element placeholder and a missing
// summary gets the placeholder text.
func NormalizeReport(rawText, modelID string, now time.Time) (*model.ReportAnalysis, error) {
	jsonText, err := extractJSON(rawText)
	if err != nil {
		return nil, err
	}

	var result model.ReportAnalysis
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}

	if result.English == "" {
		result.English = listPlaceholder
	}
	result.AbnormalValues = orPlaceholder(result.AbnormalValues)
	result.QuestionsForDoctor = orPlaceholder(result.QuestionsForDoctor)
	result.FoodsToAvoid = orPlaceholder(result.FoodsToAvoid)
	result.FoodsToEat = orPlaceholder(result.FoodsToEat)
	result.HomeRemedies = orPlaceholder(result.HomeRemedies)

	result.Disclaimer = reportDisclaimer
	result.ModelUsed = modelID
	result.Timestamp = now.UTC().Format(time.RFC3339)

	return &result, nil
}

// normalizeRecommendations maps the model's loose recommendation object
// onto the eight fixed categories; unknown keys are dropped and missing
// ones become empty lists
func normalizeRecommendations(raw map[string][]string) model.Recommendations {
	get := func(key string) []string {
		return orEmpty(raw[key])
	}

	return model.Recommendations{
		ImmediateActions:        get("immediateActions"),
		LifestyleChanges:        get("lifestyleChanges"),
		MedicalConsultation:     get("medicalConsultation"),
		MonitoringSuggestions:   get("monitoringSuggestions"),
		DietaryRecommendations:  get("dietaryRecommendations"),
		ExerciseRecommendations: get("exerciseRecommendations"),
		SleepRecommendations:    get("sleepRecommendations"),
		StressManagement:        get("stressManagement"),
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func orPlaceholder(list []string) []string {
	if len(list) == 0 {
		return []string{listPlaceholder}
	}
	return list
}
