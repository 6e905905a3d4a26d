package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/healthvault/backend/pkg/model"
)

// FallbackModel is the provenance label attached when a result came
// from the rule-based path instead of a live model
const FallbackModel = "Manual Analysis"

const fallbackDisclaimer = "This is a rule-based analysis. AI service is currently unavailable. Always consult healthcare professionals for medical advice."

const baselineScore = 75

// FallbackVitals is the pure, deterministic, rule-based substitute for
// the AI vitals analysis. It never fails and produces the exact output
// shape of the live path.
//
// Only blood pressure currently influences the score. Blood sugar,
// weight, temperature and heart rate are accepted as input but stay
// unscored; blood pressure acts as the primary triage signal.
func FallbackVitals(snapshot *model.VitalsSnapshot, now time.Time) *model.VitalsAnalysis {
	score := baselineScore
	keyFindings := []string{}
	redFlags := []string{}
	positiveIndicators := []string{}
	metrics := map[string]model.MetricInsight{}

	if snapshot != nil && snapshot.BloodPressure != nil {
		systolic := snapshot.BloodPressure.Systolic
		diastolic := snapshot.BloodPressure.Diastolic

		switch {
		case systolic < 90 || diastolic < 60:
			metrics["bloodPressure"] = model.MetricInsight{
				Assessment:  fmt.Sprintf("Hypotension detected (%d/%d mmHg). May indicate underlying conditions.", systolic, diastolic),
				Risk:        "medium",
				Suggestion:  "Increase fluid intake and consult if symptomatic",
				NormalRange: "Normal: 90-120/60-80 mmHg",
			}
			keyFindings = append(keyFindings, "Low blood pressure (Hypotension)")
			redFlags = append(redFlags, "Blood pressure below normal range")
			score -= 15

		case systolic <= 120 && diastolic <= 80:
			metrics["bloodPressure"] = model.MetricInsight{
				Assessment:  fmt.Sprintf("Optimal blood pressure (%d/%d mmHg). Excellent cardiovascular indicator.", systolic, diastolic),
				Risk:        "low",
				Suggestion:  "Maintain current lifestyle and regular monitoring",
				NormalRange: "Normal: 90-120/60-80 mmHg",
			}
			positiveIndicators = append(positiveIndicators, "Ideal blood pressure range")
			score += 10

		case systolic <= 139 && diastolic <= 89:
			metrics["bloodPressure"] = model.MetricInsight{
				Assessment:  fmt.Sprintf("Elevated blood pressure (%d/%d mmHg). Lifestyle modifications recommended.", systolic, diastolic),
				Risk:        "medium",
				Suggestion:  "Reduce sodium, increase activity, manage stress",
				NormalRange: "Normal: 90-120/60-80 mmHg",
			}
			keyFindings = append(keyFindings, "Elevated blood pressure")
			score -= 5

		default:
			metrics["bloodPressure"] = model.MetricInsight{
				Assessment:  fmt.Sprintf("Hypertension range (%d/%d mmHg). Medical evaluation advised.", systolic, diastolic),
				Risk:        "high",
				Suggestion:  "Consult healthcare provider for management plan",
				NormalRange: "Normal: 90-120/60-80 mmHg",
			}
			keyFindings = append(keyFindings, "High blood pressure (Hypertension)")
			redFlags = append(redFlags, "Blood pressure in hypertensive range")
			score -= 20
		}
	}

	score = clampScore(score)
	status, riskLevel, urgency := classifyScore(score)

	summaryDetail := "Most parameters are within acceptable ranges."
	if len(redFlags) > 0 {
		summaryDetail = "Some parameters require medical attention."
	}

	if len(keyFindings) == 0 {
		keyFindings = []string{"All available parameters within normal ranges"}
	}
	if len(positiveIndicators) == 0 {
		positiveIndicators = []string{"Stable vital signs observed"}
	}

	return &model.VitalsAnalysis{
		OverallAssessment: model.OverallAssessment{
			Score:       score,
			Status:      status,
			RiskLevel:   riskLevel,
			Summary:     fmt.Sprintf("Rule-based analysis indicates %s health status. %s", strings.ToLower(status), summaryDetail),
			KeyFindings: keyFindings,
			Urgency:     urgency,
			Confidence:  "Low",
		},
		MetricAnalysis:     metrics,
		AIRecommendations:  fallbackRecommendations(),
		TrendInsights:      "Comprehensive trend analysis requires AI processing",
		RedFlags:           redFlags,
		PositiveIndicators: positiveIndicators,
		NextSteps: []string{
			"Consult medical professional for detailed assessment",
			"Implement suggested lifestyle modifications",
			"Schedule regular health monitoring",
		},
		AIMetadata: model.AnalysisMetadata{
			AnalyzedAt: now.UTC().Format(time.RFC3339),
			Model:      FallbackModel,
			Disclaimer: fallbackDisclaimer,
			Version:    schemaVersion,
		},
	}
}

// classifyScore maps a clamped score onto status, risk level and
// urgency via fixed thresholds
func classifyScore(score int) (status, riskLevel, urgency string) {
	switch {
	case score >= 85:
		return "Excellent", "Very Low", "Routine"
	case score >= 75:
		return "Good", "Low", "Routine"
	case score >= 65:
		return "Fair", "Moderate", "Monitor"
	case score >= 55:
		return "Needs Attention", "High", "Consult"
	default:
		return "Critical", "Very High", "Urgent"
	}
}

// fallbackRecommendations returns the static, curated advice blocks.
// They are non-personalized and exist so the fallback output shape is
// identical to the AI path.
func fallbackRecommendations() model.Recommendations {
	return model.Recommendations{
		ImmediateActions: []string{
			"Consult healthcare provider for accurate assessment",
			"Monitor vital signs regularly",
			"Maintain health journal",
		},
		LifestyleChanges: []string{
			"Follow balanced nutrition plan",
			"Engage in regular physical activity",
			"Ensure adequate sleep and stress management",
			"Stay hydrated and limit processed foods",
		},
		MedicalConsultation: []string{
			"Schedule comprehensive health check-up",
			"Consult for persistent abnormal values",
			"Discuss preventive health strategies",
		},
		MonitoringSuggestions: []string{
			"Track vital signs consistently",
			"Note any symptoms or changes",
			"Regular follow-ups with healthcare provider",
		},
		DietaryRecommendations: []string{
			"Increase fruit and vegetable intake to 5+ servings daily",
			"Choose whole grains over refined carbohydrates",
			"Include lean protein sources in each meal",
			"Limit added sugars and saturated fats",
			"Stay hydrated with 8-10 glasses of water daily",
		},
		ExerciseRecommendations: []string{
			"Aim for 150 minutes of moderate aerobic activity weekly",
			"Include strength training 2-3 times per week",
			"Incorporate flexibility exercises daily",
			"Take walking breaks every hour if sedentary",
			"Gradually increase activity intensity over time",
		},
		SleepRecommendations: []string{
			"Maintain consistent sleep schedule (7-9 hours nightly)",
			"Create relaxing bedtime routine",
			"Keep bedroom dark, quiet, and cool",
			"Avoid screens 1 hour before bedtime",
			"Limit caffeine intake in the evening",
		},
		StressManagement: []string{
			"Practice deep breathing exercises daily",
			"Schedule regular breaks during work",
			"Engage in mindfulness or meditation",
			"Maintain social connections and support",
			"Set realistic goals and priorities",
		},
	}
}

// FallbackReport is the static substitute returned whenever report
// analysis fails at any stage. Unlike vitals there is no structured
// input to reason over, so no partial rule-based extraction is
// attempted.
func FallbackReport(now time.Time) *model.ReportAnalysis {
	return &model.ReportAnalysis{
		English:        "Unable to analyze the report automatically. Please consult your doctor for accurate interpretation.",
		AbnormalValues: []string{"Analysis unavailable - consult your doctor"},
		QuestionsForDoctor: []string{
			"What do these results mean for my health?",
			"Do I need any follow-up tests or treatments?",
			"Are there any lifestyle changes I should make?",
			"When should I get tested again?",
		},
		FoodsToAvoid: []string{"Processed foods", "Sugary drinks", "High-sodium foods"},
		FoodsToEat:   []string{"Fresh vegetables", "Whole grains", "Lean proteins"},
		HomeRemedies: []string{"Stay hydrated", "Get adequate rest", "Maintain regular physical activity"},
		Disclaimer:   reportDisclaimer,
		ModelUsed:    FallbackModel,
		Timestamp:    now.UTC().Format(time.RFC3339),
	}
}

