package analysis

import (
	"fmt"
	"strings"

	"github.com/healthvault/backend/pkg/model"
)

// metricTemplate pairs a presence predicate with a renderer for one
// vital. The templates are evaluated in fixed order so the assembled
// prompt is deterministic, and a metric absent from the snapshot
// contributes no fragment: the model is never asked to invent values
// for data that was not recorded.
type metricTemplate struct {
	present func(*model.VitalsSnapshot) bool
	render  func(*model.VitalsSnapshot) string
}

var metricTemplates = []metricTemplate{
	{
		present: func(s *model.VitalsSnapshot) bool { return s.BloodPressure != nil },
		render: func(s *model.VitalsSnapshot) string {
			return fmt.Sprintf(`
    "bloodPressure": {
      "assessment": "Detailed analysis of %d/%d mmHg",
      "risk": "low/medium/high",
      "suggestion": "Specific medical recommendation",
      "normalRange": "Optimal: <120/80 mmHg"
    },`, s.BloodPressure.Systolic, s.BloodPressure.Diastolic)
		},
	},
	{
		present: func(s *model.VitalsSnapshot) bool { return s.BloodSugar != nil },
		render: func(s *model.VitalsSnapshot) string {
			return fmt.Sprintf(`
    "bloodSugar": {
      "assessment": "Detailed analysis of %g mg/dL",
      "risk": "low/medium/high",
      "suggestion": "Specific dietary recommendation",
      "normalRange": "Normal fasting: 70-99 mg/dL"
    },`, *s.BloodSugar)
		},
	},
	{
		present: func(s *model.VitalsSnapshot) bool { return s.HeartRate != nil },
		render: func(s *model.VitalsSnapshot) string {
			return fmt.Sprintf(`
    "heartRate": {
      "assessment": "Detailed analysis of %g bpm",
      "risk": "low/medium/high",
      "suggestion": "Specific activity recommendation",
      "normalRange": "Normal resting: 60-100 bpm"
    },`, *s.HeartRate)
		},
	},
	{
		present: func(s *model.VitalsSnapshot) bool { return s.Temperature != nil },
		render: func(s *model.VitalsSnapshot) string {
			return fmt.Sprintf(`
    "temperature": {
      "assessment": "Detailed analysis of %g°F",
      "risk": "low/medium/high",
      "suggestion": "Specific health recommendation",
      "normalRange": "Normal: 97.8-99.1°F"
    },`, *s.Temperature)
		},
	},
	{
		present: func(s *model.VitalsSnapshot) bool { return s.Weight != nil },
		render: func(s *model.VitalsSnapshot) string {
			return fmt.Sprintf(`
    "weight": {
      "assessment": "Detailed analysis of %g kg",
      "risk": "low/medium/high",
      "suggestion": "Specific weight management recommendation",
      "normalRange": "Healthy BMI: 18.5-24.9"
    }`, *s.Weight)
		},
	},
}

// FormatVitals renders a human-readable bullet list of the snapshot's
// values with units. Only metrics present in the snapshot appear. A nil
// snapshot renders like an empty one.
func FormatVitals(s *model.VitalsSnapshot) string {
	if s == nil {
		s = &model.VitalsSnapshot{}
	}

	var vitals []string

	if s.BloodPressure != nil {
		vitals = append(vitals, fmt.Sprintf("Blood Pressure: %d/%d mmHg", s.BloodPressure.Systolic, s.BloodPressure.Diastolic))
	}
	if s.BloodSugar != nil {
		vitals = append(vitals, fmt.Sprintf("Blood Sugar: %g mg/dL (Fasting)", *s.BloodSugar))
	}
	if s.HeartRate != nil {
		vitals = append(vitals, fmt.Sprintf("Heart Rate: %g bpm (Resting)", *s.HeartRate))
	}
	if s.Temperature != nil {
		vitals = append(vitals, fmt.Sprintf("Temperature: %g°F", *s.Temperature))
	}
	if s.Weight != nil {
		// BMI estimate assumes 1.7m height; actual height is not recorded
		bmi := *s.Weight / (1.7 * 1.7)
		vitals = append(vitals, fmt.Sprintf("Weight: %g kg (Estimated BMI: %.1f)", *s.Weight, bmi))
	}
	if s.Notes != "" {
		vitals = append(vitals, fmt.Sprintf("Clinical Notes: %s", s.Notes))
	}

	vitals = append(vitals, fmt.Sprintf("Recorded: %s", s.Date.Format("January 2, 2006 15:04")))

	return strings.Join(vitals, "\n")
}

// BuildVitalsPrompt renders the deterministic instruction string for a
// vitals analysis. It is a pure function of its inputs.
func BuildVitalsPrompt(current, previous *model.VitalsSnapshot) string {
	if current == nil {
		current = &model.VitalsSnapshot{}
	}

	currentVitals := FormatVitals(current)

	previousVitals := "No previous data available"
	if previous != nil {
		previousVitals = FormatVitals(previous)
	}

	var metricAnalysis strings.Builder
	for _, tmpl := range metricTemplates {
		if tmpl.present(current) {
			metricAnalysis.WriteString(tmpl.render(current))
		}
	}

	return fmt.Sprintf(`
As an expert medical AI assistant with clinical experience, provide a comprehensive analysis of these vital signs.

**CURRENT VITAL SIGNS:**
%s

**PREVIOUS VITAL SIGNS:**
%s

**CLINICAL GUIDELINES:**
- Blood Pressure: Optimal <120/80, Elevated 120-129/<80, Stage 1 Hypertension: 130-139/80-89, Stage 2: ≥140/≥90
- Blood Sugar (Fasting): Normal <100 mg/dL, Prediabetes 100-125 mg/dL, Diabetes ≥126 mg/dL
- Heart Rate (Resting): Normal 60-100 bpm, Bradycardia <60 bpm, Tachycardia >100 bpm
- Body Temperature: Normal 97.8-99.1°F, Fever ≥100.4°F, Hypothermia <95°F
- Weight: Calculate BMI and assess health risks

**ANALYSIS REQUIREMENTS:**
1. Provide evidence-based medical insights
2. Identify potential health risks
3. Suggest appropriate lifestyle modifications
4. Indicate when medical consultation is advised
5. Consider trends from previous data

**RESPONSE FORMAT (JSON ONLY):**
{
  "overallAssessment": {
    "score": 0-100,
    "status": "Excellent/Good/Fair/Needs Attention/Critical",
    "riskLevel": "Very Low/Low/Moderate/High/Very High",
    "summary": "Comprehensive 2-3 sentence health summary",
    "keyFindings": ["3-5 specific clinical observations"],
    "urgency": "Routine/Monitor/Consult/Urgent/Emergency",
    "confidence": "1-90%%"
  },
  "metricAnalysis": {%s},
  "aiRecommendations": {
    "immediateActions": ["2-3 priority actions"],
    "lifestyleChanges": ["3-4 evidence-based modifications"],
    "medicalConsultation": ["Specific scenarios for doctor visit"],
    "monitoringSuggestions": ["Practical monitoring advice"],
    "dietaryRecommendations": ["3-4 personalized nutrition suggestions"],
    "exerciseRecommendations": ["3-4 tailored physical activity recommendations"],
    "sleepRecommendations": ["2-3 sleep optimization strategies"],
    "stressManagement": ["2-3 stress reduction techniques"]
  },
  "trendInsights": "Detailed trend analysis with clinical context",
  "redFlags": ["Clinically significant warning signs"],
  "positiveIndicators": ["Favorable health markers"],
  "nextSteps": ["2-3 actionable next steps"]
}

**CRITICAL:**
- Base analysis ONLY on provided data
- Provide medically accurate information
- Do not diagnose - suggest when to consult professionals
- Return ONLY valid JSON, no additional text
- Use clinical terminology appropriately
`, currentVitals, previousVitals, metricAnalysis.String())
}

// BuildReportPrompt renders the deterministic instruction string for
// analyzing an attached medical report file of the declared type
func BuildReportPrompt(reportType model.ReportType) string {
	return fmt.Sprintf(`
You are a highly skilled and empathetic AI medical assistant.
Your task is to carefully analyze the attached %s medical report and generate a helpful, easy-to-understand explanation for the patient.

Please follow these steps strictly:

1. Interpret the medical data and identify any abnormal or concerning values.
2. Summarize the overall health situation in clear, patient-friendly language.
3. Provide advice that is informative, safe, and respectful — do not make a diagnosis or prescribe medicines.
4. All information should be factual, calm, and supportive in tone.

Now, provide the final structured output exactly in **valid JSON format** below.
No markdown, no extra text — only valid JSON.

{
  "english": "Write a 1-5 sentence summary in plain English explaining what this report indicates and any key findings in simple words.",
  "abnormalValues": ["List all abnormal or concerning values with short explanations, e.g. 'High glucose - may indicate diabetes risk'"],
  "questionsForDoctor": ["Write 3-5 meaningful questions the patient should ask their doctor"],
  "foodsToAvoid": ["List 3-5 foods that could worsen the reported condition or values"],
  "foodsToEat": ["List 3-5 foods that may help improve or support better health"],
  "homeRemedies": ["List 2-3 safe, general home remedies or habits (e.g., hydration, rest, exercise) relevant to this report"]
}

Important Notes:
- Always return valid JSON only — no markdown, no explanations outside the JSON.
- Keep all text short, friendly, and medically accurate.
- If the report seems unclear or incomplete, politely mention that in the English summary.
`, reportType)
}
