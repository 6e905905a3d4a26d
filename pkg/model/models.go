package model

import "time"

// User represents a user in the system. Authentication and profile
// management live in an external service; this backend only consumes
// the authenticated user identifier.
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// BloodPressure holds a systolic/diastolic pair in mmHg
type BloodPressure struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
}

// VitalsSnapshot is one point-in-time set of recorded vital signs.
// Every field is optional; the analysis pipeline tolerates any subset
// being absent.
type VitalsSnapshot struct {
	BloodPressure *BloodPressure `json:"bloodPressure,omitempty"`
	BloodSugar    *float64       `json:"bloodSugar,omitempty"`  // mg/dL, fasting
	Weight        *float64       `json:"weight,omitempty"`      // kg
	Temperature   *float64       `json:"temperature,omitempty"` // °F
	HeartRate     *float64       `json:"heartRate,omitempty"`   // bpm, resting
	Notes         string         `json:"notes,omitempty"`
	Date          time.Time      `json:"date"`
}

// IsEmpty reports whether the snapshot carries no measurable vitals
func (s *VitalsSnapshot) IsEmpty() bool {
	return s.BloodPressure == nil &&
		s.BloodSugar == nil &&
		s.Weight == nil &&
		s.Temperature == nil &&
		s.HeartRate == nil
}

// VitalRecord is a persisted vitals entry owned by a user
type VitalRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	VitalsSnapshot
}

// ReportType labels an uploaded medical report
type ReportType string

// ReportTypes enumerates the accepted report type labels
var ReportTypes = []ReportType{
	"Blood Test", "Urine Test", "X-Ray Report", "MRI Scan", "CT Scan",
	"Ultrasound", "Blood Pressure", "Diabetes Report", "Thyroid Test",
	"Liver Function Test", "Kidney Function Test", "Vitamin Test",
	"Cholesterol Report", "Dental Report", "Eye Checkup", "Allergy Test",
	"Prescription", "Discharge Summary", "Surgery Report", "Physiotherapy",
	"Vaccination Record", "Other",
}

// ValidReportType reports whether t is one of the accepted labels
func ValidReportType(t ReportType) bool {
	for _, rt := range ReportTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// Report represents an uploaded medical report and its AI summary
type Report struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Title      string          `json:"title"`
	ReportType ReportType      `json:"reportType"`
	Date       time.Time       `json:"date"`
	FileURL    string          `json:"fileUrl"`
	BlobPath   string          `json:"-"`
	AISummary  *ReportAnalysis `json:"aiSummary,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// OverallAssessment summarizes the health picture of one vitals analysis
type OverallAssessment struct {
	Score       int      `json:"score"`     // 0-100
	Status      string   `json:"status"`    // Excellent/Good/Fair/Needs Attention/Critical
	RiskLevel   string   `json:"riskLevel"` // Very Low/Low/Moderate/High/Very High
	Summary     string   `json:"summary"`
	KeyFindings []string `json:"keyFindings"`
	Urgency     string   `json:"urgency"` // Routine/Monitor/Consult/Urgent/Emergency
	Confidence  string   `json:"confidence"`
}

// MetricInsight is the per-vital analysis entry
type MetricInsight struct {
	Assessment  string `json:"assessment"`
	Risk        string `json:"risk"` // low/medium/high
	Suggestion  string `json:"suggestion"`
	NormalRange string `json:"normalRange"`
}

// Recommendations carries the eight fixed advice categories. Every key
// is always present in the JSON output even when its list is empty.
type Recommendations struct {
	ImmediateActions        []string `json:"immediateActions"`
	LifestyleChanges        []string `json:"lifestyleChanges"`
	MedicalConsultation     []string `json:"medicalConsultation"`
	MonitoringSuggestions   []string `json:"monitoringSuggestions"`
	DietaryRecommendations  []string `json:"dietaryRecommendations"`
	ExerciseRecommendations []string `json:"exerciseRecommendations"`
	SleepRecommendations    []string `json:"sleepRecommendations"`
	StressManagement        []string `json:"stressManagement"`
}

// AnalysisMetadata records provenance for one analysis result
type AnalysisMetadata struct {
	AnalyzedAt string `json:"analyzedAt"`
	Model      string `json:"model"`
	Disclaimer string `json:"disclaimer"`
	Version    string `json:"version"`
}

// VitalsAnalysis is the fixed-shape result of the vitals pipeline.
// Every field is present and type-correct regardless of whether the
// source was a live model call or the rule-based fallback.
type VitalsAnalysis struct {
	OverallAssessment  OverallAssessment        `json:"overallAssessment"`
	MetricAnalysis     map[string]MetricInsight `json:"metricAnalysis"`
	AIRecommendations  Recommendations          `json:"aiRecommendations"`
	TrendInsights      string                   `json:"trendInsights"`
	RedFlags           []string                 `json:"redFlags"`
	PositiveIndicators []string                 `json:"positiveIndicators"`
	NextSteps          []string                 `json:"nextSteps"`
	AIMetadata         AnalysisMetadata         `json:"aiMetadata"`
}

// ReportAnalysis is the fixed-shape result of the report pipeline
type ReportAnalysis struct {
	English            string   `json:"english"`
	AbnormalValues     []string `json:"abnormalValues"`
	QuestionsForDoctor []string `json:"questionsForDoctor"`
	FoodsToAvoid       []string `json:"foodsToAvoid"`
	FoodsToEat         []string `json:"foodsToEat"`
	HomeRemedies       []string `json:"homeRemedies"`
	Disclaimer         string   `json:"disclaimer"`
	ModelUsed          string   `json:"modelUsed"`
	Timestamp          string   `json:"timestamp"`
}
