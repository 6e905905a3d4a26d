package pdf

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/healthvault/backend/pkg/model"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

// Generator renders vitals analyses as printable PDF documents
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a new Generator
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{
		logger: logger,
	}
}

// Generate creates a PDF document for one analyzed vitals entry
func (g *Generator) Generate(record *model.VitalRecord, analysis *model.VitalsAnalysis) ([]byte, error) {
	g.logger.Info("generating analysis PDF",
		zap.String("vital_id", record.ID),
		zap.String("model", analysis.AIMetadata.Model),
	)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	pdf.AddPage()

	g.addTitle(pdf, record)
	g.addMeasuredValues(pdf, &record.VitalsSnapshot)
	g.addOverallAssessment(pdf, &analysis.OverallAssessment)
	g.addMetricInsights(pdf, analysis.MetricAnalysis)
	g.addList(pdf, "Red Flags", analysis.RedFlags)
	g.addList(pdf, "Positive Indicators", analysis.PositiveIndicators)
	g.addRecommendations(pdf, &analysis.AIRecommendations)
	g.addTrendInsights(pdf, analysis.TrendInsights)
	g.addList(pdf, "Next Steps", analysis.NextSteps)
	g.addFooter(pdf, &analysis.AIMetadata)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		g.logger.Error("failed to generate PDF", zap.Error(err))
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

// addTitle adds the document title and header information
func (g *Generator) addTitle(pdf *gofpdf.Fpdf, record *model.VitalRecord) {
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 10, "Vitals Analysis", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Recorded: %s", record.Date.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(10)
}

// addSectionHeader adds a section header
func (g *Generator) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 10, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 10)
}

// addMeasuredValues adds the recorded measurements section
func (g *Generator) addMeasuredValues(pdf *gofpdf.Fpdf, snapshot *model.VitalsSnapshot) {
	g.addSectionHeader(pdf, "Recorded Measurements")

	if snapshot.IsEmpty() {
		pdf.CellFormat(0, 8, "No measurements recorded.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	if bp := snapshot.BloodPressure; bp != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Blood Pressure: %d/%d mmHg", bp.Systolic, bp.Diastolic), "", 1, "L", false, 0, "")
	}
	if snapshot.BloodSugar != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Blood Sugar: %g mg/dL", *snapshot.BloodSugar), "", 1, "L", false, 0, "")
	}
	if snapshot.HeartRate != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Heart Rate: %g bpm", *snapshot.HeartRate), "", 1, "L", false, 0, "")
	}
	if snapshot.Temperature != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Temperature: %g F", *snapshot.Temperature), "", 1, "L", false, 0, "")
	}
	if snapshot.Weight != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Weight: %g kg", *snapshot.Weight), "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

// addOverallAssessment adds the score and summary section
func (g *Generator) addOverallAssessment(pdf *gofpdf.Fpdf, assessment *model.OverallAssessment) {
	g.addSectionHeader(pdf, "Overall Assessment")

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Health Score: %d/100 (%s)", assessment.Score, assessment.Status), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Risk Level: %s", assessment.RiskLevel), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Urgency: %s", assessment.Urgency), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Confidence: %s", assessment.Confidence), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.MultiCell(0, 5, assessment.Summary, "", "L", false)
	pdf.Ln(2)

	for _, finding := range assessment.KeyFindings {
		pdf.MultiCell(0, 5, fmt.Sprintf("  - %s", finding), "", "L", false)
	}
	pdf.Ln(5)
}

// addMetricInsights adds the per-metric findings in stable key order
func (g *Generator) addMetricInsights(pdf *gofpdf.Fpdf, insights map[string]model.MetricInsight) {
	g.addSectionHeader(pdf, "Metric Analysis")

	if len(insights) == 0 {
		pdf.CellFormat(0, 8, "No individual metrics analyzed.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	metrics := make([]string, 0, len(insights))
	for metric := range insights {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)

	for _, metric := range metrics {
		insight := insights[metric]
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s (risk: %s)", metric, insight.Risk), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, insight.Assessment, "", "L", false)
		if insight.Suggestion != "" {
			pdf.MultiCell(0, 5, fmt.Sprintf("Suggestion: %s", insight.Suggestion), "", "L", false)
		}
		if insight.NormalRange != "" {
			pdf.CellFormat(0, 5, fmt.Sprintf("Normal range: %s", insight.NormalRange), "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}
	pdf.Ln(3)
}

// addList adds a bullet-list section, skipping it when empty
func (g *Generator) addList(pdf *gofpdf.Fpdf, title string, items []string) {
	if len(items) == 0 {
		return
	}

	g.addSectionHeader(pdf, title)
	for _, item := range items {
		pdf.MultiCell(0, 5, fmt.Sprintf("  - %s", item), "", "L", false)
	}
	pdf.Ln(5)
}

// addRecommendations adds the recommendation categories
func (g *Generator) addRecommendations(pdf *gofpdf.Fpdf, recs *model.Recommendations) {
	g.addSectionHeader(pdf, "Recommendations")

	categories := []struct {
		title string
		items []string
	}{
		{"Immediate Actions", recs.ImmediateActions},
		{"Lifestyle Changes", recs.LifestyleChanges},
		{"Medical Consultation", recs.MedicalConsultation},
		{"Monitoring", recs.MonitoringSuggestions},
		{"Diet", recs.DietaryRecommendations},
		{"Exercise", recs.ExerciseRecommendations},
		{"Sleep", recs.SleepRecommendations},
		{"Stress Management", recs.StressManagement},
	}

	for _, category := range categories {
		if len(category.items) == 0 {
			continue
		}

		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, category.title, "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, item := range category.items {
			pdf.MultiCell(0, 5, fmt.Sprintf("  - %s", item), "", "L", false)
		}
		pdf.Ln(2)
	}
	pdf.Ln(3)
}

// addTrendInsights adds the trend narrative when present
func (g *Generator) addTrendInsights(pdf *gofpdf.Fpdf, trends string) {
	if trends == "" {
		return
	}

	g.addSectionHeader(pdf, "Trend Insights")
	pdf.MultiCell(0, 5, trends, "", "L", false)
	pdf.Ln(5)
}

// addFooter adds provenance and the medical disclaimer
func (g *Generator) addFooter(pdf *gofpdf.Fpdf, meta *model.AnalysisMetadata) {
	pdf.Ln(5)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Analysis source: %s", meta.Model), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Analyzed at: %s", meta.AnalyzedAt), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.MultiCell(0, 4, meta.Disclaimer, "", "L", false)
}
