package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/models"
)

// AnalyticsRepository describes the read-side queries AnalyticsService needs.
type AnalyticsRepository interface {
	StudentScores(ctx context.Context, studentID string) ([]models.StudentScoreRow, error)
	SubjectScores(ctx context.Context, subjectID string) ([]models.SubjectScoreRow, error)
	EnrolledStudentCount(ctx context.Context, subjectID string) (int, error)
	AttendanceRows(ctx context.Context, filter models.AttendanceAnalyticsFilter) ([]models.AttendanceRow, error)
	SystemAnalytics(ctx context.Context) (*models.SystemAnalytics, error)
	SubjectComparisons(ctx context.Context) ([]models.SubjectComparison, error)
}

// AnalyticsService computes grade trends, class statistics and attendance
// patterns over the stored rows, with cache integration. All derived numbers
// are recomputed from scratch on every cache miss; nothing incremental is
// kept between calls.
type AnalyticsService struct {
	repo    AnalyticsRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(repo AnalyticsRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// PredictPerformance fits a least-squares line through one student's graded
// history and extrapolates one step past the newest grade. Fewer than three
// data points yields InsufficientData instead of a forecast. The boolean
// reports whether the result came from cache.
func (s *AnalyticsService) PredictPerformance(ctx context.Context, studentID string) (*models.PerformancePrediction, bool, error) {
	cacheKey := makeAnalyticsCacheKey("prediction", studentID)
	var cached models.PerformancePrediction
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	rows, err := s.repo.StudentScores(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_student_scores", time.Since(start))
	}

	prediction := buildPrediction(rows)
	if err := s.cache.Set(ctx, cacheKey, prediction, 0); err != nil {
		s.logger.Warn("cache prediction", zap.Error(err))
	}
	return prediction, false, nil
}

// ClassPerformance computes descriptive statistics, the grade distribution,
// per-student summaries and insight sentences for one subject. A subject
// with no graded scores yields NoData with the student count taken from
// enrollment and every other statistic zero.
func (s *AnalyticsService) ClassPerformance(ctx context.Context, subjectID string) (*models.ClassPerformance, bool, error) {
	cacheKey := makeAnalyticsCacheKey("class", subjectID)
	var cached models.ClassPerformance
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	rows, err := s.repo.SubjectScores(ctx, subjectID)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_subject_scores", time.Since(start))
	}

	analysis := buildClassPerformance(rows)
	if analysis.NoData {
		enrolled, err := s.repo.EnrolledStudentCount(ctx, subjectID)
		if err != nil {
			return nil, false, err
		}
		analysis.Statistics.TotalStudents = enrolled
	}
	if err := s.cache.Set(ctx, cacheKey, analysis, 0); err != nil {
		s.logger.Warn("cache class performance", zap.Error(err))
	}
	return analysis, false, nil
}

// AttendancePatterns analyses attendance by weekday, month and subject for
// the given filter. An empty result set yields NoData.
func (s *AnalyticsService) AttendancePatterns(ctx context.Context, filter models.AttendanceAnalyticsFilter) (*models.AttendanceAnalysis, bool, error) {
	cacheKey := makeAnalyticsCacheKey("attendance", filter.StudentID, filter.SubjectID)
	var cached models.AttendanceAnalysis
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	rows, err := s.repo.AttendanceRows(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_attendance_rows", time.Since(start))
	}

	analysis := buildAttendanceAnalysis(rows, filter.SubjectID != "")
	if err := s.cache.Set(ctx, cacheKey, analysis, 0); err != nil {
		s.logger.Warn("cache attendance patterns", zap.Error(err))
	}
	return analysis, false, nil
}

// SystemOverview returns the admin-wide counters plus the per-subject
// comparison ranking.
func (s *AnalyticsService) SystemOverview(ctx context.Context) (*models.SystemAnalytics, []models.SubjectComparison, error) {
	start := time.Now()
	stats, err := s.repo.SystemAnalytics(ctx)
	if err != nil {
		return nil, nil, err
	}
	comparisons, err := s.repo.SubjectComparisons(ctx)
	if err != nil {
		return nil, nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_system_overview", time.Since(start))
	}
	return stats, comparisons, nil
}

// RuntimeMetrics returns the instrumentation snapshot.
func (s *AnalyticsService) RuntimeMetrics() models.RuntimeMetrics {
	if s.metrics == nil {
		return models.RuntimeMetrics{}
	}
	return s.metrics.Snapshot()
}

func buildPrediction(rows []models.StudentScoreRow) *models.PerformancePrediction {
	n := len(rows)
	if n < 3 {
		return &models.PerformancePrediction{InsufficientData: true, DataPoints: n}
	}

	// Least squares over x = 0..n-1 with assignment position as chronology.
	var sumX, sumY, sumXY, sumX2 float64
	for i, row := range rows {
		x := float64(i)
		sumX += x
		sumY += row.Score
		sumXY += x * row.Score
		sumX2 += x * x
	}
	fn := float64(n)
	slope := (fn*sumXY - sumX*sumY) / (fn*sumX2 - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn

	predicted := clamp(slope*fn+intercept, 0, 100)

	var residualVariance float64
	for i, row := range rows {
		residual := row.Score - (slope*float64(i) + intercept)
		residualVariance += residual * residual
	}
	residualVariance /= fn
	confidence := clamp(100-residualVariance, 0, 100)

	trend := models.TrendStable
	switch {
	case slope > 0.5:
		trend = models.TrendImproving
	case slope < -0.5:
		trend = models.TrendDeclining
	}

	return &models.PerformancePrediction{
		PredictedGrade:     round2(predicted),
		Confidence:         round2(confidence),
		Trend:              trend,
		CurrentAverage:     round2(sumY / fn),
		ImprovementRate:    round3(slope),
		SubjectPerformance: buildSubjectTrends(rows),
		DataPoints:         n,
	}
}

// buildSubjectTrends summarises each subject with at least two graded
// scores. The per-subject trend follows the mean of consecutive score
// differences in chronological order.
func buildSubjectTrends(rows []models.StudentScoreRow) map[string]models.SubjectTrend {
	grouped := make(map[string][]float64)
	for _, row := range rows {
		grouped[row.SubjectName] = append(grouped[row.SubjectName], row.Score)
	}

	trends := make(map[string]models.SubjectTrend)
	for subject, scores := range grouped {
		if len(scores) < 2 {
			continue
		}
		var sum, diffSum float64
		for i, score := range scores {
			sum += score
			if i > 0 {
				diffSum += score - scores[i-1]
			}
		}
		meanDiff := diffSum / float64(len(scores)-1)
		trend := models.TrendStable
		switch {
		case meanDiff > 0:
			trend = models.TrendImproving
		case meanDiff < 0:
			trend = models.TrendDeclining
		}
		trends[subject] = models.SubjectTrend{
			Average:         round2(sum / float64(len(scores))),
			Trend:           trend,
			AssignmentCount: len(scores),
		}
	}
	return trends
}

func buildClassPerformance(rows []models.SubjectScoreRow) *models.ClassPerformance {
	if len(rows) == 0 {
		return &models.ClassPerformance{NoData: true}
	}

	scores := make([]float64, len(rows))
	for i, row := range rows {
		scores[i] = row.Score
	}
	mean := meanOf(scores)
	stdDev := populationStdDev(scores, mean)

	stats := models.ClassStatistics{
		Mean:             round2(mean),
		Median:           round2(medianOf(scores)),
		StdDev:           round2(stdDev),
		Min:              round2(minOf(scores)),
		Max:              round2(maxOf(scores)),
		TotalStudents:    countDistinctStudents(rows),
		TotalAssignments: len(rows),
	}

	var distribution models.GradeDistribution
	for _, score := range scores {
		switch {
		case score >= 90:
			distribution.A++
		case score >= 80:
			distribution.B++
		case score >= 70:
			distribution.C++
		case score >= 60:
			distribution.D++
		default:
			distribution.F++
		}
	}

	students := buildStudentPerformance(rows)
	var atRisk []models.StudentPerformance
	for _, student := range students {
		if student.AverageGrade < 70 {
			atRisk = append(atRisk, student)
		}
	}

	return &models.ClassPerformance{
		Statistics:         stats,
		GradeDistribution:  distribution,
		StudentPerformance: students,
		AtRiskStudents:     atRisk,
		Insights:           classInsights(stats, distribution),
	}
}

// buildStudentPerformance groups subject scores per student and ranks by
// average grade, highest first. Consistency is 100 minus the spread of the
// student's own scores, so a single graded assignment scores a perfect 100.
func buildStudentPerformance(rows []models.SubjectScoreRow) []models.StudentPerformance {
	type bucket struct {
		username string
		fullName string
		scores   []float64
	}
	grouped := make(map[string]*bucket)
	order := make([]string, 0)
	for _, row := range rows {
		b, ok := grouped[row.StudentID]
		if !ok {
			b = &bucket{username: row.Username, fullName: row.FullName}
			grouped[row.StudentID] = b
			order = append(order, row.StudentID)
		}
		b.scores = append(b.scores, row.Score)
	}

	students := make([]models.StudentPerformance, 0, len(grouped))
	for _, id := range order {
		b := grouped[id]
		mean := meanOf(b.scores)
		students = append(students, models.StudentPerformance{
			StudentID:       id,
			Username:        b.username,
			FullName:        b.fullName,
			AverageGrade:    round2(mean),
			AssignmentCount: len(b.scores),
			Consistency:     round2(100 - populationStdDev(b.scores, mean)),
		})
	}
	sort.SliceStable(students, func(i, j int) bool {
		return students[i].AverageGrade > students[j].AverageGrade
	})
	return students
}

func classInsights(stats models.ClassStatistics, distribution models.GradeDistribution) []string {
	insights := make([]string, 0, 4)

	switch {
	case stats.Mean >= 85:
		insights = append(insights, "Class is performing excellently with high average scores.")
	case stats.Mean >= 75:
		insights = append(insights, "Class performance is above average.")
	case stats.Mean >= 65:
		insights = append(insights, "Class performance is average - consider additional support.")
	default:
		insights = append(insights, "Class performance needs improvement - intervention recommended.")
	}

	if stats.StdDev > 15 {
		insights = append(insights, "High grade variance indicates diverse performance levels.")
	} else if stats.StdDev < 8 {
		insights = append(insights, "Low grade variance shows consistent performance across students.")
	}

	failingPct := float64(distribution.F) / float64(stats.TotalAssignments) * 100
	if failingPct > 20 {
		insights = append(insights, fmt.Sprintf("%.1f%% of assignments are failing - review curriculum difficulty.", failingPct))
	}

	if distribution.A > distribution.F*2 {
		insights = append(insights, "Strong performance with more A grades than failing grades.")
	}

	return insights
}

func buildAttendanceAnalysis(rows []models.AttendanceRow, subjectScoped bool) *models.AttendanceAnalysis {
	if len(rows) == 0 {
		return &models.AttendanceAnalysis{NoData: true}
	}

	total := len(rows)
	present := 0
	dayPresent := make(map[string]int)
	dayTotal := make(map[string]int)
	monthPresent := make(map[string]int)
	monthTotal := make(map[string]int)
	subjectPresent := make(map[string]int)
	subjectTotal := make(map[string]int)

	for _, row := range rows {
		day := row.Date.Weekday().String()
		month := row.Date.Format("2006-01")
		dayTotal[day]++
		monthTotal[month]++
		subjectTotal[row.SubjectName]++
		if row.Present {
			present++
			dayPresent[day]++
			monthPresent[month]++
			subjectPresent[row.SubjectName]++
		}
	}

	overallRate := float64(present) / float64(total) * 100

	dayPatterns := make(map[string]float64, len(dayTotal))
	for day, count := range dayTotal {
		dayPatterns[day] = round2(float64(dayPresent[day]) / float64(count) * 100)
	}

	monthlyTrends := make(map[string]float64, len(monthTotal))
	for month, count := range monthTotal {
		monthlyTrends[month] = round2(float64(monthPresent[month]) / float64(count) * 100)
	}

	var subjectRates map[string]float64
	if !subjectScoped {
		subjectRates = make(map[string]float64, len(subjectTotal))
		for subject, count := range subjectTotal {
			subjectRates[subject] = round2(float64(subjectPresent[subject]) / float64(count) * 100)
		}
	}

	return &models.AttendanceAnalysis{
		OverallRate:       round2(overallRate),
		TotalRecords:      total,
		PresentDays:       present,
		AbsentDays:        total - present,
		DayPatterns:       dayPatterns,
		MonthlyTrends:     monthlyTrends,
		SubjectAttendance: subjectRates,
		Insights:          attendanceInsights(overallRate, dayPatterns, monthlyTrends),
	}
}

func attendanceInsights(overallRate float64, dayPatterns, monthlyTrends map[string]float64) []string {
	insights := make([]string, 0, 4)

	switch {
	case overallRate >= 95:
		insights = append(insights, "Excellent attendance record.")
	case overallRate >= 85:
		insights = append(insights, "Good attendance with room for improvement.")
	case overallRate >= 75:
		insights = append(insights, "Attendance needs improvement - consider intervention.")
	default:
		insights = append(insights, "Poor attendance - immediate intervention required.")
	}

	if len(dayPatterns) > 0 {
		worstDay, bestDay := "", ""
		for day, rate := range dayPatterns {
			if worstDay == "" || rate < dayPatterns[worstDay] || (rate == dayPatterns[worstDay] && day < worstDay) {
				worstDay = day
			}
			if bestDay == "" || rate > dayPatterns[bestDay] || (rate == dayPatterns[bestDay] && day < bestDay) {
				bestDay = day
			}
		}
		if dayPatterns[worstDay] < overallRate-10 {
			insights = append(insights, fmt.Sprintf("Significantly lower attendance on %ss (%.1f%%)", worstDay, dayPatterns[worstDay]))
		}
		if dayPatterns[bestDay] > overallRate+10 {
			insights = append(insights, fmt.Sprintf("Best attendance on %ss (%.1f%%)", bestDay, dayPatterns[bestDay]))
		}
	}

	if len(monthlyTrends) >= 2 {
		months := make([]string, 0, len(monthlyTrends))
		for month := range monthlyTrends {
			months = append(months, month)
		}
		sort.Strings(months)
		delta := monthlyTrends[months[len(months)-1]] - monthlyTrends[months[len(months)-2]]
		if delta > 5 {
			insights = append(insights, "Attendance improving in recent months.")
		} else if delta < -5 {
			insights = append(insights, "Attendance declining in recent months.")
		}
	}

	return insights
}

func countDistinctStudents(rows []models.SubjectScoreRow) int {
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		seen[row.StudentID] = struct{}{}
	}
	return len(seen)
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func populationStdDev(values []float64, mean float64) float64 {
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func makeAnalyticsCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("analytics")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
