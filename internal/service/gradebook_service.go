package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/models"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
)

// GradebookRepository is the assignment persistence GradebookService needs.
type GradebookRepository interface {
	GradebookCells(ctx context.Context, subjectID string) ([]models.GradebookCellRow, error)
	AssignmentNames(ctx context.Context, subjectID string) ([]string, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	UpdateScore(ctx context.Context, id string, score *float64) error
}

// GradebookService assembles the student x assignment score matrix for a
// subject and owns the grade write boundary.
type GradebookService struct {
	repo    GradebookRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewGradebookService constructs a gradebook service.
func NewGradebookService(repo GradebookRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *GradebookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradebookService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Matrix builds the gradebook for one subject. Every enrolled student gets a
// row even without grades; cells exist only where a grade record exists. Row
// averages cover the student's recorded scores, column averages cover the
// students holding a score in that column; both fall back to 0 when empty.
func (s *GradebookService) Matrix(ctx context.Context, subjectID string) (*models.GradebookMatrix, bool, error) {
	cacheKey := "gradebook:" + subjectID
	var cached models.GradebookMatrix
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	names, err := s.repo.AssignmentNames(ctx, subjectID)
	if err != nil {
		return nil, false, err
	}
	cells, err := s.repo.GradebookCells(ctx, subjectID)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("gradebook_matrix", time.Since(start))
	}

	matrix := buildMatrix(subjectID, names, cells)
	if err := s.cache.Set(ctx, cacheKey, matrix, 0); err != nil {
		s.logger.Warn("cache gradebook", zap.Error(err))
	}
	return matrix, false, nil
}

// SetCell writes one grade cell. A nil score deletes the underlying grade
// record so the cell reads back as absent; a missing record is created on
// first write. Scores outside [0,100] are rejected.
func (s *GradebookService) SetCell(ctx context.Context, subjectID, studentID, assignmentName string, score *float64) error {
	if score != nil && (*score < 0 || *score > 100) {
		return appErrors.ErrInvalidGrade
	}

	existing, err := s.findCell(ctx, subjectID, studentID, assignmentName)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	switch {
	case existing != nil:
		if err := s.repo.UpdateScore(ctx, existing.ID, score); err != nil {
			return err
		}
	case score == nil:
		// Blanking a cell that holds no record is a no-op.
	default:
		assignment := &models.Assignment{
			SubjectID: subjectID,
			StudentID: &studentID,
			Name:      assignmentName,
			Score:     score,
		}
		if err := s.repo.Create(ctx, assignment); err != nil {
			return err
		}
	}

	s.invalidate(ctx, subjectID, studentID)
	return nil
}

func (s *GradebookService) findCell(ctx context.Context, subjectID, studentID, assignmentName string) (*models.Assignment, error) {
	assignments, err := s.repo.List(ctx, models.AssignmentFilter{SubjectID: subjectID, StudentID: studentID})
	if err != nil {
		return nil, err
	}
	for i := range assignments {
		if assignments[i].Name == assignmentName {
			return &assignments[i], nil
		}
	}
	return nil, nil
}

// invalidate drops the cached matrix and every derived analytics entry that
// the written grade could change.
func (s *GradebookService) invalidate(ctx context.Context, subjectID, studentID string) {
	for _, pattern := range []string{
		"gradebook:" + subjectID,
		"analytics:class:" + subjectID,
		"analytics:prediction:" + studentID,
	} {
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			s.logger.Warn("invalidate gradebook cache", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

func buildMatrix(subjectID string, names []string, cells []models.GradebookCellRow) *models.GradebookMatrix {
	rowIndex := make(map[string]int)
	rows := make([]models.GradebookRow, 0)
	columnSums := make(map[string]float64, len(names))
	columnCounts := make(map[string]int, len(names))

	for _, cell := range cells {
		idx, ok := rowIndex[cell.StudentID]
		if !ok {
			idx = len(rows)
			rowIndex[cell.StudentID] = idx
			rows = append(rows, models.GradebookRow{
				StudentID: cell.StudentID,
				Username:  cell.Username,
				FullName:  cell.FullName,
				Cells:     make(map[string]*float64),
			})
		}
		if cell.AssignmentName == nil {
			continue
		}
		rows[idx].Cells[*cell.AssignmentName] = cell.Score
		if cell.Score != nil {
			columnSums[*cell.AssignmentName] += *cell.Score
			columnCounts[*cell.AssignmentName]++
		}
	}

	for i := range rows {
		var sum float64
		count := 0
		for _, score := range rows[i].Cells {
			if score != nil {
				sum += *score
				count++
			}
		}
		if count > 0 {
			rows[i].Average = round2(sum / float64(count))
		}
	}

	columnAverages := make(map[string]float64, len(names))
	for _, name := range names {
		if count := columnCounts[name]; count > 0 {
			columnAverages[name] = round2(columnSums[name] / float64(count))
		} else {
			columnAverages[name] = 0
		}
	}

	return &models.GradebookMatrix{
		SubjectID:       subjectID,
		AssignmentNames: names,
		Rows:            rows,
		ColumnAverages:  columnAverages,
	}
}
