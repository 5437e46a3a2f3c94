package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/private-school-system/backend/internal/grading"
	"github.com/private-school-system/backend/internal/models"
)

// GORM-backed implementations of the grade service's collaborator
// interfaces.

type gormSeasonDirectory struct {
	db *gorm.DB
}

func NewSeasonDirectory(db *gorm.DB) SeasonDirectory {
	return &gormSeasonDirectory{db: db}
}

func (d *gormSeasonDirectory) ListSeasons(ctx context.Context) ([]models.Season, error) {
	var seasons []models.Season
	err := d.db.WithContext(ctx).Order("season_order").Find(&seasons).Error
	return seasons, err
}

type gormExerciseCatalog struct {
	db *gorm.DB
}

func NewExerciseCatalog(db *gorm.DB) ExerciseCatalog {
	return &gormExerciseCatalog{db: db}
}

func (c *gormExerciseCatalog) LookupExercise(ctx context.Context, id uuid.UUID) (*ExerciseInfo, error) {
	var info ExerciseInfo
	err := c.db.WithContext(ctx).Table("exercises").
		Select("exercises.id, exercises.max_points, chapters.subject_id, chapters.season_id").
		Joins("JOIN parts ON parts.id = exercises.part_id").
		Joins("JOIN chapters ON chapters.id = parts.chapter_id").
		Where("exercises.id = ? AND exercises.deleted_at IS NULL", id).
		Take(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrExerciseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

type gormStudentDirectory struct {
	db *gorm.DB
}

func NewStudentDirectory(db *gorm.DB) StudentDirectory {
	return &gormStudentDirectory{db: db}
}

func (d *gormStudentDirectory) StudentExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

type gormGradeStore struct {
	db *gorm.DB
}

func NewGradeStore(db *gorm.DB) GradeStore {
	return &gormGradeStore{db: db}
}

// Upserts ride on the identity unique indexes so read-modify-write races
// between concurrent batches settle to last write wins.

func (s *gormGradeStore) UpsertExerciseGrade(ctx context.Context, g *models.ExerciseGrade) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}, {Name: "exercise_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value", "notes", "graded_at", "graded_by", "updated_at",
		}),
	}).Create(g).Error
}

func (s *gormGradeStore) UpsertAssessmentGrade(ctx context.Context, g *models.AssessmentGrade) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "student_id"}, {Name: "subject_id"}, {Name: "season_id"},
			{Name: "kind"}, {Name: "exam_slot"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"value", "notes", "graded_at", "graded_by", "updated_at",
		}),
	}).Create(g).Error
}

func (s *gormGradeStore) EventsFor(ctx context.Context, studentID, subjectID, seasonID uuid.UUID) ([]grading.Event, error) {
	var events []grading.Event

	var exerciseGrades []models.ExerciseGrade
	if err := s.db.WithContext(ctx).
		Where("student_id = ? AND subject_id = ? AND season_id = ?", studentID, subjectID, seasonID).
		Find(&exerciseGrades).Error; err != nil {
		return nil, err
	}
	for _, g := range exerciseGrades {
		events = append(events, grading.Event{
			StudentID:  g.StudentID,
			SubjectID:  g.SubjectID,
			SeasonID:   g.SeasonID,
			Kind:       grading.KindExercise,
			ExerciseID: g.ExerciseID,
			Value:      g.Value,
		})
	}

	var assessmentGrades []models.AssessmentGrade
	if err := s.db.WithContext(ctx).
		Where("student_id = ? AND subject_id = ? AND season_id = ?", studentID, subjectID, seasonID).
		Find(&assessmentGrades).Error; err != nil {
		return nil, err
	}
	for _, g := range assessmentGrades {
		events = append(events, grading.Event{
			StudentID: g.StudentID,
			SubjectID: g.SubjectID,
			SeasonID:  g.SeasonID,
			Kind:      grading.Kind(g.Kind),
			ExamSlot:  g.ExamSlot,
			Value:     g.Value,
		})
	}

	return events, nil
}

func (s *gormGradeStore) SaveComposite(ctx context.Context, c *models.CompositeGrade) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}, {Name: "subject_id"}, {Name: "season_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"exercises_score", "monthly_exam1", "monthly_exam2", "behaviour",
			"attendance", "season_exam", "total", "computed_at", "updated_at",
		}),
	}).Create(c).Error
}

func (s *gormGradeStore) GetComposite(ctx context.Context, studentID, subjectID, seasonID uuid.UUID) (*models.CompositeGrade, error) {
	var composite models.CompositeGrade
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND subject_id = ? AND season_id = ?", studentID, subjectID, seasonID).
		Take(&composite).Error
	if err != nil {
		return nil, err
	}
	return &composite, nil
}

func (s *gormGradeStore) ListCompositesForStudent(ctx context.Context, studentID uuid.UUID) ([]models.CompositeGrade, error) {
	var composites []models.CompositeGrade
	err := s.db.WithContext(ctx).
		Preload("Subject").Preload("Season").
		Where("student_id = ?", studentID).
		Find(&composites).Error
	return composites, err
}
