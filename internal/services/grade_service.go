package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/private-school-system/backend/internal/grading"
	"github.com/private-school-system/backend/internal/models"
	"github.com/private-school-system/backend/internal/season"
)

var (
	// ErrSeasonNotResolved is batch-fatal: no entry may be graded against a
	// guessed season.
	ErrSeasonNotResolved = errors.New("season not resolved")
	ErrExerciseNotFound  = errors.New("exercise not found")
	ErrSubjectMismatch   = errors.New("exercise does not belong to subject")
	ErrStudentNotFound   = errors.New("student not found")
)

// SeasonDirectory lists the canonical seasons free-text labels resolve
// against.
type SeasonDirectory interface {
	ListSeasons(ctx context.Context) ([]models.Season, error)
}

// ExerciseInfo is an exercise resolved through its part -> chapter chain.
type ExerciseInfo struct {
	ID        uuid.UUID
	SubjectID uuid.UUID
	SeasonID  uuid.UUID
	MaxPoints float64
}

// ExerciseCatalog resolves an exercise to its subject/season and point value.
type ExerciseCatalog interface {
	LookupExercise(ctx context.Context, id uuid.UUID) (*ExerciseInfo, error)
}

// StudentDirectory answers existence checks for submitted student ids.
type StudentDirectory interface {
	StudentExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// GradeStore persists grade rows and derived composites. Upserts must be
// atomic on the record's identity key (insert-or-replace by unique index, not
// read-then-write) so concurrent batches racing on the same key settle to
// last write wins.
type GradeStore interface {
	UpsertExerciseGrade(ctx context.Context, g *models.ExerciseGrade) error
	UpsertAssessmentGrade(ctx context.Context, g *models.AssessmentGrade) error
	EventsFor(ctx context.Context, studentID, subjectID, seasonID uuid.UUID) ([]grading.Event, error)
	SaveComposite(ctx context.Context, c *models.CompositeGrade) error
	GetComposite(ctx context.Context, studentID, subjectID, seasonID uuid.UUID) (*models.CompositeGrade, error)
	ListCompositesForStudent(ctx context.Context, studentID uuid.UUID) ([]models.CompositeGrade, error)
}

// BulkGradeEntry is one student's row in a bulk grading submission. A nil
// Value means the grader left this student ungraded in this pass.
type BulkGradeEntry struct {
	StudentID uuid.UUID `json:"student_id" binding:"required"`
	Value     *float64  `json:"value"`
	Notes     string    `json:"notes"`
}

// BulkGradeRequest applies one grading event (one subject, season, kind) to
// many students at once.
type BulkGradeRequest struct {
	SubjectID   uuid.UUID        `json:"subject_id" binding:"required"`
	SeasonLabel string           `json:"season_label" binding:"required"`
	Kind        grading.Kind     `json:"kind" binding:"required"`
	ExamSlot    int              `json:"exam_slot"`
	ExerciseID  *uuid.UUID       `json:"exercise_id"`
	GradedDate  time.Time        `json:"graded_date"`
	GradedBy    uuid.UUID        `json:"-"`
	Entries     []BulkGradeEntry `json:"entries" binding:"required"`
}

// Entry outcome statuses.
const (
	OutcomeApplied  = "applied"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
)

const reasonTimeout = "timeout"

// EntryOutcome reports what happened to one entry, with enough context for
// the caller to correct and re-submit it.
type EntryOutcome struct {
	StudentID uuid.UUID `json:"student_id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
}

// BulkGradeResult summarizes a batch.
type BulkGradeResult struct {
	SeasonID   uuid.UUID      `json:"season_id"`
	Outcomes   []EntryOutcome `json:"outcomes"`
	Applied    int            `json:"applied"`
	Skipped    int            `json:"skipped"`
	Rejected   int            `json:"rejected"`
	Recomputed int            `json:"recomputed"`
}

type compositeKey struct {
	studentID uuid.UUID
	subjectID uuid.UUID
	seasonID  uuid.UUID
}

// GradeService orchestrates bulk grading: season resolution, identity
// validation, per-entry upserts, and composite recomputation.
type GradeService struct {
	seasons      SeasonDirectory
	exercises    ExerciseCatalog
	students     StudentDirectory
	store        GradeStore
	batchTimeout time.Duration
}

func NewGradeService(seasons SeasonDirectory, exercises ExerciseCatalog, students StudentDirectory, store GradeStore, batchTimeout time.Duration) *GradeService {
	return &GradeService{
		seasons:      seasons,
		exercises:    exercises,
		students:     students,
		store:        store,
		batchTimeout: batchTimeout,
	}
}

// ApplyBulk applies one grading event to a batch of students. Season
// resolution failure rejects the whole batch before anything is written;
// everything after that fails per entry, so one bad row never blocks its
// siblings. Entries not applied before the batch deadline are reported as
// rejected with a timeout reason rather than left ambiguous.
func (s *GradeService) ApplyBulk(ctx context.Context, req BulkGradeRequest) (*BulkGradeResult, error) {
	start := time.Now()
	defer func() {
		bulkBatchSeconds.Observe(time.Since(start).Seconds())
	}()

	if s.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.batchTimeout)
		defer cancel()
	}

	seasons, err := s.seasons.ListSeasons(ctx)
	if err != nil {
		return nil, err
	}
	resolved, err := season.Resolve(req.SeasonLabel, seasons)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSeasonNotResolved, req.SeasonLabel)
	}

	subjectID := req.SubjectID
	seasonID := resolved.ID

	// Exercise batches derive subject/season from the exercise's own chain;
	// a mismatch against the request rejects the entries, not the batch.
	var info *ExerciseInfo
	var entryReject error
	if req.Kind == grading.KindExercise {
		info, entryReject = s.resolveExercise(ctx, req, seasonID)
		if info != nil {
			subjectID = info.SubjectID
			seasonID = info.SeasonID
		}
	}

	res := &BulkGradeResult{SeasonID: seasonID}
	touched := make(map[compositeKey]struct{})

	for _, entry := range req.Entries {
		outcome := EntryOutcome{StudentID: entry.StudentID}
		switch {
		case ctx.Err() != nil:
			outcome.Status = OutcomeRejected
			outcome.Reason = reasonTimeout
		case entry.Value == nil:
			outcome.Status = OutcomeSkipped
			outcome.Reason = "no value"
		case entryReject != nil:
			outcome.Status = OutcomeRejected
			outcome.Reason = entryReject.Error()
		default:
			if err := s.applyEntry(ctx, req, entry, subjectID, seasonID, info); err != nil {
				outcome.Status = OutcomeRejected
				outcome.Reason = err.Error()
			} else {
				outcome.Status = OutcomeApplied
				touched[compositeKey{entry.StudentID, subjectID, seasonID}] = struct{}{}
			}
		}

		bulkEntriesTotal.WithLabelValues(outcome.Status).Inc()
		switch outcome.Status {
		case OutcomeApplied:
			res.Applied++
		case OutcomeSkipped:
			res.Skipped++
		default:
			res.Rejected++
		}
		res.Outcomes = append(res.Outcomes, outcome)
	}

	// Entries applied before a deadline must still get fresh composites, so
	// recomputation runs detached from the batch deadline.
	recomputeCtx := context.WithoutCancel(ctx)
	for key := range touched {
		if err := s.recompute(recomputeCtx, key); err != nil {
			return res, err
		}
		res.Recomputed++
	}

	return res, nil
}

func (s *GradeService) resolveExercise(ctx context.Context, req BulkGradeRequest, seasonID uuid.UUID) (*ExerciseInfo, error) {
	if req.ExerciseID == nil {
		return nil, fmt.Errorf("%w: exercise grade without exercise id", grading.ErrInvalidShape)
	}
	info, err := s.exercises.LookupExercise(ctx, *req.ExerciseID)
	if err != nil {
		return nil, err
	}
	if info.SubjectID != req.SubjectID {
		return nil, ErrSubjectMismatch
	}
	if info.SeasonID != seasonID {
		return nil, fmt.Errorf("%w: exercise belongs to a different season", ErrSubjectMismatch)
	}
	return info, nil
}

func (s *GradeService) applyEntry(ctx context.Context, req BulkGradeRequest, entry BulkGradeEntry, subjectID, seasonID uuid.UUID, info *ExerciseInfo) error {
	event := grading.Event{
		StudentID: entry.StudentID,
		SubjectID: subjectID,
		SeasonID:  seasonID,
		Kind:      req.Kind,
		ExamSlot:  req.ExamSlot,
		Value:     *entry.Value,
	}
	if info != nil {
		event.ExerciseID = info.ID
	}

	key, err := grading.Classify(event)
	if err != nil {
		return err
	}

	maxPoints := 0.0
	if info != nil {
		maxPoints = info.MaxPoints
	}
	if err := grading.CheckValue(event.Kind, event.Value, maxPoints); err != nil {
		return err
	}

	exists, err := s.students.StudentExists(ctx, entry.StudentID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrStudentNotFound
	}

	gradedAt := req.GradedDate
	if gradedAt.IsZero() {
		gradedAt = time.Now()
	}

	if key.ByExercise {
		return s.store.UpsertExerciseGrade(ctx, &models.ExerciseGrade{
			StudentID:  key.StudentID,
			ExerciseID: key.ExerciseID,
			SubjectID:  subjectID,
			SeasonID:   seasonID,
			Value:      event.Value,
			Notes:      entry.Notes,
			GradedAt:   gradedAt,
			GradedBy:   req.GradedBy,
		})
	}
	return s.store.UpsertAssessmentGrade(ctx, &models.AssessmentGrade{
		StudentID: key.StudentID,
		SubjectID: key.SubjectID,
		SeasonID:  key.SeasonID,
		Kind:      string(key.Kind),
		ExamSlot:  key.ExamSlot,
		Value:     event.Value,
		Notes:     entry.Notes,
		GradedAt:  gradedAt,
		GradedBy:  req.GradedBy,
	})
}

func (s *GradeService) recompute(ctx context.Context, key compositeKey) error {
	events, err := s.store.EventsFor(ctx, key.studentID, key.subjectID, key.seasonID)
	if err != nil {
		return err
	}
	composite := grading.Aggregate(events)

	if err := s.store.SaveComposite(ctx, &models.CompositeGrade{
		StudentID:      key.studentID,
		SubjectID:      key.subjectID,
		SeasonID:       key.seasonID,
		ExercisesScore: composite.ExercisesScore,
		MonthlyExam1:   composite.MonthlyExam1,
		MonthlyExam2:   composite.MonthlyExam2,
		Behaviour:      composite.Behaviour,
		Attendance:     composite.Attendance,
		SeasonExam:     composite.SeasonExam,
		Total:          composite.Total,
		ComputedAt:     time.Now(),
	}); err != nil {
		return err
	}
	compositesRecomputed.Inc()
	return nil
}

// GetComposite returns the derived grade for one (student, subject, season).
func (s *GradeService) GetComposite(ctx context.Context, studentID, subjectID, seasonID uuid.UUID) (*models.CompositeGrade, error) {
	return s.store.GetComposite(ctx, studentID, subjectID, seasonID)
}

// ListCompositesForStudent returns every derived grade for a student, for
// profile and report views.
func (s *GradeService) ListCompositesForStudent(ctx context.Context, studentID uuid.UUID) ([]models.CompositeGrade, error) {
	return s.store.ListCompositesForStudent(ctx, studentID)
}

// ListEvents returns the raw grade rows behind one composite, so graders can
// see what a total was computed from.
func (s *GradeService) ListEvents(ctx context.Context, studentID, subjectID, seasonID uuid.UUID) ([]grading.Event, error) {
	return s.store.EventsFor(ctx, studentID, subjectID, seasonID)
}

// RecomputeAll rebuilds every composite from raw grade rows for the given
// keys. Used by the recompute maintenance command.
func (s *GradeService) RecomputeAll(ctx context.Context, keys []models.CompositeGrade) (int, error) {
	count := 0
	for _, k := range keys {
		if err := s.recompute(ctx, compositeKey{k.StudentID, k.SubjectID, k.SeasonID}); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
