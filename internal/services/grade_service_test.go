package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/private-school-system/backend/internal/grading"
	"github.com/private-school-system/backend/internal/models"
)

type fakeSeasonDirectory struct {
	seasons []models.Season
}

func (f *fakeSeasonDirectory) ListSeasons(ctx context.Context) ([]models.Season, error) {
	return f.seasons, nil
}

type fakeExerciseCatalog struct {
	exercises map[uuid.UUID]ExerciseInfo
}

func (f *fakeExerciseCatalog) LookupExercise(ctx context.Context, id uuid.UUID) (*ExerciseInfo, error) {
	info, ok := f.exercises[id]
	if !ok {
		return nil, ErrExerciseNotFound
	}
	return &info, nil
}

type fakeStudentDirectory struct {
	known map[uuid.UUID]bool
}

func (f *fakeStudentDirectory) StudentExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.known[id], nil
}

type fakeGradeStore struct {
	exerciseGrades   map[grading.IdentityKey]models.ExerciseGrade
	assessmentGrades map[grading.IdentityKey]models.AssessmentGrade
	composites       map[compositeKey]models.CompositeGrade
}

func newFakeGradeStore() *fakeGradeStore {
	return &fakeGradeStore{
		exerciseGrades:   make(map[grading.IdentityKey]models.ExerciseGrade),
		assessmentGrades: make(map[grading.IdentityKey]models.AssessmentGrade),
		composites:       make(map[compositeKey]models.CompositeGrade),
	}
}

func (f *fakeGradeStore) UpsertExerciseGrade(ctx context.Context, g *models.ExerciseGrade) error {
	key := grading.IdentityKey{ByExercise: true, StudentID: g.StudentID, ExerciseID: g.ExerciseID}
	f.exerciseGrades[key] = *g
	return nil
}

func (f *fakeGradeStore) UpsertAssessmentGrade(ctx context.Context, g *models.AssessmentGrade) error {
	key := grading.IdentityKey{
		StudentID: g.StudentID,
		SubjectID: g.SubjectID,
		SeasonID:  g.SeasonID,
		Kind:      grading.Kind(g.Kind),
		ExamSlot:  g.ExamSlot,
	}
	f.assessmentGrades[key] = *g
	return nil
}

func (f *fakeGradeStore) EventsFor(ctx context.Context, studentID, subjectID, seasonID uuid.UUID) ([]grading.Event, error) {
	var events []grading.Event
	for key, g := range f.exerciseGrades {
		if g.StudentID == studentID && g.SubjectID == subjectID && g.SeasonID == seasonID {
			events = append(events, grading.Event{
				StudentID:  g.StudentID,
				SubjectID:  g.SubjectID,
				SeasonID:   g.SeasonID,
				Kind:       grading.KindExercise,
				ExerciseID: key.ExerciseID,
				Value:      g.Value,
			})
		}
	}
	for key, g := range f.assessmentGrades {
		if g.StudentID == studentID && g.SubjectID == subjectID && g.SeasonID == seasonID {
			events = append(events, grading.Event{
				StudentID: g.StudentID,
				SubjectID: g.SubjectID,
				SeasonID:  g.SeasonID,
				Kind:      key.Kind,
				ExamSlot:  key.ExamSlot,
				Value:     g.Value,
			})
		}
	}
	return events, nil
}

func (f *fakeGradeStore) SaveComposite(ctx context.Context, c *models.CompositeGrade) error {
	f.composites[compositeKey{c.StudentID, c.SubjectID, c.SeasonID}] = *c
	return nil
}

func (f *fakeGradeStore) GetComposite(ctx context.Context, studentID, subjectID, seasonID uuid.UUID) (*models.CompositeGrade, error) {
	c, ok := f.composites[compositeKey{studentID, subjectID, seasonID}]
	if !ok {
		return nil, errors.New("composite not found")
	}
	return &c, nil
}

func (f *fakeGradeStore) ListCompositesForStudent(ctx context.Context, studentID uuid.UUID) ([]models.CompositeGrade, error) {
	var out []models.CompositeGrade
	for key, c := range f.composites {
		if key.studentID == studentID {
			out = append(out, c)
		}
	}
	return out, nil
}

type gradeFixture struct {
	service *GradeService
	store   *fakeGradeStore

	subjectID  uuid.UUID
	seasonID   uuid.UUID
	exerciseID uuid.UUID
	studentID  uuid.UUID
	graderID   uuid.UUID
}

func newGradeFixture(t *testing.T) *gradeFixture {
	t.Helper()

	f := &gradeFixture{
		store:      newFakeGradeStore(),
		subjectID:  uuid.New(),
		exerciseID: uuid.New(),
		studentID:  uuid.New(),
		graderID:   uuid.New(),
	}

	season1 := models.Season{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Names:     datatypes.JSONSlice[string]{"First Season"},
		Order:     1,
	}
	season2 := models.Season{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Names:     datatypes.JSONSlice[string]{"Second Season"},
		Order:     2,
	}
	f.seasonID = season1.ID

	f.service = NewGradeService(
		&fakeSeasonDirectory{seasons: []models.Season{season1, season2}},
		&fakeExerciseCatalog{exercises: map[uuid.UUID]ExerciseInfo{
			f.exerciseID: {ID: f.exerciseID, SubjectID: f.subjectID, SeasonID: season1.ID, MaxPoints: 10},
		}},
		&fakeStudentDirectory{known: map[uuid.UUID]bool{f.studentID: true}},
		f.store,
		time.Minute,
	)
	return f
}

func floatPtr(v float64) *float64 { return &v }

func TestApplyBulk_ExerciseIdempotentOverwrite(t *testing.T) {
	f := newGradeFixture(t)
	ctx := context.Background()

	req := BulkGradeRequest{
		SubjectID:   f.subjectID,
		SeasonLabel: "Season 1",
		Kind:        grading.KindExercise,
		ExerciseID:  &f.exerciseID,
		GradedBy:    f.graderID,
		Entries:     []BulkGradeEntry{{StudentID: f.studentID, Value: floatPtr(6)}},
	}

	if _, err := f.service.ApplyBulk(ctx, req); err != nil {
		t.Fatalf("first ApplyBulk returned error: %v", err)
	}

	// Re-grading the same (student, exercise) replaces the record.
	req.Entries[0].Value = floatPtr(8)
	res, err := f.service.ApplyBulk(ctx, req)
	if err != nil {
		t.Fatalf("second ApplyBulk returned error: %v", err)
	}

	if res.Applied != 1 || res.Recomputed != 1 {
		t.Errorf("Applied = %d, Recomputed = %d, want 1 and 1", res.Applied, res.Recomputed)
	}
	if len(f.store.exerciseGrades) != 1 {
		t.Fatalf("store holds %d exercise grades, want exactly 1", len(f.store.exerciseGrades))
	}
	for _, g := range f.store.exerciseGrades {
		if g.Value != 8 {
			t.Errorf("stored value = %.2f, want 8 (second submission wins)", g.Value)
		}
	}

	composite, err := f.service.GetComposite(ctx, f.studentID, f.subjectID, f.seasonID)
	if err != nil {
		t.Fatalf("GetComposite returned error: %v", err)
	}
	if composite.ExercisesScore != 8 {
		t.Errorf("ExercisesScore = %.2f, want 8 (not 6+8)", composite.ExercisesScore)
	}
}

func TestApplyBulk_SeasonNotResolvedIsBatchFatal(t *testing.T) {
	f := newGradeFixture(t)

	_, err := f.service.ApplyBulk(context.Background(), BulkGradeRequest{
		SubjectID:   f.subjectID,
		SeasonLabel: "Seson  3",
		Kind:        grading.KindMonthlyExam,
		ExamSlot:    1,
		GradedBy:    f.graderID,
		Entries:     []BulkGradeEntry{{StudentID: f.studentID, Value: floatPtr(15)}},
	})

	if !errors.Is(err, ErrSeasonNotResolved) {
		t.Fatalf("ApplyBulk error = %v, want ErrSeasonNotResolved", err)
	}
	if len(f.store.assessmentGrades) != 0 || len(f.store.exerciseGrades) != 0 {
		t.Error("batch-fatal season failure must write zero grade rows")
	}
}

func TestApplyBulk_OutcomePartition(t *testing.T) {
	f := newGradeFixture(t)
	unknownStudent := uuid.New()

	res, err := f.service.ApplyBulk(context.Background(), BulkGradeRequest{
		SubjectID:   f.subjectID,
		SeasonLabel: "First Season",
		Kind:        grading.KindMonthlyExam,
		ExamSlot:    1,
		GradedBy:    f.graderID,
		Entries: []BulkGradeEntry{
			{StudentID: f.studentID, Value: floatPtr(15)},
			{StudentID: f.studentID, Value: nil},
			{StudentID: f.studentID, Value: floatPtr(22)},
			{StudentID: unknownStudent, Value: floatPtr(10)},
		},
	})
	if err != nil {
		t.Fatalf("ApplyBulk returned error: %v", err)
	}

	if res.Applied != 1 || res.Skipped != 1 || res.Rejected != 2 {
		t.Errorf("Applied/Skipped/Rejected = %d/%d/%d, want 1/1/2", res.Applied, res.Skipped, res.Rejected)
	}

	statuses := []string{OutcomeApplied, OutcomeSkipped, OutcomeRejected, OutcomeRejected}
	for i, want := range statuses {
		if res.Outcomes[i].Status != want {
			t.Errorf("outcome[%d] = %s, want %s", i, res.Outcomes[i].Status, want)
		}
	}

	// Out-of-range values are rejected, never clamped and aggregated.
	if len(f.store.assessmentGrades) != 1 {
		t.Fatalf("store holds %d assessment grades, want 1", len(f.store.assessmentGrades))
	}
	for _, g := range f.store.assessmentGrades {
		if g.Value != 15 {
			t.Errorf("stored value = %.2f, want 15", g.Value)
		}
	}
	if res.Recomputed != 1 {
		t.Errorf("Recomputed = %d, want 1", res.Recomputed)
	}
}

func TestApplyBulk_SubjectMismatchRejectsEntries(t *testing.T) {
	f := newGradeFixture(t)

	otherSubject := uuid.New()
	res, err := f.service.ApplyBulk(context.Background(), BulkGradeRequest{
		SubjectID:   otherSubject,
		SeasonLabel: "Season 1",
		Kind:        grading.KindExercise,
		ExerciseID:  &f.exerciseID,
		GradedBy:    f.graderID,
		Entries: []BulkGradeEntry{
			{StudentID: f.studentID, Value: floatPtr(5)},
			{StudentID: f.studentID, Value: nil},
		},
	})
	if err != nil {
		t.Fatalf("ApplyBulk returned error: %v", err)
	}

	if res.Rejected != 1 || res.Skipped != 1 || res.Applied != 0 {
		t.Errorf("Applied/Skipped/Rejected = %d/%d/%d, want 0/1/1", res.Applied, res.Skipped, res.Rejected)
	}
	if len(f.store.exerciseGrades) != 0 {
		t.Error("subject mismatch must not write grade rows")
	}
	if res.Recomputed != 0 {
		t.Errorf("Recomputed = %d, want 0", res.Recomputed)
	}
}

func TestApplyBulk_ExerciseSeasonMismatchRejectsEntries(t *testing.T) {
	f := newGradeFixture(t)

	// The exercise belongs to season 1; grading it under season 2 must fail
	// per entry.
	res, err := f.service.ApplyBulk(context.Background(), BulkGradeRequest{
		SubjectID:   f.subjectID,
		SeasonLabel: "Second Season",
		Kind:        grading.KindExercise,
		ExerciseID:  &f.exerciseID,
		GradedBy:    f.graderID,
		Entries:     []BulkGradeEntry{{StudentID: f.studentID, Value: floatPtr(5)}},
	})
	if err != nil {
		t.Fatalf("ApplyBulk returned error: %v", err)
	}
	if res.Rejected != 1 || len(f.store.exerciseGrades) != 0 {
		t.Error("season mismatch must reject the entry and write nothing")
	}
}

func TestApplyBulk_InvalidShapeRejectsEntry(t *testing.T) {
	f := newGradeFixture(t)

	res, err := f.service.ApplyBulk(context.Background(), BulkGradeRequest{
		SubjectID:   f.subjectID,
		SeasonLabel: "Season 1",
		Kind:        grading.KindAttendance,
		ExamSlot:    1, // attendance must not carry an exam slot
		GradedBy:    f.graderID,
		Entries:     []BulkGradeEntry{{StudentID: f.studentID, Value: floatPtr(4)}},
	})
	if err != nil {
		t.Fatalf("ApplyBulk returned error: %v", err)
	}
	if res.Rejected != 1 || len(f.store.assessmentGrades) != 0 {
		t.Error("invalid shape must reject the entry and write nothing")
	}
}

func TestApplyBulk_MonthlyExamComposite(t *testing.T) {
	f := newGradeFixture(t)
	ctx := context.Background()

	for slot, value := range map[int]float64{1: 14, 2: 18} {
		_, err := f.service.ApplyBulk(ctx, BulkGradeRequest{
			SubjectID:   f.subjectID,
			SeasonLabel: "Season 1",
			Kind:        grading.KindMonthlyExam,
			ExamSlot:    slot,
			GradedBy:    f.graderID,
			Entries:     []BulkGradeEntry{{StudentID: f.studentID, Value: floatPtr(value)}},
		})
		if err != nil {
			t.Fatalf("ApplyBulk slot %d returned error: %v", slot, err)
		}
	}

	composite, err := f.service.GetComposite(ctx, f.studentID, f.subjectID, f.seasonID)
	if err != nil {
		t.Fatalf("GetComposite returned error: %v", err)
	}
	if composite.MonthlyExam1 == nil || *composite.MonthlyExam1 != 14 {
		t.Error("MonthlyExam1 = nil or wrong, want 14")
	}
	if composite.MonthlyExam2 == nil || *composite.MonthlyExam2 != 18 {
		t.Error("MonthlyExam2 = nil or wrong, want 18")
	}
	if composite.Total != 16 {
		t.Errorf("Total = %.2f, want 16 (mean of both slots)", composite.Total)
	}
}

func TestApplyBulk_TimeoutReportsUnappliedEntries(t *testing.T) {
	f := newGradeFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.service.ApplyBulk(ctx, BulkGradeRequest{
		SubjectID:   f.subjectID,
		SeasonLabel: "Season 1",
		Kind:        grading.KindSeasonExam,
		GradedBy:    f.graderID,
		Entries: []BulkGradeEntry{
			{StudentID: f.studentID, Value: floatPtr(50)},
			{StudentID: f.studentID, Value: floatPtr(55)},
		},
	})
	if err != nil {
		t.Fatalf("ApplyBulk returned error: %v", err)
	}

	if res.Rejected != 2 {
		t.Fatalf("Rejected = %d, want 2", res.Rejected)
	}
	for _, outcome := range res.Outcomes {
		if outcome.Reason != "timeout" {
			t.Errorf("outcome reason = %q, want timeout", outcome.Reason)
		}
	}
	if len(f.store.assessmentGrades) != 0 {
		t.Error("expired batch must leave unapplied entries absent")
	}
}

func TestListCompositesForStudent(t *testing.T) {
	f := newGradeFixture(t)
	ctx := context.Background()

	_, err := f.service.ApplyBulk(ctx, BulkGradeRequest{
		SubjectID:   f.subjectID,
		SeasonLabel: "Season 1",
		Kind:        grading.KindSeasonExam,
		GradedBy:    f.graderID,
		Entries:     []BulkGradeEntry{{StudentID: f.studentID, Value: floatPtr(41)}},
	})
	if err != nil {
		t.Fatalf("ApplyBulk returned error: %v", err)
	}

	composites, err := f.service.ListCompositesForStudent(ctx, f.studentID)
	if err != nil {
		t.Fatalf("ListCompositesForStudent returned error: %v", err)
	}
	if len(composites) != 1 {
		t.Fatalf("got %d composites, want 1", len(composites))
	}
	if composites[0].Total != 41 {
		t.Errorf("Total = %.2f, want 41", composites[0].Total)
	}
}
