package grading

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind is the type of a grading event.
type Kind string

const (
	KindExercise    Kind = "exercise"
	KindMonthlyExam Kind = "monthly_exam"
	KindAttendance  Kind = "attendance"
	KindBehaviour   Kind = "behaviour"
	KindSeasonExam  Kind = "season_exam"
)

// Valid returns true when the kind is a supported value.
func (k Kind) Valid() bool {
	switch k {
	case KindExercise, KindMonthlyExam, KindAttendance, KindBehaviour, KindSeasonExam:
		return true
	default:
		return false
	}
}

// Component bounds. Exercise values are bounded by the exercise's own point
// value instead of a fixed constant.
const (
	ExercisesCap     = 10.0
	MonthlyExamMax   = 20.0
	ConductMax       = 5.0
	ParticipationCap = 10.0
	SeasonExamMax    = 60.0
)

var (
	// ErrInvalidShape means the kind / exam-slot / exercise-id combination is
	// structurally wrong (e.g. an exam slot on an attendance grade).
	ErrInvalidShape = errors.New("invalid grade shape")
	// ErrOutOfRange means the value lies outside its component's bounds.
	// Out-of-range values are rejected, never clamped; clamping would mask
	// grader mistakes.
	ErrOutOfRange = errors.New("grade value out of range")
)

// Event is one raw grading submission for one student. For KindExercise the
// SubjectID/SeasonID are derived from the exercise's chapter chain, and
// ExerciseID identifies the record; for every other kind ExerciseID is nil
// and the subject/season/kind/slot tuple identifies it.
type Event struct {
	StudentID  uuid.UUID `json:"student_id"`
	SubjectID  uuid.UUID `json:"subject_id"`
	SeasonID   uuid.UUID `json:"season_id"`
	Kind       Kind      `json:"kind"`
	ExamSlot   int       `json:"exam_slot,omitempty"`
	ExerciseID uuid.UUID `json:"exercise_id"`
	Value      float64   `json:"value"`
}

// IdentityKey is the uniqueness key of a grade record. Grade records live in
// two disjoint uniqueness domains over the same logical table: exercise-keyed
// rows, identified by (student, exercise), and type-keyed rows, identified by
// (student, subject, season, kind, exam slot). ByExercise tags the domain;
// the fields of the other domain stay zero.
type IdentityKey struct {
	ByExercise bool

	StudentID  uuid.UUID
	ExerciseID uuid.UUID

	SubjectID uuid.UUID
	SeasonID  uuid.UUID
	Kind      Kind
	ExamSlot  int
}

// Conflicts reports whether two keys address the same logical record.
func (k IdentityKey) Conflicts(other IdentityKey) bool {
	return k == other
}

// Classify validates an event's shape and routes it to its uniqueness
// domain. Monthly exams must carry slot 1 or 2; every other kind must carry
// slot 0; exercise events must name their exercise.
func Classify(e Event) (IdentityKey, error) {
	if !e.Kind.Valid() {
		return IdentityKey{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidShape, e.Kind)
	}

	switch e.Kind {
	case KindExercise:
		if e.ExerciseID == uuid.Nil {
			return IdentityKey{}, fmt.Errorf("%w: exercise grade without exercise id", ErrInvalidShape)
		}
		if e.ExamSlot != 0 {
			return IdentityKey{}, fmt.Errorf("%w: exam slot %d on %s grade", ErrInvalidShape, e.ExamSlot, e.Kind)
		}
		return IdentityKey{
			ByExercise: true,
			StudentID:  e.StudentID,
			ExerciseID: e.ExerciseID,
		}, nil

	case KindMonthlyExam:
		if e.ExamSlot != 1 && e.ExamSlot != 2 {
			return IdentityKey{}, fmt.Errorf("%w: monthly exam slot must be 1 or 2, got %d", ErrInvalidShape, e.ExamSlot)
		}

	default:
		if e.ExamSlot != 0 {
			return IdentityKey{}, fmt.Errorf("%w: exam slot %d on %s grade", ErrInvalidShape, e.ExamSlot, e.Kind)
		}
	}

	return IdentityKey{
		StudentID: e.StudentID,
		SubjectID: e.SubjectID,
		SeasonID:  e.SeasonID,
		Kind:      e.Kind,
		ExamSlot:  e.ExamSlot,
	}, nil
}

// MaxValue returns the inclusive upper bound for a value of the given kind.
// maxPoints is the exercise's own point value and is only read for
// KindExercise.
func MaxValue(kind Kind, maxPoints float64) float64 {
	switch kind {
	case KindExercise:
		return maxPoints
	case KindMonthlyExam:
		return MonthlyExamMax
	case KindAttendance, KindBehaviour:
		return ConductMax
	case KindSeasonExam:
		return SeasonExamMax
	default:
		return 0
	}
}

// CheckValue enforces component bounds at write time.
func CheckValue(kind Kind, value, maxPoints float64) error {
	max := MaxValue(kind, maxPoints)
	if value < 0 || value > max {
		return fmt.Errorf("%w: %s value %.2f outside 0..%.2f", ErrOutOfRange, kind, value, max)
	}
	return nil
}
