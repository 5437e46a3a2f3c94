package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JSONB custom type for JSON fields
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONB)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Base model with UUID
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// User represents system users (admin/teacher)
type User struct {
	BaseModel
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Role         string `gorm:"type:varchar(20);not null" json:"role"`
	FullName     string `gorm:"type:varchar(255);not null" json:"full_name"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
	Meta         JSONB  `gorm:"type:json" json:"meta"`
}

// RefreshToken stores refresh tokens for revocation
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index" json:"user_id"`
	Token     string    `gorm:"type:varchar(500);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Revoked   bool      `gorm:"default:false;index" json:"revoked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Class represents a classroom group (e.g. "Grade 7 / A")
type Class struct {
	BaseModel
	Name      string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Level     string     `gorm:"type:varchar(50)" json:"level"`
	TeacherID *uuid.UUID `gorm:"type:char(36);index" json:"teacher_id"`
	Teacher   *User      `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
}

// Student represents a student
type Student struct {
	BaseModel
	AdmissionNo string     `gorm:"type:varchar(50);not null;uniqueIndex" json:"admission_no"`
	FirstName   string     `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName    string     `gorm:"type:varchar(100);not null" json:"last_name"`
	Gender      string     `gorm:"type:varchar(10)" json:"gender"`
	ClassID     *uuid.UUID `gorm:"type:char(36);index" json:"class_id"`
	Class       *Class     `gorm:"foreignKey:ClassID" json:"class,omitempty"`
}

// Subject represents a taught subject
type Subject struct {
	BaseModel
	Name string `gorm:"type:varchar(255);not null" json:"name"`
	Code string `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
}

// Season is a canonical academic term. Names holds every display name the
// season is known by (multilingual plus legacy codes); Order is the term's
// position in the academic year and doubles as a fallback identity when a
// free-text label only carries a number.
type Season struct {
	BaseModel
	Names  datatypes.JSONSlice[string] `gorm:"not null" json:"names"`
	Order  int                         `gorm:"column:season_order;not null;uniqueIndex" json:"order"`
	Active bool                        `gorm:"default:true" json:"active"`
}

// Chapter belongs to a subject within a season
type Chapter struct {
	BaseModel
	SubjectID uuid.UUID `gorm:"type:char(36);not null;index:idx_chapter_subject_season" json:"subject_id"`
	SeasonID  uuid.UUID `gorm:"type:char(36);not null;index:idx_chapter_subject_season" json:"season_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Order     int       `gorm:"column:chapter_order;default:0" json:"order"`
	Subject   *Subject  `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	Season    *Season   `gorm:"foreignKey:SeasonID" json:"season,omitempty"`
}

// Part subdivides a chapter
type Part struct {
	BaseModel
	ChapterID uuid.UUID `gorm:"type:char(36);not null;index" json:"chapter_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Order     int       `gorm:"column:part_order;default:0" json:"order"`
	Chapter   *Chapter  `gorm:"foreignKey:ChapterID" json:"chapter,omitempty"`
}

// Exercise is the smallest gradable unit. Its subject and season follow
// transitively from part -> chapter.
type Exercise struct {
	BaseModel
	PartID    uuid.UUID `gorm:"type:char(36);not null;index" json:"part_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	MaxPoints float64   `gorm:"type:decimal(5,2);not null;default:10" json:"max_points"`
	Part      *Part     `gorm:"foreignKey:PartID" json:"part,omitempty"`
}

// ExerciseGrade is one student's grade for one exercise. A student has at
// most one row per exercise; re-grading overwrites value/notes/graded_at.
// SubjectID and SeasonID are derived from the exercise's chapter chain at
// write time, never taken from the submission.
type ExerciseGrade struct {
	BaseModel
	StudentID  uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_exercise_grade_identity" json:"student_id"`
	ExerciseID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_exercise_grade_identity" json:"exercise_id"`
	SubjectID  uuid.UUID `gorm:"type:char(36);not null;index:idx_exercise_grade_scope" json:"subject_id"`
	SeasonID   uuid.UUID `gorm:"type:char(36);not null;index:idx_exercise_grade_scope" json:"season_id"`
	Value      float64   `gorm:"type:decimal(5,2);not null" json:"value"`
	Notes      string    `gorm:"type:text" json:"notes"`
	GradedAt   time.Time `gorm:"not null" json:"graded_at"`
	GradedBy   uuid.UUID `gorm:"type:char(36);not null" json:"graded_by"`
	Student    *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Exercise   *Exercise `gorm:"foreignKey:ExerciseID" json:"exercise,omitempty"`
}

// AssessmentGrade is one student's grade for a type-keyed grading event
// (monthly exam, attendance, behaviour, season exam). ExamSlot is 1 or 2 for
// monthly exams and 0 for every other kind, so the unique index covers the
// whole type-keyed identity without nullable columns.
type AssessmentGrade struct {
	BaseModel
	StudentID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_assessment_grade_identity" json:"student_id"`
	SubjectID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_assessment_grade_identity" json:"subject_id"`
	SeasonID  uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_assessment_grade_identity" json:"season_id"`
	Kind      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_assessment_grade_identity" json:"kind"`
	ExamSlot  int       `gorm:"not null;default:0;uniqueIndex:idx_assessment_grade_identity" json:"exam_slot"`
	Value     float64   `gorm:"type:decimal(5,2);not null" json:"value"`
	Notes     string    `gorm:"type:text" json:"notes"`
	GradedAt  time.Time `gorm:"not null" json:"graded_at"`
	GradedBy  uuid.UUID `gorm:"type:char(36);not null" json:"graded_by"`
	Student   *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Subject   *Subject  `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	Season    *Season   `gorm:"foreignKey:SeasonID" json:"season,omitempty"`
}

// CompositeGrade is the derived 0-100 score per (student, subject, season).
// It is recomputed from grade rows on every write, never edited directly.
// Nil component pointers mean "ungraded", which reports render as blank;
// a stored zero means "graded zero".
type CompositeGrade struct {
	BaseModel
	StudentID      uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_composite_grade_identity" json:"student_id"`
	SubjectID      uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_composite_grade_identity" json:"subject_id"`
	SeasonID       uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_composite_grade_identity" json:"season_id"`
	ExercisesScore float64   `gorm:"type:decimal(5,2);not null;default:0" json:"exercises_score"`
	MonthlyExam1   *float64  `gorm:"type:decimal(5,2)" json:"monthly_exam_1"`
	MonthlyExam2   *float64  `gorm:"type:decimal(5,2)" json:"monthly_exam_2"`
	Behaviour      *float64  `gorm:"type:decimal(5,2)" json:"behaviour"`
	Attendance     *float64  `gorm:"type:decimal(5,2)" json:"attendance"`
	SeasonExam     *float64  `gorm:"type:decimal(5,2)" json:"season_exam"`
	Total          float64   `gorm:"type:decimal(5,2);not null;default:0" json:"total"`
	ComputedAt     time.Time `gorm:"not null" json:"computed_at"`
	Student        *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Subject        *Subject  `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	Season         *Season   `gorm:"foreignKey:SeasonID" json:"season,omitempty"`
}
