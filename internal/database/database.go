package database

import (
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/private-school-system/backend/internal/config"
	"github.com/private-school-system/backend/internal/models"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Server.Env == "development" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Silent
	}

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.Database.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection successful")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	log.Println("Running migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Class{},
		&models.Student{},
		&models.Subject{},
		&models.Season{},
		&models.Chapter{},
		&models.Part{},
		&models.Exercise{},
		&models.ExerciseGrade{},
		&models.AssessmentGrade{},
		&models.CompositeGrade{},
	)
	if err != nil {
		return err
	}

	// The grade tables carry two disjoint identity domains, each guarded by
	// its own unique index; upserts conflict on exactly these columns.
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_exercise_grade_identity ON exercise_grades(student_id, exercise_id)")
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_assessment_grade_identity ON assessment_grades(student_id, subject_id, season_id, kind, exam_slot)")
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_composite_grade_identity ON composite_grades(student_id, subject_id, season_id)")

	// Performance indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_students_class ON students(class_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_exercise_grades_scope ON exercise_grades(subject_id, season_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_composite_grades_student ON composite_grades(student_id)")

	return nil
}
