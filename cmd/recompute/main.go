package main

import (
	"context"
	"log"

	"github.com/private-school-system/backend/internal/config"
	"github.com/private-school-system/backend/internal/database"
	"github.com/private-school-system/backend/internal/models"
	"github.com/private-school-system/backend/internal/services"
)

// Rebuilds every composite grade from the raw exercise and assessment rows.
// Run after manual data fixes or after changing the aggregation weights.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Every (student, subject, season) that has at least one raw grade row.
	var keys []models.CompositeGrade
	if err := db.Raw(`
		SELECT student_id, subject_id, season_id FROM exercise_grades
		UNION
		SELECT student_id, subject_id, season_id FROM assessment_grades
	`).Scan(&keys).Error; err != nil {
		log.Fatal("Failed to collect grade keys:", err)
	}

	gradeService := services.NewGradeService(
		services.NewSeasonDirectory(db),
		services.NewExerciseCatalog(db),
		services.NewStudentDirectory(db),
		services.NewGradeStore(db),
		0,
	)

	count, err := gradeService.RecomputeAll(context.Background(), keys)
	if err != nil {
		log.Fatalf("Recompute stopped after %d composites: %v", count, err)
	}

	log.Printf("Recomputed %d composites", count)
}
