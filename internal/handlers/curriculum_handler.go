package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/private-school-system/backend/internal/models"
	"github.com/private-school-system/backend/internal/season"
)

// CurriculumHandler manages the subject -> season -> chapter -> part ->
// exercise hierarchy plus season administration. The hierarchy cascade is a
// UI concern; the grading core only ever consumes the final resolved ids.
type CurriculumHandler struct {
	db *gorm.DB
}

func NewCurriculumHandler(db *gorm.DB) *CurriculumHandler {
	return &CurriculumHandler{db: db}
}

// Seasons

func (h *CurriculumHandler) ListSeasons(c *gin.Context) {
	var seasons []models.Season
	if err := h.db.Order("season_order").Find(&seasons).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, seasons)
}

func (h *CurriculumHandler) CreateSeason(c *gin.Context) {
	var req struct {
		Names []string `json:"names" binding:"required,min=1"`
		Order int      `json:"order" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := models.Season{
		Names:  datatypes.JSONSlice[string](req.Names),
		Order:  req.Order,
		Active: true,
	}
	if err := h.db.Create(&s).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, s)
}

func (h *CurriculumHandler) UpdateSeason(c *gin.Context) {
	id := c.Param("id")

	var s models.Season
	if err := h.db.First(&s, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Season not found"})
		return
	}

	var req struct {
		Names  []string `json:"names"`
		Active *bool    `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Order is identity once grades reference the season; names may grow
	// new spellings, active may flip.
	if len(req.Names) > 0 {
		s.Names = datatypes.JSONSlice[string](req.Names)
	}
	if req.Active != nil {
		s.Active = *req.Active
	}

	if err := h.db.Save(&s).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s)
}

// ResolveSeason previews how a free-text label resolves, so admin screens
// can validate legacy labels before bulk imports.
func (h *CurriculumHandler) ResolveSeason(c *gin.Context) {
	label := c.Query("label")

	var seasons []models.Season
	if err := h.db.Order("season_order").Find(&seasons).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resolved, err := season.Resolve(label, seasons)
	if err != nil {
		if errors.Is(err, season.ErrNotResolved) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Season not resolved", "label": label})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resolved)
}

// Chapters

func (h *CurriculumHandler) ListChapters(c *gin.Context) {
	subjectID := c.Query("subject_id")
	seasonID := c.Query("season_id")

	var chapters []models.Chapter
	query := h.db.Order("chapter_order")
	if subjectID != "" {
		query = query.Where("subject_id = ?", subjectID)
	}
	if seasonID != "" {
		query = query.Where("season_id = ?", seasonID)
	}

	if err := query.Find(&chapters).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, chapters)
}

func (h *CurriculumHandler) CreateChapter(c *gin.Context) {
	var req struct {
		SubjectID uuid.UUID `json:"subject_id" binding:"required"`
		SeasonID  uuid.UUID `json:"season_id" binding:"required"`
		Title     string    `json:"title" binding:"required"`
		Order     int       `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var subject models.Subject
	if err := h.db.First(&subject, "id = ?", req.SubjectID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Subject not found"})
		return
	}
	var s models.Season
	if err := h.db.First(&s, "id = ?", req.SeasonID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Season not found"})
		return
	}

	chapter := models.Chapter{
		SubjectID: req.SubjectID,
		SeasonID:  req.SeasonID,
		Title:     req.Title,
		Order:     req.Order,
	}
	if err := h.db.Create(&chapter).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, chapter)
}

// Parts

func (h *CurriculumHandler) ListParts(c *gin.Context) {
	chapterID := c.Query("chapter_id")

	var parts []models.Part
	query := h.db.Order("part_order")
	if chapterID != "" {
		query = query.Where("chapter_id = ?", chapterID)
	}

	if err := query.Find(&parts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, parts)
}

func (h *CurriculumHandler) CreatePart(c *gin.Context) {
	var req struct {
		ChapterID uuid.UUID `json:"chapter_id" binding:"required"`
		Title     string    `json:"title" binding:"required"`
		Order     int       `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var chapter models.Chapter
	if err := h.db.First(&chapter, "id = ?", req.ChapterID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chapter not found"})
		return
	}

	part := models.Part{
		ChapterID: req.ChapterID,
		Title:     req.Title,
		Order:     req.Order,
	}
	if err := h.db.Create(&part).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, part)
}

// Exercises

func (h *CurriculumHandler) ListExercises(c *gin.Context) {
	partID := c.Query("part_id")

	var exercises []models.Exercise
	query := h.db
	if partID != "" {
		query = query.Where("part_id = ?", partID)
	}

	if err := query.Find(&exercises).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, exercises)
}

func (h *CurriculumHandler) CreateExercise(c *gin.Context) {
	var req struct {
		PartID    uuid.UUID `json:"part_id" binding:"required"`
		Title     string    `json:"title" binding:"required"`
		MaxPoints float64   `json:"max_points" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var part models.Part
	if err := h.db.First(&part, "id = ?", req.PartID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Part not found"})
		return
	}

	exercise := models.Exercise{
		PartID:    req.PartID,
		Title:     req.Title,
		MaxPoints: req.MaxPoints,
	}
	if err := h.db.Create(&exercise).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, exercise)
}
