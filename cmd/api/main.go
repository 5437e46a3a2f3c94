package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/private-school-system/backend/internal/config"
	"github.com/private-school-system/backend/internal/database"
	"github.com/private-school-system/backend/internal/handlers"
	"github.com/private-school-system/backend/internal/middleware"
	"github.com/private-school-system/backend/internal/models"
	"github.com/private-school-system/backend/internal/services"
)

// @title Private School System API
// @version 1.0
// @description Grading and curriculum backend for a single private school
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if len(os.Args) > 1 {
		handleCommand(os.Args[1])
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if cfg.Server.Env == "development" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		for _, allowed := range cfg.CORS.Origins {
			if origin == allowed {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check - simple endpoint that doesn't require DB
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "private-school-api"})
	})
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Private School System API", "status": "running"})
	})

	// Metrics
	if cfg.Monitoring.PrometheusEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Services
	authService := services.NewAuthService(db, cfg)
	gradeService := services.NewGradeService(
		services.NewSeasonDirectory(db),
		services.NewExerciseCatalog(db),
		services.NewStudentDirectory(db),
		services.NewGradeStore(db),
		cfg.Grading.BatchTimeout,
	)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(db, authService)
	classHandler := handlers.NewClassHandler(db)
	studentHandler := handlers.NewStudentHandler(db)
	subjectHandler := handlers.NewSubjectHandler(db)
	curriculumHandler := handlers.NewCurriculumHandler(db)
	gradeHandler := handlers.NewGradeHandler(gradeService)

	// Routes
	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		// Protected routes
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(authService))
		{
			// Admin only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/users", userHandler.List)
				admin.POST("/users", userHandler.Create)
				admin.GET("/users/:id", userHandler.Get)
				admin.PUT("/users/:id", userHandler.Update)
				admin.DELETE("/users/:id", userHandler.Delete)

				admin.POST("/classes", classHandler.Create)
				admin.PUT("/classes/:id", classHandler.Update)
				admin.DELETE("/classes/:id", classHandler.Delete)

				admin.POST("/students", studentHandler.Create)
				admin.PUT("/students/:id", studentHandler.Update)
				admin.DELETE("/students/:id", studentHandler.Delete)

				admin.POST("/subjects", subjectHandler.Create)
				admin.PUT("/subjects/:id", subjectHandler.Update)
				admin.DELETE("/subjects/:id", subjectHandler.Delete)

				admin.POST("/seasons", curriculumHandler.CreateSeason)
				admin.PUT("/seasons/:id", curriculumHandler.UpdateSeason)
			}

			// Teacher routes (any authenticated staff)
			staff := protected.Group("")
			staff.Use(middleware.RequireTeacher())
			{
				staff.GET("/classes", classHandler.List)
				staff.GET("/classes/:id", classHandler.Get)
				staff.GET("/classes/:id/students", classHandler.GetStudents)
				staff.GET("/students", studentHandler.List)
				staff.GET("/students/:id", studentHandler.Get)
				staff.GET("/students/:id/composite", gradeHandler.GetComposite)
				staff.GET("/students/:id/composites", gradeHandler.ListComposites)
				staff.GET("/students/:id/grades", gradeHandler.ListGrades)
				staff.GET("/subjects", subjectHandler.List)
				staff.GET("/subjects/:id", subjectHandler.Get)

				staff.GET("/seasons", curriculumHandler.ListSeasons)
				staff.GET("/seasons/resolve", curriculumHandler.ResolveSeason)
				staff.GET("/chapters", curriculumHandler.ListChapters)
				staff.POST("/chapters", curriculumHandler.CreateChapter)
				staff.GET("/parts", curriculumHandler.ListParts)
				staff.POST("/parts", curriculumHandler.CreatePart)
				staff.GET("/exercises", curriculumHandler.ListExercises)
				staff.POST("/exercises", curriculumHandler.CreateExercise)

				staff.POST("/grades/bulk", gradeHandler.ApplyBulk)
			}
		}
	}

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func handleCommand(cmd string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	switch cmd {
	case "migrate":
		if err := database.Migrate(db); err != nil {
			log.Fatal("Migration failed:", err)
		}
		log.Println("Migration completed successfully")

	case "seed-admin":
		seedAdmin(db, cfg)

	case "seed-seasons":
		seedSeasons(db)

	default:
		log.Printf("Unknown command: %s", cmd)
	}
}

func seedAdmin(db *gorm.DB, cfg *config.Config) {
	authService := services.NewAuthService(db, cfg)

	var count int64
	db.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	if count > 0 {
		log.Println("Admin already exists")
		return
	}

	admin := &models.User{
		Email:    "admin@school.local",
		FullName: "Administrator",
		Role:     "admin",
		IsActive: true,
	}

	if err := authService.CreateUser(admin, "Admin@123"); err != nil {
		log.Fatal("Failed to create admin:", err)
	}

	log.Println("Admin: admin@school.local / Admin@123")
}

// seedSeasons installs the three-term school year. Each season carries its
// English, Kurdish and Arabic display names; free-text labels on legacy
// records resolve against any of them.
func seedSeasons(db *gorm.DB) {
	var count int64
	db.Model(&models.Season{}).Count(&count)
	if count > 0 {
		log.Println("Seasons already exist")
		return
	}

	seasons := []models.Season{
		{
			Names:  datatypes.JSONSlice[string]{"First Season", "وەرزی یەکەم", "الفصل الاول"},
			Order:  1,
			Active: true,
		},
		{
			Names:  datatypes.JSONSlice[string]{"Second Season", "وەرزی دووەم", "الفصل الثاني"},
			Order:  2,
			Active: true,
		},
		{
			Names:  datatypes.JSONSlice[string]{"Third Season", "وەرزی سێیەم", "الفصل الثالث"},
			Order:  3,
			Active: true,
		},
	}

	if err := db.Create(&seasons).Error; err != nil {
		log.Fatal("Failed to seed seasons:", err)
	}

	log.Printf("Seeded %d seasons", len(seasons))
}
