package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/careermentor/career-mentor/internal/config"
	"github.com/careermentor/career-mentor/internal/domain/fiber/handler"
	"github.com/careermentor/career-mentor/internal/middleware"
	"github.com/careermentor/career-mentor/internal/model"
	"github.com/careermentor/career-mentor/internal/repository"
	"github.com/careermentor/career-mentor/internal/service"
	"github.com/careermentor/career-mentor/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()

	zlog, err := zap.NewProduction()
	if appConfig.Env != "production" {
		zlog, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // 1
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.Env != "production"
		},
	}))
	app.Use(healthcheck.New())

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	for _, dir := range []string{appConfig.UploadDir, appConfig.ReportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			zlog.Fatal("Could not create data directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	db := ConnectDB(zlog)

	sessionRepo := repository.NewSessionRepository()
	statsRepo := repository.NewUserStatsRepository(db)
	jobRepo := repository.NewJobRepository(db)

	gemini, err := service.NewGeminiService(ctx, zlog)
	if err != nil {
		zlog.Fatal("Could not initialize gemini client", zap.Error(err))
	}
	reportService := service.NewReportService(zlog)
	uc := usecase.NewInterviewUsecase(usecase.InterviewUsecaseDeps{
		Sessions:   sessionRepo,
		Stats:      statsRepo,
		Jobs:       jobRepo,
		Gemini:     gemini,
		Resume:     service.NewResumeService(),
		Questions:  service.NewQuestionService(gemini, zlog),
		Evaluator:  service.NewEvaluatorService(gemini, zlog),
		ATS:        service.NewATSService(gemini, jobRepo, zlog),
		Monitor:    service.NewMonitorService(service.NewTimedCaptureProducer(reportService), zlog),
		Storage:    service.NewStorageService(zlog),
		Renderer:   reportService,
		Logger:     zlog,
		UploadDir:  appConfig.UploadDir,
		ReportsDir: appConfig.ReportsDir,
	})

	handler.NewInterviewHandler(uc).RegisterRoutes(app)

	// Monitor goroutine count
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			zlog.Debug("Goroutine count", zap.Int("count", runtime.NumGoroutine()))
		}
	}()

	zlog.Info("Server running", zap.String("port", appConfig.Port))
	if err := app.Listen(appConfig.Port); err != nil {
		zlog.Fatal("Server stopped", zap.Error(err))
	}
}

func ConnectDB(zlog *zap.Logger) *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Port,
		dbConfig.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		zlog.Fatal("Could not connect to database", zap.Error(err))
	}
	pgDB, err := db.DB()
	if err != nil {
		zlog.Fatal("Could not get database instance", zap.Error(err))
	}
	if appConfig.Env != "production" {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(&model.UserStats{}, &model.JobPosting{}); err != nil {
		zlog.Fatal("Migration failed", zap.Error(err))
	}
	return db
}
