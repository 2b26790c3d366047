package main

import (
	"log"

	"lms/cache"
	"lms/config"
	authController "lms/controllers/auth"
	clientController "lms/controllers/client"
	contentController "lms/controllers/content"
	courseController "lms/controllers/course"
	dashboardController "lms/controllers/dashboard"
	enrollmentController "lms/controllers/enrollment"
	userController "lms/controllers/user"
	"lms/database"
	"lms/routers/authRoutes"
	"lms/routers/clientRoutes"
	"lms/routers/contentRoutes"
	"lms/routers/courseRoutes"
	"lms/routers/dashboardRoutes"
	"lms/routers/enrollmentRoutes"
	"lms/routers/userRoutes"
	"lms/services/access"
	"lms/services/auth"
	"lms/services/catalog"
	"lms/services/enroll"
	"lms/services/tenant"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	store, err := cache.New(cfg.RedisURL)
	if err != nil {
		// The cache is a nil-safe accelerator; run without it.
		log.Printf("Redis unavailable, continuing without cache: %v", err)
		store = nil
	}

	evaluator := access.NewEvaluator(db, store, cfg.InstructorCanEdit)
	authSvc := auth.New(db, cfg)
	catalogSvc := catalog.New(db, store, evaluator)
	enrollSvc := enroll.New(db, store, evaluator)
	tenantSvc := tenant.New(db, store)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app, authController.New(authSvc))
	userRoutes.SetupUserRoutes(app, userController.New(authSvc, tenantSvc, evaluator))
	clientRoutes.SetupClientRoutes(app, clientController.New(tenantSvc, evaluator))
	courseRoutes.SetupCourseRoutes(app, courseController.New(catalogSvc))
	contentRoutes.SetupContentRoutes(app, contentController.New(catalogSvc, enrollSvc))
	enrollmentRoutes.SetupEnrollmentRoutes(app, enrollmentController.New(enrollSvc))
	dashboardRoutes.SetupDashboardRoutes(app, dashboardController.New(enrollSvc))

	utils.InitializeReminderScheduler(db)

	log.Printf("Server is running on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
