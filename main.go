package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/robfig/cron/v3"

	"lms/config"
	enrollmentControllers "lms/controllers/enrollment"
	"lms/database"
	"lms/routers/enrollmentRoutes"
	"lms/services/attendance"
	"lms/services/enrollment"
	"lms/services/notify"
	"lms/services/outbox"
	"lms/store"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	enrollments := store.NewEnrollmentStore(db)
	lessons := store.NewLessonDirectory(db)
	users := store.NewUserDirectory(db)
	queue := outbox.NewQueue(db)
	recorder := attendance.NewRecorder(db)
	notifier := notify.NewNotifier(notify.NewSendgridMailer(cfg), notify.NewRestyTexter(cfg))

	svc := enrollment.NewService(enrollments, lessons, queue)
	sweeper := enrollment.NewSweeper(enrollments, lessons, users, queue, cfg.StaleAfterDays)

	dispatcher := outbox.NewDispatcher(db, cfg.OutboxMaxAttempts)
	outbox.RegisterHandlers(dispatcher, recorder, notifier)

	runner := cron.New()
	if err := sweeper.Schedule(runner, cfg.SweepCronSpec); err != nil {
		log.Fatalf("Failed to schedule deadline sweep: %v", err)
	}
	if err := dispatcher.Schedule(runner, cfg.OutboxPollSpec); err != nil {
		log.Fatalf("Failed to schedule outbox dispatcher: %v", err)
	}
	runner.Start()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	ctrl := enrollmentControllers.NewController(svc)
	enrollmentRoutes.SetupEnrollmentRoutes(app, cfg, ctrl)

	log.Printf("Server is running on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
