package main

import (
	"os"
	"os/signal"
	"syscall"

	"condo-app/audit"
	"condo-app/config"
	"condo-app/controllers/idgen"
	"condo-app/database"
	"condo-app/migration"
	"condo-app/notify"
	"condo-app/routes"

	"github.com/gofiber/fiber/v2"
)

func main() {
	config.LoadConfig()
	config.InitLogger(config.APP_NAME)
	log := config.Logger

	if err := idgen.Init(config.SnowflakeNode); err != nil {
		log.Fatalf("Failed to init Snowflake: %v", err)
	}

	if err := database.EnsureDatabaseExists(config.DBName); err != nil {
		log.Fatalf("Failed to ensure database exists: %v", err)
	}

	db, err := database.Open()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := migration.Migrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	if err := database.RunSeeders(db); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	auditQueue := audit.NewQueue(audit.NewGormSink(db), config.AuditQueueSize, log.WithField("component", "audit"))
	auditQueue.Start()

	app := fiber.New(fiber.Config{BodyLimit: config.MaxUploadFileSize + 1024*1024})
	config.SetupCORS(app)
	routes.Setup(app, db, auditQueue, notify.NewMailNotifierFromConfig())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.Infof("Server listening on port %s", config.APP_PORT)
	if err := app.Listen(":" + config.APP_PORT); err != nil {
		log.Fatal(err)
	}

	auditQueue.Close()
}
