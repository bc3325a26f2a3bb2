package main

import (
	"flag"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"aspira/backend/config"
	"aspira/backend/mailer"
	"aspira/backend/middleware"
	"aspira/backend/routes"
	"aspira/backend/utils"
)

func main() {
	seed := flag.Bool("seed", false, "seed example data and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger()

	if *seed {
		if err := utils.Seed(db, logger); err != nil {
			log.Fatalf("Error seeding database: %v", err)
		}
		return
	}

	mail := mailer.NewService(cfg.SendgridKey, cfg.MailFrom, logger)

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Uploaded files are served straight from disk
	app.Static("/uploads", cfg.UploadDir)

	// Setup routes
	routes.SetupRoutes(app, db, cfg, mail, logger)

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
