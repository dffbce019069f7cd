package main

import (
	"context"
	"log"

	"starter-server/confs"
	"starter-server/db"
	"starter-server/logger"
	"starter-server/server"
)

func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	appLog, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}

	// connect to database (postgres or sqlite)
	database, err := db.Connect(cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to connect to DB: ", err)
	}

	created, err := db.SeedAdmin(context.Background(), database.GetDB(), cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		appLog.Fatal("Failed to seed admin: ", err)
	}
	if created {
		appLog.Info("Created admin account ", cfg.AdminEmail)
	}

	// run server
	if err := server.NewServer(cfg, database, appLog).Start(); err != nil {
		appLog.Fatal("Server error: ", err)
	}
}
