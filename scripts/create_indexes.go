package main

import (
	"context"
	"time"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository"
	"github.com/hasakeplay/cms-backend/internal/adapters/repository/mongodb"
	"github.com/hasakeplay/cms-backend/internal/config"
	"github.com/sirupsen/logrus"
)

// Run this script once against a fresh database to create indexes.
// The API also ensures them at startup.
// Usage: go run scripts/create_indexes.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	// Atlas can be slow to answer the first handshake
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongodb.Disconnect(context.Background())

	db := client.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		logrus.WithError(err).Fatal("Failed to create indexes")
	}
	logrus.WithField("database", cfg.MongoDatabase).Info("All indexes created")
}
