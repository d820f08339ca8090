package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	mu     sync.Mutex
	client *mongo.Client
)

// Connect returns the process-wide client, dialing and pinging it on first
// use. Later calls reuse the same client regardless of uri.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	mu.Lock()
	defer mu.Unlock()

	if client != nil {
		return client, nil
	}
	if uri == "" {
		return nil, fmt.Errorf("mongodb: connection uri is empty")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(30 * time.Second)

	logrus.Info("Connecting to MongoDB...")
	c, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}
	if err := c.Ping(ctx, readpref.Primary()); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: ping: %w", err)
	}
	logrus.Info("Connected to MongoDB")

	client = c
	return client, nil
}

// Disconnect closes the shared client if one was opened.
func Disconnect(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	if client == nil {
		return nil
	}
	err := client.Disconnect(ctx)
	client = nil
	return err
}

// Ping reports whether the shared client can reach the primary.
func Ping(ctx context.Context) error {
	mu.Lock()
	c := client
	mu.Unlock()

	if c == nil {
		return fmt.Errorf("mongodb: not connected")
	}
	return c.Ping(ctx, readpref.Primary())
}
