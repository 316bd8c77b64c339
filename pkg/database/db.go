// Package database owns the process-wide MongoDB connection.
package database

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aniicone/cafe-api/config"
	"github.com/aniicone/cafe-api/pkg/logger"
)

var (
	Client *mongo.Client
	DB     *mongo.Database
)

var credentials = regexp.MustCompile(`//[^:/@]+:[^@]+@`)

// MaskURI hides the user and password of a connection string.
func MaskURI(uri string) string {
	return credentials.ReplaceAllString(uri, "//***:***@")
}

// Connect dials MONGODB_URI, verifies the primary is reachable and
// selects MONGODB_DATABASE. It returns an error instead of exiting so the
// caller decides how to fail.
func Connect(ctx context.Context) error {
	uri := config.MongoURI()
	logger.Info("database: connecting", "uri", MaskURI(uri))

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(25).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(2 * time.Minute).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("database: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("database: ping: %w", err)
	}

	Client = client
	DB = client.Database(config.MongoDatabase())
	logger.Info("database: connected", "database", DB.Name())
	return nil
}

// Ping checks the primary with a short deadline.
func Ping(ctx context.Context) error {
	if Client == nil {
		return fmt.Errorf("database: not connected")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return Client.Ping(ctx, readpref.Primary())
}

// Disconnect closes the pool. Safe to call when never connected.
func Disconnect(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	err := Client.Disconnect(ctx)
	Client, DB = nil, nil
	return err
}
