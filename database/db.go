package database

import (
	"context"
	"time"

	"loadline/config"
	"loadline/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// MongoClient is the shared client; repositories take collections off it.
var MongoClient *mongo.Client

// InitDB connects and verifies the deployment is reachable. The slot
// store needs a replica set for multi-document transactions, so failing
// fast here is preferable to failing on the first booking.
func InitDB() {
	logger := utils.GetLogger()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.AppConfig.DatabaseURL))
	if err != nil {
		logger.Fatal("mongo connect failed", zap.Error(err))
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Fatal("mongo ping failed", zap.String("uri", config.AppConfig.DatabaseURL), zap.Error(err))
	}

	MongoClient = client
	logger.Info("mongo connected", zap.String("database", config.AppConfig.DatabaseName))
}

// Disconnect releases the client during shutdown.
func Disconnect(ctx context.Context) {
	if MongoClient == nil {
		return
	}
	if err := MongoClient.Disconnect(ctx); err != nil {
		utils.GetLogger().Warn("mongo disconnect failed", zap.Error(err))
	}
}

// DB returns the application database handle.
func DB() *mongo.Database {
	return MongoClient.Database(config.AppConfig.DatabaseName)
}
