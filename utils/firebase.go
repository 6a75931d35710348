package utils

import (
	"context"
	"os"

	"loadline/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// FCMClient is nil when no service account is configured; notification
// delivery degrades to a no-op in that case.
var FCMClient *messaging.Client

// FirebaseInit wires up Cloud Messaging from the configured credentials
// file. A missing file is not fatal, pushes are best effort.
func FirebaseInit() {
	logger := GetLogger()
	credFile := config.AppConfig.FirebaseCredentialsFile
	if _, err := os.Stat(credFile); err != nil {
		logger.Warn("firebase credentials not found, push notifications disabled",
			zap.String("file", credFile))
		return
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credFile))
	if err != nil {
		logger.Error("firebase app init failed", zap.Error(err))
		return
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		logger.Error("firebase messaging init failed", zap.Error(err))
		return
	}
	FCMClient = client
	logger.Info("firebase messaging ready")
}
