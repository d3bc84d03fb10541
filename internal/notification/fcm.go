// Package notification sends push messages through Firebase Cloud Messaging.
package notification

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"habitTrackerAPI/internal/logger"
	"habitTrackerAPI/internal/types/notification"
)

// ErrNoCredentials is returned when neither inline nor file credentials exist.
var ErrNoCredentials = errors.New("no firebase credentials configured")

type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type FCMService struct {
	client messageSender
}

// Credentials picks the client option for firebase. Base64 encoded JSON wins
// over the key file.
func Credentials(encodedJSON, filePath string) (option.ClientOption, error) {
	if encodedJSON != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode firebase credentials: %w", err)
		}
		return option.WithCredentialsJSON(decoded), nil
	}

	if filePath == "" {
		return nil, ErrNoCredentials
	}
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s not found", ErrNoCredentials, filePath)
		}
		return nil, fmt.Errorf("failed to stat firebase credentials: %w", err)
	}
	return option.WithCredentialsFile(filePath), nil
}

func NewFCMService(ctx context.Context, encodedJSON, filePath string) (*FCMService, error) {
	opt, err := Credentials(encodedJSON, filePath)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	logger.Info("FCM Service: initialized")
	return &FCMService{client: client}, nil
}

// SendPush sends one message per token. It fails only when every send failed.
func (s *FCMService) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error {
	if len(tokens) == 0 {
		return nil
	}

	stringData := make(map[string]string, len(data))
	for k, v := range data {
		stringData[k] = fmt.Sprintf("%v", v)
	}

	sent, failed := 0, 0
	for _, t := range tokens {
		_, err := s.client.Send(ctx, buildMessage(t, title, body, stringData))
		if err != nil {
			logger.Warn("FCM: send failed", "platform", t.Platform, "err", err)
			failed++
			continue
		}
		sent++
	}

	logger.Debug("FCM: push sent", "sent", sent, "failed", failed)
	if sent == 0 {
		return fmt.Errorf("all %d push notifications failed", failed)
	}
	return nil
}

func buildMessage(t notification.DeviceToken, title, body string, data map[string]string) *messaging.Message {
	msg := &messaging.Message{
		Token:        t.Token,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	}

	switch t.Platform {
	case "ios":
		msg.APNS = &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
		}
	case "web":
		msg.Webpush = &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{Title: title, Body: body},
		}
	default:
		msg.Android = &messaging.AndroidConfig{
			Priority:     "high",
			Notification: &messaging.AndroidNotification{Sound: "default"},
		}
	}
	return msg
}
