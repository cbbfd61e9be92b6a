package notify

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

// pushClient is the subset of *messaging.Client used here.
type pushClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type FCMNotifier struct {
	client pushClient
}

func NewFCMNotifier(client *messaging.Client) *FCMNotifier {
	return &FCMNotifier{client: client}
}

func (n *FCMNotifier) Notify(ctx context.Context, to Recipient, msg Message) error {
	if to.DeviceToken == "" {
		return fmt.Errorf("fcm: %w", ErrNoAddress)
	}
	_, err := n.client.Send(ctx, &messaging.Message{
		Token: to.DeviceToken,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	})
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}
