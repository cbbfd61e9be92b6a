package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier records that a message would have been sent. The body is never logged.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(l *zap.Logger) *LogNotifier {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogNotifier{log: l}
}

func (n *LogNotifier) Notify(_ context.Context, to Recipient, msg Message) error {
	n.log.Info("notification suppressed",
		zap.String("title", msg.Title),
		zap.String("phone", maskPhone(to.Phone)),
		zap.Bool("has_device_token", to.DeviceToken != ""),
	)
	return nil
}

func maskPhone(p string) string {
	if len(p) <= 4 {
		return p
	}
	masked := make([]byte, len(p))
	for i := range masked {
		if i < len(p)-4 {
			masked[i] = '*'
		} else {
			masked[i] = p[i]
		}
	}
	return string(masked)
}
