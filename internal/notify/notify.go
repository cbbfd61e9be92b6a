// README: Outbound notifications (FCM push, Twilio SMS, log) used to deliver ride OTPs.
package notify

import (
	"context"
	"errors"
)

var ErrNoAddress = errors.New("recipient has no address for this channel")

type Recipient struct {
	Phone       string
	DeviceToken string
}

type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

type Notifier interface {
	Notify(ctx context.Context, to Recipient, msg Message) error
}

// Fallback tries each notifier in order and stops at the first success.
type Fallback []Notifier

func (f Fallback) Notify(ctx context.Context, to Recipient, msg Message) error {
	var errs []error
	for _, n := range f {
		err := n.Notify(ctx, to, msg)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return ErrNoAddress
	}
	return errors.Join(errs...)
}
