package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

type smsClient interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

type TwilioNotifier struct {
	client smsClient
	from   string
}

func NewTwilioNotifier(accountSID, authToken, from string) *TwilioNotifier {
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioNotifier{client: rc.Api, from: from}
}

// The Twilio client takes no context; ctx is only checked before sending.
func (n *TwilioNotifier) Notify(ctx context.Context, to Recipient, msg Message) error {
	if to.Phone == "" {
		return fmt.Errorf("sms: %w", ErrNoAddress)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &api.CreateMessageParams{}
	params.SetTo(to.Phone)
	params.SetFrom(n.from)
	params.SetBody(msg.Body)
	if _, err := n.client.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}
