package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ryde/internal/modules/identity"
	"ryde/internal/types"
)

type AccountLookup interface {
	Profile(ctx context.Context, p types.Principal) (*identity.Account, error)
}

// OTPSender delivers a ride start code to the rider who booked the ride.
type OTPSender struct {
	accounts AccountLookup
	notifier Notifier
	log      *zap.Logger
}

func NewOTPSender(accounts AccountLookup, notifier Notifier, l *zap.Logger) *OTPSender {
	if l == nil {
		l = zap.NewNop()
	}
	return &OTPSender{accounts: accounts, notifier: notifier, log: l}
}

func (s *OTPSender) SendRideOTP(ctx context.Context, riderID, rideID types.ID, code string) error {
	a, err := s.accounts.Profile(ctx, types.RiderPrincipal(riderID))
	if err != nil {
		return fmt.Errorf("load rider: %w", err)
	}
	msg := Message{
		Title: "Your ride code",
		Body:  fmt.Sprintf("Your Ryde code is %s. Share it with your driver to start the ride.", code),
		Data: map[string]string{
			"type":   "ride_otp",
			"rideId": rideID.String(),
		},
	}
	if err := s.notifier.Notify(ctx, Recipient{Phone: a.Phone, DeviceToken: a.DeviceToken}, msg); err != nil {
		s.log.Warn("ride otp delivery failed", zap.String("ride_id", rideID.String()), zap.Error(err))
		return err
	}
	s.log.Info("ride otp sent", zap.String("ride_id", rideID.String()))
	return nil
}
