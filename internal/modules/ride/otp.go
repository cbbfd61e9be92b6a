// README: One-time code generation and constant-time verification for ride start.
package ride

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	DefaultOTPLength = 6
	DefaultOTPTTL    = 300 * time.Second

	minOTPLength = 4
	maxOTPLength = 6
)

// OTP issues and checks ride start codes. Codes are stored as HMAC-SHA256 digests.
type OTP struct {
	length int
	ttl    time.Duration
	secret []byte
	now    func() time.Time
	equal  func(a, b []byte) bool
}

type OTPOption func(*OTP)

func WithOTPLength(n int) OTPOption {
	return func(o *OTP) { o.length = n }
}

func WithOTPTTL(d time.Duration) OTPOption {
	return func(o *OTP) { o.ttl = d }
}

func WithOTPClock(now func() time.Time) OTPOption {
	return func(o *OTP) { o.now = now }
}

// WithOTPComparator replaces the fixed-time comparison; tests only.
func WithOTPComparator(eq func(a, b []byte) bool) OTPOption {
	return func(o *OTP) { o.equal = eq }
}

func NewOTP(secret []byte, opts ...OTPOption) (*OTP, error) {
	if len(secret) == 0 {
		return nil, errors.New("otp secret is required")
	}
	o := &OTP{
		length: DefaultOTPLength,
		ttl:    DefaultOTPTTL,
		secret: secret,
		now:    time.Now,
		equal:  constantTimeEqual,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.length < minOTPLength || o.length > maxOTPLength {
		return nil, fmt.Errorf("otp length %d outside [%d,%d]", o.length, minOTPLength, maxOTPLength)
	}
	if o.ttl <= 0 {
		return nil, errors.New("otp ttl must be positive")
	}
	return o, nil
}

// Generate returns the raw code for out-of-band delivery and the challenge to persist.
func (o *OTP) Generate() (string, Challenge, error) {
	var b strings.Builder
	b.Grow(o.length)
	ten := big.NewInt(10)
	for i := 0; i < o.length; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", Challenge{}, fmt.Errorf("draw otp digit: %w", err)
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	code := b.String()
	return code, Challenge{Hash: o.hash(code), ExpiresAt: o.now().Add(o.ttl)}, nil
}

// Verify reports whether candidate matches an unexpired challenge.
func (o *OTP) Verify(c *Challenge, candidate string) bool {
	return o.VerifyDetailed(c, candidate) == nil
}

// VerifyDetailed is Verify with the failure reason. Callers must not expose the distinction.
func (o *OTP) VerifyDetailed(c *Challenge, candidate string) error {
	if c == nil || c.Hash == "" || c.ExpiresAt.IsZero() {
		return ErrOTPMissing
	}
	if !o.now().Before(c.ExpiresAt) {
		return ErrOTPExpired
	}
	if !o.equal([]byte(o.hash(candidate)), []byte(c.Hash)) {
		return ErrInvalidOTP
	}
	return nil
}

func (o *OTP) hash(code string) string {
	mac := hmac.New(sha256.New, o.secret)
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidCandidate checks the submitted code is 4 to 6 ASCII digits.
func ValidCandidate(s string) bool {
	if len(s) < minOTPLength || len(s) > maxOTPLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// constantTimeEqual reports whether a and b are equal in time independent of their contents.
// Lengths are checked first because subtle.ConstantTimeCompare returns early when they differ.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
