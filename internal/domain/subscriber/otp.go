package subscriber

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/bonuslab/loyalty-api/internal/pkg/validator"
)

const otpCodeLength = 6

const keyPrefixOTP = "otp:"

// SMSSender delivers verification codes. The SMS gateway is an external
// collaborator; production wires a gateway client, development logs.
type SMSSender interface {
	Send(ctx context.Context, mobile, text string) error
}

// LogSMSSender writes outgoing SMS to the log instead of a gateway.
type LogSMSSender struct{}

func (LogSMSSender) Send(_ context.Context, mobile, text string) error {
	log.Info().Str("mobile", mobile).Str("text", text).Msg("SMS (log sender)")
	return nil
}

// OTPService handles mobile-number verification for registration
type OTPService struct {
	redis   *redis.Client
	repo    Repository
	sms     SMSSender
	codeTTL time.Duration
}

// NewOTPService creates OTP service
func NewOTPService(redisClient *redis.Client, repo Repository, sms SMSSender, codeTTL time.Duration) *OTPService {
	return &OTPService{
		redis:   redisClient,
		repo:    repo,
		sms:     sms,
		codeTTL: codeTTL,
	}
}

// RequestCode generates a 6-digit code, stores it in Redis with a TTL
// and sends it to the subscriber's mobile.
func (s *OTPService) RequestCode(ctx context.Context, mobile string) error {
	if !validator.IsMobile(mobile) {
		return ErrInvalidMobile
	}

	code := generateNumericCode(otpCodeLength)

	key := keyPrefixOTP + mobile
	if err := s.redis.Set(ctx, key, code, s.codeTTL).Err(); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.sms.Send(ctx, mobile, "Your verification code: "+code); err != nil {
		return fmt.Errorf("failed to send verification code: %w", err)
	}

	return nil
}

// VerifyCode checks the code and registers (or re-verifies) the
// subscriber on success.
func (s *OTPService) VerifyCode(ctx context.Context, mobile, code string) (*Subscriber, error) {
	if !validator.IsMobile(mobile) {
		return nil, ErrInvalidMobile
	}

	key := keyPrefixOTP + mobile

	storedCode, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrInvalidCode // expired or never requested
	}
	if err != nil {
		return nil, err
	}

	if storedCode != code {
		return nil, ErrInvalidCode
	}

	// Delete code after successful verification
	s.redis.Del(ctx, key)

	return s.repo.UpsertVerified(ctx, mobile)
}

func generateNumericCode(length int) string {
	const digits = "0123456789"
	b := make([]byte, length)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = digits[int(b[i])%len(digits)]
	}
	return string(b)
}
