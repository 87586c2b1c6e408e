package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codingswamp/codingswamp-backend/internal/platform/apierr"
	"github.com/codingswamp/codingswamp-backend/internal/platform/envutil"
	"github.com/codingswamp/codingswamp-backend/internal/platform/logger"
	"github.com/codingswamp/codingswamp-backend/internal/platform/sendgrid"
)

const verificationCodeLength = 8

const verificationCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// MailVerificationService owns the signup email-verification flow: generate
// an 8-character mixed alphanumeric code, park it in Redis with a TTL, mail
// it, and later check-and-consume it.
type MailVerificationService interface {
	SendCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) error
}

type mailVerificationService struct {
	log     *logger.Logger
	rdb     *redis.Client
	mail    sendgrid.Client
	codeTTL time.Duration
}

func NewMailVerificationService(log *logger.Logger, mail sendgrid.Client) MailVerificationService {
	rdb := redis.NewClient(&redis.Options{
		Addr:     envutil.String("REDIS_ADDR", "localhost:6379"),
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
	})
	return &mailVerificationService{
		log:     log.With("service", "MailVerificationService"),
		rdb:     rdb,
		mail:    mail,
		codeTTL: envutil.Seconds("MAIL_CODE_TTL", 600),
	}
}

func verificationKey(email string) string {
	return "mail_verification:" + email
}

func (ms *mailVerificationService) SendCode(ctx context.Context, email string) error {
	code, err := generateVerificationCode()
	if err != nil {
		return apierr.Internal(fmt.Errorf("generate verification code: %w", err))
	}
	if err := ms.rdb.Set(ctx, verificationKey(email), code, ms.codeTTL).Err(); err != nil {
		return apierr.Internal(fmt.Errorf("store verification code: %w", err))
	}
	_, err = ms.mail.Send(ctx, sendgrid.SendEmailRequest{
		To:      []sendgrid.EmailAddress{{Email: email}},
		Subject: "CodingSwamp email verification",
		HTML: fmt.Sprintf(
			"<h2>CodingSwamp</h2><p>Your verification code is</p><h1>%s</h1><p>It expires in %d minutes.</p>",
			code, int(ms.codeTTL.Minutes()),
		),
	})
	if err != nil {
		return apierr.Internal(fmt.Errorf("send verification mail: %w", err))
	}
	ms.log.Info("Verification mail sent", "email", email)
	return nil
}

// VerifyCode consumes the stored code on success; a second attempt with the
// same code fails.
func (ms *mailVerificationService) VerifyCode(ctx context.Context, email, code string) error {
	stored, err := ms.rdb.GetDel(ctx, verificationKey(email)).Result()
	if err == redis.Nil {
		return apierr.Unauthorized("no pending verification code").WithField("code", "expired or never requested")
	}
	if err != nil {
		return apierr.Internal(fmt.Errorf("load verification code: %w", err))
	}
	if stored != code {
		return apierr.Unauthorized("verification code mismatch").WithField("code", "does not match")
	}
	return nil
}

func generateVerificationCode() (string, error) {
	out := make([]byte, verificationCodeLength)
	max := big.NewInt(int64(len(verificationCodeAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = verificationCodeAlphabet[n.Int64()]
	}
	return string(out), nil
}
