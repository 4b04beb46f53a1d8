package core

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/novamind-ai/novamind-api/internal/apperr"
	"github.com/novamind-ai/novamind-api/internal/mail"
	"github.com/novamind-ai/novamind-api/internal/store"
)

// AccountStore is the persistence surface the credential service needs.
// *store.SQLiteStore satisfies it; tests substitute their own.
type AccountStore interface {
	GetAccountByEmail(email string) (*store.Account, error)
	GetAccountByID(id int64) (*store.Account, error)
	CreateAccount(email string) (*store.Account, error)
	SetPendingCode(email, code string, expiresAt time.Time) error
	ConsumePendingCode(email, code string, loginAt time.Time) (bool, error)
}

// OTPService owns the one-time code lifecycle: issuance, delivery, and
// single-use verification.
type OTPService struct {
	store      AccountStore
	mailer     mail.Mailer
	expiry     time.Duration
	logger     *zap.SugaredLogger
	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
}

func NewOTPService(accounts AccountStore, mailer mail.Mailer, expiry time.Duration, logger *zap.SugaredLogger) *OTPService {
	return &OTPService{
		store:    accounts,
		mailer:   mailer,
		expiry:   expiry,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

// NormalizeEmail is the canonical form used everywhere an email keys an
// account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateCode produces a fixed-length numeric code from crypto/rand.
func generateCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// limiterFor returns the per-email issuance limiter: one request every 30
// seconds with a small burst, so a client retrying delivery is not locked
// out but a code-request loop is.
func (s *OTPService) limiterFor(email string) *rate.Limiter {
	s.limitersMu.Lock()
	defer s.limitersMu.Unlock()

	lim, ok := s.limiters[email]
	if !ok {
		lim = rate.NewLimiter(rate.Every(30*time.Second), 3)
		s.limiters[email] = lim
	}
	return lim
}

// RequestCode issues a fresh code for the email, creating the account on
// first contact, and delivers it through the mail adapter. The returned
// bool reports whether the account is new so the caller can distinguish
// sign-up from sign-in copy. Delivery failure surfaces as an upstream
// error, distinct from a missing account.
func (s *OTPService) RequestCode(ctx context.Context, email string) (isNewUser bool, err error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return false, apperr.Validation("a valid email address is required")
	}

	if !s.limiterFor(email).Allow() {
		return false, apperr.Validation("too many code requests, please wait before retrying")
	}

	account, err := s.store.GetAccountByEmail(email)
	if err != nil {
		return false, err
	}
	if account == nil {
		isNewUser = true
		if account, err = s.store.CreateAccount(email); err != nil {
			return false, err
		}
	}

	code, err := generateCode()
	if err != nil {
		return isNewUser, err
	}

	expiresAt := time.Now().Add(s.expiry)
	if err := s.store.SetPendingCode(email, code, expiresAt); err != nil {
		return isNewUser, err
	}

	if err := s.mailer.SendLoginCode(email, code, isNewUser); err != nil {
		s.logger.Errorw("verification email delivery failed", "email", email, "error", err)
		return isNewUser, apperr.Upstream("failed to send verification email", err)
	}

	s.logger.Infow("verification code issued", "email", email, "new_user", isNewUser)
	return isNewUser, nil
}

// VerifyCode validates a submitted code exactly once. On success the stored
// code is cleared atomically (a concurrent duplicate submission loses the
// conditional update and fails), the account is marked verified, and the
// last-login timestamp is set.
func (s *OTPService) VerifyCode(ctx context.Context, email, submittedCode string) (*store.Account, error) {
	email = NormalizeEmail(email)
	submittedCode = strings.TrimSpace(submittedCode)
	if email == "" || submittedCode == "" {
		return nil, apperr.Validation("email and code are required")
	}

	account, err := s.store.GetAccountByEmail(email)
	if err != nil {
		return nil, err
	}
	if account == nil || account.OTPCode == "" {
		return nil, apperr.NotFound("no pending verification code for this email")
	}

	if account.OTPExpiresAt == nil || time.Now().After(*account.OTPExpiresAt) {
		return nil, apperr.Auth("verification code has expired")
	}

	if subtle.ConstantTimeCompare([]byte(account.OTPCode), []byte(submittedCode)) != 1 {
		return nil, apperr.Auth("invalid verification code")
	}

	consumed, err := s.store.ConsumePendingCode(email, submittedCode, time.Now())
	if err != nil {
		return nil, err
	}
	if !consumed {
		// Lost the race: another request cleared the code between our read
		// and the conditional update.
		return nil, apperr.NotFound("verification code already used")
	}

	s.logger.Infow("account verified", "email", email)
	return s.store.GetAccountByEmail(email)
}
