package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/novamind-ai/novamind-api/internal/apperr"
	"github.com/novamind-ai/novamind-api/internal/store"
)

type fakeMailer struct {
	lastEmail string
	lastCode  string
	lastIsNew bool
	sendErr   error
	sent      int
}

func (m *fakeMailer) SendLoginCode(toEmail, code string, isNewUser bool) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.lastEmail = toEmail
	m.lastCode = code
	m.lastIsNew = isNewUser
	m.sent++
	return nil
}

func newTestOTPService(t *testing.T) (*OTPService, *store.SQLiteStore, *fakeMailer) {
	t.Helper()
	dbStore, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { dbStore.Close() })

	mailer := &fakeMailer{}
	svc := NewOTPService(dbStore, mailer, 10*time.Minute, zap.NewNop().Sugar())
	return svc, dbStore, mailer
}

func TestRequestCodeCreatesAccountAndDelivers(t *testing.T) {
	svc, dbStore, mailer := newTestOTPService(t)

	isNew, err := svc.RequestCode(context.Background(), "  Alice@Example.COM ")
	require.NoError(t, err)
	assert.True(t, isNew)

	// Email is case-normalized before the account is keyed on it
	assert.Equal(t, "alice@example.com", mailer.lastEmail)
	assert.Len(t, mailer.lastCode, 6)
	assert.True(t, mailer.lastIsNew)

	acc, err := dbStore.GetAccountByEmail("alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, mailer.lastCode, acc.OTPCode)
	assert.False(t, acc.Verified)

	// Second request for the same email is a sign-in, not a sign-up
	isNew, err = svc.RequestCode(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.False(t, mailer.lastIsNew)
}

func TestRequestCodeRejectsInvalidEmail(t *testing.T) {
	svc, _, _ := newTestOTPService(t)

	_, err := svc.RequestCode(context.Background(), "not-an-email")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRequestCodeDeliveryFailureIsUpstream(t *testing.T) {
	svc, dbStore, mailer := newTestOTPService(t)
	mailer.sendErr = errors.New("smtp connection refused")

	_, err := svc.RequestCode(context.Background(), "bob@example.com")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))

	// The account still exists so a retry works
	acc, err := dbStore.GetAccountByEmail("bob@example.com")
	require.NoError(t, err)
	assert.NotNil(t, acc)
}

func TestRequestCodeRateLimited(t *testing.T) {
	svc, _, _ := newTestOTPService(t)

	for i := 0; i < 3; i++ {
		_, err := svc.RequestCode(context.Background(), "carol@example.com")
		require.NoError(t, err)
	}

	_, err := svc.RequestCode(context.Background(), "carol@example.com")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// Other emails have their own limiter
	_, err = svc.RequestCode(context.Background(), "dave@example.com")
	assert.NoError(t, err)
}

func TestVerifyCodeSucceedsExactlyOnce(t *testing.T) {
	svc, _, mailer := newTestOTPService(t)

	_, err := svc.RequestCode(context.Background(), "alice@example.com")
	require.NoError(t, err)

	acc, err := svc.VerifyCode(context.Background(), "alice@example.com", mailer.lastCode)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.True(t, acc.Verified)
	assert.Empty(t, acc.OTPCode)
	require.NotNil(t, acc.LastLoginAt)

	// The code was cleared on success: replaying it must fail
	_, err = svc.VerifyCode(context.Background(), "alice@example.com", mailer.lastCode)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestVerifyCodeMismatch(t *testing.T) {
	svc, _, mailer := newTestOTPService(t)

	_, err := svc.RequestCode(context.Background(), "alice@example.com")
	require.NoError(t, err)

	wrong := "000000"
	if mailer.lastCode == wrong {
		wrong = "000001"
	}
	_, err = svc.VerifyCode(context.Background(), "alice@example.com", wrong)
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

	// A mismatch does not consume the pending code
	_, err = svc.VerifyCode(context.Background(), "alice@example.com", mailer.lastCode)
	assert.NoError(t, err)
}

func TestVerifyCodeExpired(t *testing.T) {
	svc, dbStore, _ := newTestOTPService(t)

	_, err := dbStore.CreateAccount("old@example.com")
	require.NoError(t, err)
	require.NoError(t, dbStore.SetPendingCode("old@example.com", "123456", time.Now().Add(-time.Minute)))

	// Expiry wins even when the digits match
	_, err = svc.VerifyCode(context.Background(), "old@example.com", "123456")
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
}

func TestVerifyCodeUnknownEmail(t *testing.T) {
	svc, _, _ := newTestOTPService(t)

	_, err := svc.VerifyCode(context.Background(), "nobody@example.com", "123456")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
