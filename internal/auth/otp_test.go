package auth

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anoixa/photo-album/internal/mail"
)

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// requestCode asks for a code and returns what was mailed.
func requestCode(t *testing.T, f *fixture, email string) string {
	t.Helper()

	var sent mail.Message
	f.mailer.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(mail.Message) }).
		Return(nil).Once()

	require.NoError(t, f.svc.SendResetOTP(context.Background(), email))
	code := codePattern.FindString(sent.Text)
	require.NotEmpty(t, code)
	return code
}

func TestResetOTP_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "ann", "ann@example.com")

	code := requestCode(t, f, "ann@example.com")

	require.NoError(t, f.svc.ResetPasswordWithOTP(ctx, "Ann@Example.com", code, "newsecret"))
	_, err := f.svc.Authenticate(ctx, "ann", "newsecret")
	assert.NoError(t, err)

	// single use
	err = f.svc.ResetPasswordWithOTP(ctx, "ann@example.com", code, "another1")
	assert.True(t, errors.Is(err, ErrInvalidOTP))
}

func TestResetOTP_ScopedToUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "ann", "ann@example.com")
	f.register(t, "bob", "bob@example.com")

	annCode := requestCode(t, f, "ann@example.com")

	err := f.svc.ResetPasswordWithOTP(ctx, "bob@example.com", annCode, "hijacked1")
	assert.True(t, errors.Is(err, ErrInvalidOTP))

	_, err = f.svc.Authenticate(ctx, "bob", "secret123")
	assert.NoError(t, err)
}

func TestResetOTP_LocksAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "ann", "ann@example.com")

	code := requestCode(t, f, "ann@example.com")
	wrong := "000000"

	for i := 0; i < DefaultOTPMaxAttempts; i++ {
		err := f.svc.ResetPasswordWithOTP(ctx, "ann@example.com", wrong, "newsecret")
		require.True(t, errors.Is(err, ErrInvalidOTP), "attempt %d", i+1)
	}

	err := f.svc.ResetPasswordWithOTP(ctx, "ann@example.com", code, "newsecret")
	assert.True(t, errors.Is(err, ErrOTPLocked))

	// a fresh code resets the counter
	code = requestCode(t, f, "ann@example.com")
	assert.NoError(t, f.svc.ResetPasswordWithOTP(ctx, "ann@example.com", code, "newsecret"))
}

func TestResetOTP_NewCodeReplacesOld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "ann", "ann@example.com")

	first := requestCode(t, f, "ann@example.com")
	second := requestCode(t, f, "ann@example.com")
	if first == second {
		t.Skip("codes collided")
	}

	err := f.svc.ResetPasswordWithOTP(ctx, "ann@example.com", first, "newsecret")
	assert.True(t, errors.Is(err, ErrInvalidOTP))
	assert.NoError(t, f.svc.ResetPasswordWithOTP(ctx, "ann@example.com", second, "newsecret"))
}

func TestResetOTP_UnknownEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendResetOTP(ctx, "ghost@example.com"))
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)

	err := f.svc.ResetPasswordWithOTP(ctx, "ghost@example.com", "123456", "newsecret")
	assert.True(t, errors.Is(err, ErrInvalidOTP))
}

func TestResetOTP_ShortPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ann", "ann@example.com")
	code := requestCode(t, f, "ann@example.com")

	err := f.svc.ResetPasswordWithOTP(context.Background(), "ann@example.com", code, "123")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	// the code was not spent on invalid input
	assert.NoError(t, f.svc.ResetPasswordWithOTP(context.Background(), "ann@example.com", code, "longenough"))
}

func TestRevokeResetOTP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "ann", "ann@example.com")

	code := requestCode(t, f, "ann@example.com")
	require.NoError(t, f.svc.RevokeResetOTP(ctx, "ANN@example.com"))

	err := f.svc.ResetPasswordWithOTP(ctx, "ann@example.com", code, "newsecret")
	assert.True(t, errors.Is(err, ErrInvalidOTP))

	// nothing pending is fine
	assert.NoError(t, f.svc.RevokeResetOTP(ctx, "nobody@example.com"))
}
