package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	return NewService("test-secret", "admin", hash, time.Hour)
}

func TestService_Login(t *testing.T) {
	type testCase struct {
		name     string
		username string
		password string
		wantErr  error
	}

	tests := []testCase{
		{name: "Success", username: "admin", password: "hunter2"},
		{name: "WrongPassword", username: "admin", password: "hunter3", wantErr: ErrInvalidCredentials},
		{name: "WrongUser", username: "root", password: "hunter2", wantErr: ErrInvalidCredentials},
	}

	svc := newTestService(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.Login(tt.username, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)

				return
			}

			require.NoError(t, err)

			subject, err := svc.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, "admin", subject)
		})
	}
}

func TestService_LoginComparesForUnknownUser(t *testing.T) {
	svc := newTestService(t)

	var compared int

	svc.compare = func(hash, password []byte) error {
		compared++
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	for _, username := range []string{"admin", "root", ""} {
		_, _ = svc.Login(username, "hunter2")
	}

	assert.Equal(t, 3, compared, "every attempt pays for a hash comparison")

	// the dummy password must not unlock an unknown account
	_, err := svc.Login("root", "backoffice")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_LoginWithoutHash(t *testing.T) {
	svc := NewService("test-secret", "admin", "", time.Hour)

	_, err := svc.Login("admin", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_VerifyRejects(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.Issue("admin")
	require.NoError(t, err)

	other := NewService("other-secret", "admin", "", time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	_, err = svc.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Enabled(t *testing.T) {
	assert.True(t, newTestService(t).Enabled())
	assert.False(t, NewService("", "admin", "", time.Hour).Enabled())
}
