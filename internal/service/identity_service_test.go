package service

import (
	"context"
	"testing"
	"time"

	"github.com/fedsearch/identity-gateway/internal/domain"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo mimics the postgres repository including its unique-index
// behavior on email.
type fakeUserRepo struct {
	seq   int64
	users map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, email, name, passwordHash string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return nil, domain.ErrAlreadyExists
		}
	}
	f.seq++
	now := time.Now()
	u := &domain.User{
		ID:           f.seq,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		IsActive:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := f.FindByEmail(ctx, email)
	return u != nil, err
}

func (f *fakeUserRepo) MarkActive(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	u.IsActive = true
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

type identityFixture struct {
	users       *fakeUserRepo
	activations *fakeActivationRepo
	activation  *activationService
	identity    IdentityService
	tokens      TokenService
}

func newIdentityFixture(t *testing.T) *identityFixture {
	t.Helper()
	users := newFakeUserRepo()
	activations := newFakeActivationRepo()
	activation := newTestActivationService(t, activations)
	tokens := NewTokenService(testSecret, 15*time.Minute)
	identity := NewIdentityService(users, activation, tokens, nil, 24*time.Hour)
	return &identityFixture{
		users:       users,
		activations: activations,
		activation:  activation,
		identity:    identity,
		tokens:      tokens,
	}
}

func signupReq(email string) *domain.SignupRequest {
	return &domain.SignupRequest{
		Email:           email,
		Name:            "Ann",
		Password:        "longpass1",
		ConfirmPassword: "longpass1",
	}
}

func TestCreateUserNormalizesEmail(t *testing.T) {
	fx := newIdentityFixture(t)

	result, err := fx.identity.CreateUser(context.Background(), signupReq("A@X.com"))
	require.NoError(t, err)
	require.Equal(t, "a@x.com", result.Email)
	require.False(t, result.IsActive)
	require.Regexp(t, sixDigits, result.ActivationCode)
	require.WithinDuration(t, time.Now().Add(24*time.Hour), result.ActivationExpiry, 5*time.Second)

	stored, err := fx.users.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "a@x.com", stored.Email)
	require.NotEqual(t, "longpass1", stored.PasswordHash)
}

func TestCreateUserDuplicateEmailCaseInsensitive(t *testing.T) {
	fx := newIdentityFixture(t)

	_, err := fx.identity.CreateUser(context.Background(), signupReq("ann@example.com"))
	require.NoError(t, err)

	_, err = fx.identity.CreateUser(context.Background(), signupReq("ANN@Example.COM"))
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCreateUserValidation(t *testing.T) {
	fx := newIdentityFixture(t)

	tests := []struct {
		name string
		req  *domain.SignupRequest
	}{
		{"bad email", &domain.SignupRequest{Email: "not-an-email", Name: "A", Password: "longpass1", ConfirmPassword: "longpass1"}},
		{"short password", &domain.SignupRequest{Email: "a@x.com", Name: "A", Password: "short", ConfirmPassword: "short"}},
		{"password mismatch", &domain.SignupRequest{Email: "a@x.com", Name: "A", Password: "longpass1", ConfirmPassword: "longpass2"}},
		{"missing name", &domain.SignupRequest{Email: "a@x.com", Password: "longpass1", ConfirmPassword: "longpass1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.identity.CreateUser(context.Background(), tt.req)
			require.Error(t, err)
			require.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestSigninBeforeActivation(t *testing.T) {
	fx := newIdentityFixture(t)

	_, err := fx.identity.CreateUser(context.Background(), signupReq("ann@example.com"))
	require.NoError(t, err)

	_, err = fx.identity.SigninUser(context.Background(), "ann@example.com", "longpass1")
	require.ErrorIs(t, err, domain.ErrAccountNotActive)
}

func TestSigninInvalidCredentials(t *testing.T) {
	fx := newIdentityFixture(t)

	_, err := fx.identity.CreateUser(context.Background(), signupReq("ann@example.com"))
	require.NoError(t, err)

	// Unknown email and wrong password are indistinguishable.
	_, err = fx.identity.SigninUser(context.Background(), "nobody@example.com", "longpass1")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = fx.identity.SigninUser(context.Background(), "ann@example.com", "wrongpass1")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestActivateUnknownUser(t *testing.T) {
	fx := newIdentityFixture(t)

	_, err := fx.identity.ActivateUser(context.Background(), 999, "123456")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestActivateWrongCode(t *testing.T) {
	fx := newIdentityFixture(t)

	result, err := fx.identity.CreateUser(context.Background(), signupReq("ann@example.com"))
	require.NoError(t, err)

	wrong := "000000"
	if result.ActivationCode == wrong {
		wrong = "000001"
	}

	_, err = fx.identity.ActivateUser(context.Background(), result.UserID, wrong)
	require.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestActivateExpiredCode(t *testing.T) {
	fx := newIdentityFixture(t)

	base := time.Now()
	fx.activation.now = func() time.Time { return base }

	result, err := fx.identity.CreateUser(context.Background(), signupReq("ann@example.com"))
	require.NoError(t, err)

	fx.activation.now = func() time.Time { return base.Add(25 * time.Hour) }
	_, err = fx.identity.ActivateUser(context.Background(), result.UserID, result.ActivationCode)
	require.ErrorIs(t, err, domain.ErrCodeExpired)
}

func TestSignupActivateSigninFlow(t *testing.T) {
	fx := newIdentityFixture(t)

	result, err := fx.identity.CreateUser(context.Background(), &domain.SignupRequest{
		Email:           "A@x.com",
		Name:            "Ann",
		Password:        "longpass1",
		ConfirmPassword: "longpass1",
	})
	require.NoError(t, err)
	require.False(t, result.IsActive)

	user, err := fx.identity.ActivateUser(context.Background(), result.UserID, result.ActivationCode)
	require.NoError(t, err)
	require.True(t, user.IsActive)

	// The code is spent: a second activation attempt fails.
	_, err = fx.identity.ActivateUser(context.Background(), result.UserID, result.ActivationCode)
	require.ErrorIs(t, err, domain.ErrInvalidCode)

	// Signin works with any casing of the registered email.
	signin, err := fx.identity.SigninUser(context.Background(), "a@x.com", "longpass1")
	require.NoError(t, err)
	require.NotEmpty(t, signin.AccessToken)

	payload, err := fx.tokens.VerifyToken(signin.AccessToken)
	require.NoError(t, err)
	require.Equal(t, result.UserID, payload.UserID)
	require.Equal(t, "a@x.com", payload.Email)
	require.Equal(t, TokenTypeAccess, payload.Type)
}

func TestGetUserLookups(t *testing.T) {
	fx := newIdentityFixture(t)

	result, err := fx.identity.CreateUser(context.Background(), signupReq("ann@example.com"))
	require.NoError(t, err)

	byID, err := fx.identity.GetUserByID(context.Background(), result.UserID)
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", byID.Email)

	byEmail, err := fx.identity.GetUserByEmail(context.Background(), "ANN@EXAMPLE.COM")
	require.NoError(t, err)
	require.Equal(t, result.UserID, byEmail.ID)

	_, err = fx.identity.GetUserByID(context.Background(), 999)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = fx.identity.GetUserByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
