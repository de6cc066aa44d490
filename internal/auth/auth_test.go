package auth_test

import (
	"context"
	"testing"
	"time"

	"civiceye/backend/internal/auth"
	"civiceye/backend/internal/models"
	"civiceye/backend/internal/storage"
	"civiceye/backend/internal/testutil"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestCan(t *testing.T) {
	assert.True(t, auth.Can(models.RoleCitizen, auth.PermTrackOwn))
	assert.False(t, auth.Can(models.RoleCitizen, auth.PermUpdateStatus))

	assert.True(t, auth.Can(models.RoleAuthority, auth.PermUpdateStatus))
	assert.True(t, auth.Can(models.RoleAuthority, auth.PermExport))
	assert.False(t, auth.Can(models.RoleAuthority, auth.PermDeleteComplaint))
	assert.False(t, auth.Can(models.RoleAuthority, auth.PermManageUsers))

	assert.True(t, auth.Can(models.RoleAdmin, auth.PermManageCategories))
	assert.False(t, auth.Can(models.Role("root"), auth.PermTrackOwn))

	assert.ErrorIs(t, auth.Require(models.RoleCitizen, auth.PermAssign), auth.ErrForbidden)
	assert.NoError(t, auth.Require(models.RoleAdmin, auth.PermAssign))
}

func TestToken_RoundTrip(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue(&models.Profile{ID: "user-1", Role: models.RoleAuthority})
	require.NoError(t, err)

	p, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, models.RoleAuthority, p.Role)
}

func TestToken_Rejected(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)

	other, err := auth.NewTokenIssuer("other", time.Hour).Issue(&models.Profile{ID: "u", Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = issuer.Parse(other)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	expired, err := auth.NewTokenIssuer("secret", -time.Minute).Issue(&models.Profile{ID: "u", Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = issuer.Parse(expired)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u", "role": "admin"})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = issuer.Parse("garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func newAccounts(store *testutil.MockStorage) *auth.Accounts {
	return auth.NewAccounts(store, auth.NewTokenIssuer("secret", time.Hour), "letmein", zap.NewNop())
}

func TestRegister_CreatesCitizen(t *testing.T) {
	store := new(testutil.MockStorage)
	store.On("CreateProfile", mock.Anything, mock.MatchedBy(func(p *models.Profile) bool {
		return p.Email == "jane@example.com" && p.Role == models.RoleCitizen &&
			bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte("hunter22")) == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Profile).ID = "new-id"
	}).Return(nil)

	s, err := newAccounts(store).Register(context.Background(), auth.Registration{
		Email: "  Jane@Example.com ", Password: "hunter22", FullName: "Jane",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, "new-id", s.Profile.ID)
	store.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := new(testutil.MockStorage)
	store.On("CreateProfile", mock.Anything, mock.Anything).Return(storage.ErrDuplicate)

	_, err := newAccounts(store).Register(context.Background(), auth.Registration{Email: "a@b.c", Password: "secret1"})

	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestRegisterAdmin_WrongKey(t *testing.T) {
	store := new(testutil.MockStorage)

	_, err := newAccounts(store).RegisterAdmin(context.Background(), auth.Registration{Email: "a@b.c", Password: "secret1"}, "nope")

	assert.ErrorIs(t, err, auth.ErrInvalidRegistrationKey)
	store.AssertNotCalled(t, "CreateProfile", mock.Anything, mock.Anything)
}

func TestRegisterAdmin_GrantsAdmin(t *testing.T) {
	store := new(testutil.MockStorage)
	store.On("CreateProfile", mock.Anything, mock.MatchedBy(func(p *models.Profile) bool {
		return p.Role == models.RoleAdmin
	})).Return(nil)

	s, err := newAccounts(store).RegisterAdmin(context.Background(), auth.Registration{Email: "a@b.c", Password: "secret1"}, "letmein")

	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, s.Profile.Role)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	store := new(testutil.MockStorage)
	store.On("GetProfileByEmail", mock.Anything, "jane@example.com").
		Return(&models.Profile{ID: "u1", Email: "jane@example.com", PasswordHash: string(hash), Role: models.RoleCitizen}, nil)
	store.On("GetProfileByEmail", mock.Anything, "ghost@example.com").Return(nil, storage.ErrNotFound)
	accounts := newAccounts(store)

	s, err := accounts.Login(context.Background(), "Jane@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.Profile.ID)

	_, err = accounts.Login(context.Background(), "jane@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = accounts.Login(context.Background(), "ghost@example.com", "hunter22")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestSetRole_RequiresAdmin(t *testing.T) {
	store := new(testutil.MockStorage)
	store.On("UpdateUserRole", mock.Anything, "u2", models.RoleAuthority).Return(nil)
	accounts := newAccounts(store)

	err := accounts.SetRole(context.Background(), auth.Principal{UserID: "x", Role: models.RoleAuthority}, "u2", models.RoleAuthority)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	err = accounts.SetRole(context.Background(), auth.Principal{UserID: "x", Role: models.RoleAdmin}, "u2", models.Role("boss"))
	assert.Error(t, err)

	err = accounts.SetRole(context.Background(), auth.Principal{UserID: "x", Role: models.RoleAdmin}, "u2", models.RoleAuthority)
	assert.NoError(t, err)
	store.AssertNumberOfCalls(t, "UpdateUserRole", 1)
}
