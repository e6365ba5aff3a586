package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/security"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type memoryAuthRepo struct {
	users  []models.User
	nextID uint
}

func (repo *memoryAuthRepo) CountUsers() (int64, error) {
	return int64(len(repo.users)), nil
}

func (repo *memoryAuthRepo) ExistsByNormalizedEmail(email string) (bool, error) {
	_, err := repo.FindByNormalizedEmail(email)
	return err == nil, nil
}

func (repo *memoryAuthRepo) FindByNormalizedEmail(email string) (models.User, error) {
	for _, user := range repo.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, errors.New("not found")
}

func (repo *memoryAuthRepo) FindByID(userID uint) (models.User, error) {
	for _, user := range repo.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return models.User{}, errors.New("not found")
}

func (repo *memoryAuthRepo) Create(user *models.User) error {
	repo.nextID++
	user.ID = repo.nextID
	repo.users = append(repo.users, *user)
	return nil
}

func (repo *memoryAuthRepo) UpdatePassword(userID uint, passwordHash string, mustChangePassword bool) error {
	for index := range repo.users {
		if repo.users[index].ID == userID {
			repo.users[index].PasswordHash = passwordHash
			repo.users[index].MustChangePassword = mustChangePassword
			return nil
		}
	}
	return errors.New("not found")
}

func TestRegisterAssignsOwnerThenPartner(t *testing.T) {
	t.Parallel()

	repo := &memoryAuthRepo{}
	service := NewAuthService(repo, testSecret, time.Hour)
	now := time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)

	first, err := service.Register(RegistrationInput{Email: " Owner@Example.com ", Password: "StrongPass1", DisplayName: "Ana"}, now)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, first.User.Role)
	assert.Equal(t, "owner@example.com", first.User.Email)
	assert.Equal(t, models.DefaultCycleLength, first.User.CycleLength)
	assert.True(t, first.ExpiresAt.Equal(now.Add(time.Hour)))
	assert.NotEqual(t, "StrongPass1", first.User.PasswordHash)

	second, err := service.Register(RegistrationInput{Email: "partner@example.com", Password: "StrongPass2"}, now)
	require.NoError(t, err)
	assert.Equal(t, models.RolePartner, second.User.Role)

	_, err = service.Register(RegistrationInput{Email: "OWNER@example.com", Password: "StrongPass3"}, now)
	assert.ErrorIs(t, err, ErrAuthEmailExists)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	service := NewAuthService(&memoryAuthRepo{}, testSecret, time.Hour)
	now := time.Now()

	_, err := service.Register(RegistrationInput{Email: "bad", Password: "StrongPass1"}, now)
	assert.ErrorIs(t, err, ErrAuthCredentialsInvalid)

	_, err = service.Register(RegistrationInput{Email: "user@example.com", Password: "weak"}, now)
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestLoginAndAuthenticate(t *testing.T) {
	t.Parallel()

	repo := &memoryAuthRepo{}
	service := NewAuthService(repo, testSecret, time.Hour)
	now := time.Now()

	_, err := service.Register(RegistrationInput{Email: "user@example.com", Password: "StrongPass1"}, now)
	require.NoError(t, err)

	_, err = service.Login("user@example.com", "WrongPass1", now)
	assert.ErrorIs(t, err, ErrAuthInvalidLogin)
	_, err = service.Login("missing@example.com", "StrongPass1", now)
	assert.ErrorIs(t, err, ErrAuthInvalidLogin)

	session, err := service.Login("USER@example.com", "StrongPass1", now)
	require.NoError(t, err)

	user, err := service.Authenticate(session.Token, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)

	_, err = service.Authenticate(session.Token, now.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrSessionTokenExpired)

	_, err = service.Authenticate("", now)
	assert.ErrorIs(t, err, ErrSessionTokenMissing)
}

func TestSessionTokensAreUniqueAndSigned(t *testing.T) {
	t.Parallel()

	now := time.Now()
	first, firstClaims, err := BuildSessionToken(testSecret, 3, models.RoleOwner, "hash", time.Hour, now)
	require.NoError(t, err)
	second, secondClaims, err := BuildSessionToken(testSecret, 3, models.RoleOwner, "hash", time.Hour, now)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)

	claims, err := ParseSessionToken(testSecret, first, now)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, models.RoleOwner, claims.Role)
	assert.True(t, IsPasswordStateFingerprintMatch(claims.PasswordState, "hash"))
	assert.False(t, IsPasswordStateFingerprintMatch(claims.PasswordState, "other"))

	_, err = ParseSessionToken([]byte("another-secret-another-secret-xx"), first, now)
	assert.ErrorIs(t, err, ErrSessionTokenInvalid)
}

func TestResetPasswordInvalidatesSessions(t *testing.T) {
	t.Parallel()

	repo := &memoryAuthRepo{}
	service := NewAuthService(repo, testSecret, time.Hour)
	now := time.Now()

	session, err := service.Register(RegistrationInput{Email: "user@example.com", Password: "StrongPass1"}, now)
	require.NoError(t, err)

	temporary, err := service.ResetPassword("user@example.com")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(temporary), 12)

	_, err = service.Authenticate(session.Token, now)
	assert.ErrorIs(t, err, ErrSessionTokenPasswordState)

	user, err := repo.FindByID(session.User.ID)
	require.NoError(t, err)
	assert.True(t, user.MustChangePassword)
	require.NoError(t, security.CheckPassword(user.PasswordHash, temporary))

	_, err = service.ResetPassword("missing@example.com")
	assert.ErrorIs(t, err, ErrAuthUserNotFound)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	repo := &memoryAuthRepo{}
	service := NewAuthService(repo, testSecret, time.Hour)
	now := time.Now()

	session, err := service.Register(RegistrationInput{Email: "user@example.com", Password: "StrongPass1"}, now)
	require.NoError(t, err)
	userID := session.User.ID

	_, err = service.ChangePassword(userID, "WrongPass1", "NewStrong2", now)
	assert.ErrorIs(t, err, ErrAuthInvalidLogin)
	_, err = service.ChangePassword(userID, "StrongPass1", "StrongPass1", now)
	assert.ErrorIs(t, err, ErrAuthPasswordUnchanged)
	_, err = service.ChangePassword(userID, "StrongPass1", "weakpass", now)
	assert.ErrorIs(t, err, ErrWeakPassword)

	fresh, err := service.ChangePassword(userID, "StrongPass1", "NewStrong2", now)
	require.NoError(t, err)

	_, err = service.Authenticate(session.Token, now)
	assert.ErrorIs(t, err, ErrSessionTokenPasswordState)
	_, err = service.Authenticate(fresh.Token, now)
	assert.NoError(t, err)
}

func TestSetPassword(t *testing.T) {
	t.Parallel()

	repo := &memoryAuthRepo{}
	service := NewAuthService(repo, testSecret, time.Hour)
	now := time.Now()

	session, err := service.Register(RegistrationInput{Email: "user@example.com", Password: "StrongPass1"}, now)
	require.NoError(t, err)
	_, err = service.ResetPassword("user@example.com")
	require.NoError(t, err)

	assert.ErrorIs(t, service.SetPassword("user@example.com", "weakpass"), ErrWeakPassword)
	assert.ErrorIs(t, service.SetPassword("missing@example.com", "FreshPass2"), ErrAuthUserNotFound)
	assert.ErrorIs(t, service.SetPassword("", "FreshPass2"), ErrAuthCredentialsInvalid)

	require.NoError(t, service.SetPassword(" USER@example.com ", "FreshPass2"))

	user, err := repo.FindByID(session.User.ID)
	require.NoError(t, err)
	assert.False(t, user.MustChangePassword)
	require.NoError(t, security.CheckPassword(user.PasswordHash, "FreshPass2"))
}
