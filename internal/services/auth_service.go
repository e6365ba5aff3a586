package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/security"
)

var (
	ErrAuthEmailExists        = errors.New("auth email exists")
	ErrAuthInvalidLogin       = errors.New("auth invalid login")
	ErrAuthUserNotFound       = errors.New("auth user not found")
	ErrAuthDisplayNameTooLong = errors.New("auth display name too long")
	ErrAuthPasswordUnchanged  = errors.New("auth new password must differ")
)

const (
	maxDisplayNameRunes   = 64
	temporaryPasswordSize = 16
)

type AuthUserRepository interface {
	CountUsers() (int64, error)
	ExistsByNormalizedEmail(email string) (bool, error)
	FindByNormalizedEmail(email string) (models.User, error)
	FindByID(userID uint) (models.User, error)
	Create(user *models.User) error
	UpdatePassword(userID uint, passwordHash string, mustChangePassword bool) error
}

type AuthService struct {
	users     AuthUserRepository
	secretKey []byte
	tokenTTL  time.Duration
}

func NewAuthService(users AuthUserRepository, secretKey []byte, tokenTTL time.Duration) *AuthService {
	return &AuthService{users: users, secretKey: secretKey, tokenTTL: tokenTTL}
}

type RegistrationInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"-"`
}

func (service *AuthService) RequiresInitialSetup() (bool, error) {
	usersCount, err := service.users.CountUsers()
	if err != nil {
		return false, err
	}
	return usersCount == 0, nil
}

// Register creates an account. The first account becomes the owner, later ones are partners.
func (service *AuthService) Register(input RegistrationInput, now time.Time) (Session, error) {
	email, password, err := NormalizeCredentialsInput(input.Email, input.Password)
	if err != nil {
		return Session{}, err
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return Session{}, err
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if len([]rune(displayName)) > maxDisplayNameRunes {
		return Session{}, ErrAuthDisplayNameTooLong
	}

	exists, err := service.users.ExistsByNormalizedEmail(email)
	if err != nil {
		return Session{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return Session{}, ErrAuthEmailExists
	}

	firstUser, err := service.RequiresInitialSetup()
	if err != nil {
		return Session{}, fmt.Errorf("count users: %w", err)
	}
	role := models.RolePartner
	if firstUser {
		role = models.RoleOwner
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return Session{}, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		DisplayName:  displayName,
		CycleLength:  models.DefaultCycleLength,
		PeriodLength: models.DefaultPeriodLength,
		CreatedAt:    now,
	}
	if err := service.users.Create(&user); err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	return service.issue(user, now)
}

func (service *AuthService) Login(emailRaw string, passwordRaw string, now time.Time) (Session, error) {
	email, password, err := NormalizeCredentialsInput(emailRaw, passwordRaw)
	if err != nil {
		return Session{}, ErrAuthInvalidLogin
	}

	user, err := service.users.FindByNormalizedEmail(email)
	if err != nil {
		return Session{}, ErrAuthInvalidLogin
	}
	if err := security.CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrAuthInvalidLogin
	}
	return service.issue(user, now)
}

// Authenticate resolves a session token to its current user.
func (service *AuthService) Authenticate(rawToken string, now time.Time) (models.User, error) {
	claims, err := ParseSessionToken(service.secretKey, rawToken, now)
	if err != nil {
		return models.User{}, err
	}
	user, err := service.users.FindByID(claims.UserID)
	if err != nil {
		return models.User{}, ErrAuthUserNotFound
	}
	if !IsPasswordStateFingerprintMatch(claims.PasswordState, user.PasswordHash) {
		return models.User{}, ErrSessionTokenPasswordState
	}
	return user, nil
}

// ResetPassword replaces the password of email with a random temporary one the user must change.
func (service *AuthService) ResetPassword(emailRaw string) (string, error) {
	email := NormalizeAuthEmail(emailRaw)
	if email == "" {
		return "", ErrAuthCredentialsInvalid
	}
	user, err := service.users.FindByNormalizedEmail(email)
	if err != nil {
		return "", ErrAuthUserNotFound
	}

	password, err := security.TemporaryPassword(temporaryPasswordSize)
	if err != nil {
		return "", err
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return "", err
	}
	if err := service.users.UpdatePassword(user.ID, hash, true); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}
	return password, nil
}

// SetPassword replaces the password of email without the current one. Used by the
// local reset command, so the new password is final and no change is forced.
func (service *AuthService) SetPassword(emailRaw string, newPassword string) error {
	email := NormalizeAuthEmail(emailRaw)
	if email == "" {
		return ErrAuthCredentialsInvalid
	}
	newPassword = strings.TrimSpace(newPassword)
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	user, err := service.users.FindByNormalizedEmail(email)
	if err != nil {
		return ErrAuthUserNotFound
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := service.users.UpdatePassword(user.ID, hash, false); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// ChangePassword swaps the password after verifying the current one and returns a fresh session.
func (service *AuthService) ChangePassword(userID uint, currentPassword string, newPassword string, now time.Time) (Session, error) {
	currentPassword = strings.TrimSpace(currentPassword)
	newPassword = strings.TrimSpace(newPassword)
	if currentPassword == "" || newPassword == "" {
		return Session{}, ErrAuthCredentialsInvalid
	}

	user, err := service.users.FindByID(userID)
	if err != nil {
		return Session{}, ErrAuthUserNotFound
	}
	if err := security.CheckPassword(user.PasswordHash, currentPassword); err != nil {
		return Session{}, ErrAuthInvalidLogin
	}
	if currentPassword == newPassword {
		return Session{}, ErrAuthPasswordUnchanged
	}
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return Session{}, err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return Session{}, err
	}
	if err := service.users.UpdatePassword(user.ID, hash, false); err != nil {
		return Session{}, fmt.Errorf("update password: %w", err)
	}
	user.PasswordHash = hash
	user.MustChangePassword = false
	return service.issue(user, now)
}

func (service *AuthService) TokenTTL() time.Duration {
	if service.tokenTTL <= 0 {
		return defaultSessionTTL
	}
	return service.tokenTTL
}

func (service *AuthService) issue(user models.User, now time.Time) (Session, error) {
	token, claims, err := BuildSessionToken(service.secretKey, user.ID, user.Role, user.PasswordHash, service.TokenTTL(), now)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}
