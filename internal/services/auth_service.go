package services

import (
	"errors"
	"strings"

	"github.com/macrosnap/macrosnap/internal/models"
	"github.com/macrosnap/macrosnap/internal/security"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAccountExists      = errors.New("an account already exists on this device")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type AuthUserRepository interface {
	CountUsers() (int64, error)
	FindByNormalizedEmail(email string) (models.User, error)
	FindByID(userID uint) (models.User, error)
	Create(user *models.User) error
}

// AuthService manages the single owner account. The rest of the core only
// cares whether a signed-in user is present.
type AuthService struct {
	users AuthUserRepository
}

func NewAuthService(users AuthUserRepository) *AuthService {
	return &AuthService{users: users}
}

func (service *AuthService) SetupComplete() (bool, error) {
	count, err := service.users.CountUsers()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Register creates the owner account and returns the one-time recovery code.
// Only one account may exist per device.
func (service *AuthService) Register(email string, password string) (models.User, string, error) {
	complete, err := service.SetupComplete()
	if err != nil {
		return models.User{}, "", err
	}
	if complete {
		return models.User{}, "", ErrAccountExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, "", err
	}

	recoveryCode, err := security.NewRecoveryCode()
	if err != nil {
		return models.User{}, "", err
	}
	recoveryHash, err := bcrypt.GenerateFromPassword([]byte(recoveryCode), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, "", err
	}

	user := models.User{
		Email:            normalizeEmail(email),
		PasswordHash:     string(passwordHash),
		RecoveryCodeHash: string(recoveryHash),
	}
	if err := service.users.Create(&user); err != nil {
		return models.User{}, "", err
	}

	return user, recoveryCode, nil
}

func (service *AuthService) Login(email string, password string) (models.User, error) {
	user, err := service.users.FindByNormalizedEmail(normalizeEmail(email))
	if err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (service *AuthService) FindByID(userID uint) (models.User, error) {
	return service.users.FindByID(userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
