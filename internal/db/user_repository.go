package db

import (
	"time"

	"gorm.io/gorm"

	"github.com/terraincognita07/cyclecast/internal/models"
)

type UserRepository struct {
	database *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{database: database}
}

func (repo *UserRepository) CountUsers() (int64, error) {
	var count int64
	if err := repo.database.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (repo *UserRepository) Create(user *models.User) error {
	return repo.database.Create(user).Error
}

func (repo *UserRepository) FindByID(userID uint) (models.User, error) {
	var user models.User
	if err := repo.database.First(&user, userID).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// FindOwner returns the earliest owner account.
func (repo *UserRepository) FindOwner() (models.User, error) {
	var user models.User
	if err := repo.database.Where("role = ?", models.RoleOwner).Order("id ASC").First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (repo *UserRepository) FindByNormalizedEmail(email string) (models.User, error) {
	var user models.User
	if err := repo.database.Where("lower(trim(email)) = ?", email).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (repo *UserRepository) ExistsByNormalizedEmail(email string) (bool, error) {
	var matched int64
	if err := repo.database.Model(&models.User{}).
		Where("lower(trim(email)) = ?", email).
		Count(&matched).Error; err != nil {
		return false, err
	}
	return matched > 0, nil
}

func (repo *UserRepository) UpdatePassword(userID uint, passwordHash string, mustChangePassword bool) error {
	return repo.database.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"password_hash":        passwordHash,
		"must_change_password": mustChangePassword,
	}).Error
}

// SaveCycleSettings replaces the cycle record. A nil periodEnd clears the explicit end.
func (repo *UserRepository) SaveCycleSettings(userID uint, cycleLength int, periodLength int, periodStart time.Time, periodEnd *time.Time) error {
	return repo.database.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"cycle_length":      cycleLength,
		"period_length":     periodLength,
		"last_period_start": periodStart,
		"last_period_end":   periodEnd,
	}).Error
}

// RollOverPeriod moves the anchor to a new period start and drops the previous explicit end.
// The update only applies while the stored start still equals previousStart.
func (repo *UserRepository) RollOverPeriod(userID uint, previousStart time.Time, nextStart time.Time) (bool, error) {
	result := repo.database.Model(&models.User{}).
		Where("id = ? AND date(last_period_start) = ?", userID, previousStart.Format("2006-01-02")).
		Updates(map[string]any{
			"last_period_start": nextStart,
			"last_period_end":   nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (repo *UserRepository) UpdateTelegramChatID(userID uint, chatID int64) error {
	return repo.database.Model(&models.User{}).Where("id = ?", userID).Update("telegram_chat_id", chatID).Error
}

// ListReminderTargets returns owners with cycle data and a linked Telegram chat.
func (repo *UserRepository) ListReminderTargets() ([]models.User, error) {
	users := make([]models.User, 0)
	if err := repo.database.
		Where("role = ? AND telegram_chat_id <> 0 AND last_period_start IS NOT NULL", models.RoleOwner).
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
