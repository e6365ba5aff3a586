package services

import "time"

type SettingsUserRepository interface {
	SaveCycleSettings(userID uint, cycleLength int, periodLength int, periodStart time.Time, periodEnd *time.Time) error
	UpdateTelegramChatID(userID uint, chatID int64) error
}

type SettingsService struct {
	users SettingsUserRepository
}

func NewSettingsService(users SettingsUserRepository) *SettingsService {
	return &SettingsService{users: users}
}

func (service *SettingsService) SaveCycleSettings(userID uint, update CycleSettingsUpdate) error {
	return service.users.SaveCycleSettings(userID, update.CycleLength, update.PeriodLength, update.LastPeriodStart, update.LastPeriodEnd)
}

// UpdateTelegramChat links a chat for reminders. Zero unlinks.
func (service *SettingsService) UpdateTelegramChat(userID uint, chatID int64) error {
	return service.users.UpdateTelegramChatID(userID, chatID)
}
