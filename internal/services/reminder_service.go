package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/terraincognita07/cyclecast/internal/cycle"
	"github.com/terraincognita07/cyclecast/internal/models"
)

const (
	ReminderKindPeriod    = "period"
	ReminderKindFertility = "fertility"

	maxRemembered = 500
)

type ReminderSender interface {
	Send(ctx context.Context, chatID int64, message string) error
}

type ReminderUserRepository interface {
	ListReminderTargets() ([]models.User, error)
}

type ReminderSettings struct {
	PeriodReminderDays int
	FertilityReminder  bool
	Location           *time.Location
}

type ReminderService struct {
	users    ReminderUserRepository
	cycles   *CycleService
	sender   ReminderSender
	logger   *zap.Logger
	settings ReminderSettings

	mu   sync.Mutex
	sent map[string]time.Time
}

func NewReminderService(users ReminderUserRepository, cycles *CycleService, sender ReminderSender, logger *zap.Logger, settings ReminderSettings) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &ReminderService{
		users:    users,
		cycles:   cycles,
		sender:   sender,
		logger:   logger.Named("reminders"),
		settings: settings,
		sent:     make(map[string]time.Time),
	}
}

type Reminder struct {
	UserID  uint
	ChatID  int64
	Kind    string
	Message string
}

// RunAt rolls every reminder target forward to its current cycle and sends the
// reminders due on the calendar day of now. It returns how many were delivered.
func (service *ReminderService) RunAt(ctx context.Context, now time.Time) (int, error) {
	targets, err := service.users.ListReminderTargets()
	if err != nil {
		return 0, fmt.Errorf("list reminder targets: %w", err)
	}

	today := CalendarToday(now, service.settings.Location)
	delivered := 0
	for _, target := range targets {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}

		reminders, err := service.remindersFor(target, today)
		if err != nil {
			service.logger.Warn("evaluate cycle failed", zap.Uint("user_id", target.ID), zap.Error(err))
			continue
		}
		for _, reminder := range reminders {
			if !service.shouldSend(reminder, today) {
				continue
			}
			if err := service.sender.Send(ctx, reminder.ChatID, reminder.Message); err != nil {
				service.forget(reminder, today)
				service.logger.Warn("send reminder failed",
					zap.Uint("user_id", reminder.UserID),
					zap.String("kind", reminder.Kind),
					zap.Error(err),
				)
				continue
			}
			delivered++
		}
	}

	service.logger.Info("reminder run finished", zap.Int("targets", len(targets)), zap.Int("delivered", delivered))
	return delivered, nil
}

func (service *ReminderService) remindersFor(target models.User, today time.Time) ([]Reminder, error) {
	user, _, err := service.cycles.RolloverUser(target.ID, today)
	if err != nil && !errors.Is(err, ErrRolloverConflict) {
		return nil, err
	}
	params, err := ParametersForUser(&user)
	if err != nil {
		return nil, err
	}
	return DueReminders(user, params, today, service.settings), nil
}

// DueReminders lists the reminders params call for on today.
func DueReminders(user models.User, params cycle.Parameters, today time.Time, settings ReminderSettings) []Reminder {
	today = cycle.DateOf(today)
	reminders := make([]Reminder, 0, 2)

	next := params.NextPeriodStart()
	if cycle.DaysBetween(today, next) == settings.PeriodReminderDays {
		reminders = append(reminders, Reminder{
			UserID: user.ID,
			ChatID: user.TelegramChatID,
			Kind:   ReminderKindPeriod,
			Message: fmt.Sprintf("Cyclecast reminder: your predicted period starts in %d day(s) on %s.",
				settings.PeriodReminderDays,
				next.Format("Jan 2"),
			),
		})
	}

	if settings.FertilityReminder {
		window, err := cycle.FertilityWindow(params)
		if err == nil && window.Start.Equal(today) {
			reminders = append(reminders, Reminder{
				UserID:  user.ID,
				ChatID:  user.TelegramChatID,
				Kind:    ReminderKindFertility,
				Message: fmt.Sprintf("Cyclecast reminder: your fertility window starts today (%s).", window.Start.Format("Jan 2")),
			})
		}
	}
	return reminders
}

func reminderKey(reminder Reminder, today time.Time) string {
	return fmt.Sprintf("%s:%d:%s", reminder.Kind, reminder.UserID, cycle.FormatDate(today))
}

func (service *ReminderService) shouldSend(reminder Reminder, today time.Time) bool {
	service.mu.Lock()
	defer service.mu.Unlock()

	key := reminderKey(reminder, today)
	if sentOn, ok := service.sent[key]; ok && sentOn.Equal(today) {
		return false
	}
	if len(service.sent) >= maxRemembered {
		for stale, sentOn := range service.sent {
			if sentOn.Before(today) {
				delete(service.sent, stale)
			}
		}
	}
	service.sent[key] = today
	return true
}

func (service *ReminderService) forget(reminder Reminder, today time.Time) {
	service.mu.Lock()
	defer service.mu.Unlock()
	delete(service.sent, reminderKey(reminder, today))
}
