package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/torbook/torbook/internal/email"
	"github.com/torbook/torbook/internal/store"
)

const (
	reminderJobName    = "appointment_reminders"
	reminderJobWindow  = 15 * time.Minute
	reminderJobTimeout = 2 * time.Minute
	startsAtLayout     = "2006-01-02 15:04"
)

// RegisterReminderJob schedules the appointment-reminder task: every
// cron tick it finds confirmed appointments starting hoursBefore from
// now (within one tick's window) and emails their customers.
func RegisterReminderJob(sched *Service, repo *store.Store, sender email.EmailSender, cronExpr string, hoursBefore int) error {
	if sched == nil || repo == nil {
		return fmt.Errorf("reminder job requires scheduler and store")
	}
	if hoursBefore <= 0 {
		hoursBefore = 24
	}

	jobLogger := log.With().
		Str("component", reminderJobName).
		Int("hours_before", hoursBefore).
		Logger()

	_, err := sched.AddJob(reminderJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reminderJobTimeout)
		defer cancel()

		if sender == nil {
			jobLogger.Debug().Msg("Reminder job skipped: email sender not configured")
			return
		}

		windowStart := time.Now().Add(time.Duration(hoursBefore) * time.Hour)
		windowEnd := windowStart.Add(reminderJobWindow)

		reminders, err := repo.ListUpcomingForReminder(ctx,
			windowStart.Format(startsAtLayout),
			windowEnd.Format(startsAtLayout))
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to load appointments for reminder job")
			return
		}

		sent := 0
		for _, reminder := range reminders {
			if !reminder.CustomerEmail.Valid || strings.TrimSpace(reminder.CustomerEmail.String) == "" {
				continue
			}

			date, timeOfDay := splitStartsAt(reminder.StartsAt)
			msg := email.BuildAppointmentReminder(email.AppointmentDetails{
				BusinessName: reminder.BusinessName,
				ServiceName:  reminder.ServiceName,
				Date:         date,
				Time:         timeOfDay,
			})
			if err := sender.Send(ctx, reminder.CustomerEmail.String, msg.Subject, msg.Body); err != nil {
				jobLogger.Error().Err(err).
					Int64("appointment_id", reminder.AppointmentID).
					Msg("Failed to send appointment reminder")
				continue
			}
			sent++
		}
		if sent > 0 {
			jobLogger.Info().Int("sent", sent).Msg("Appointment reminders sent")
		}
	})
	return err
}

func splitStartsAt(startsAt string) (string, string) {
	parts := strings.SplitN(startsAt, " ", 2)
	if len(parts) != 2 {
		return startsAt, ""
	}
	return parts[0], parts[1]
}
