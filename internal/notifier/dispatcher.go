// Package notifier publishes scheduling notifications to the email queue.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/maplewood-pta/carpool-manager/backend/internal/config"
	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
)

// Dispatcher implements scheduling.NotificationDispatcher on top of
// RabbitMQ, with Redis-backed deduplication for reminders so a member is
// nagged at most once per dedup window.
type Dispatcher struct {
	cfg         *config.Config
	mailChannel *amqp.Channel
	redisClient *redis.Client
}

func NewDispatcher(cfg *config.Config, mailCh *amqp.Channel, rdb *redis.Client) *Dispatcher {
	return &Dispatcher{
		cfg:         cfg,
		mailChannel: mailCh,
		redisClient: rdb,
	}
}

func (d *Dispatcher) publish(message domain.MailMessage) error {
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(d.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return d.mailChannel.PublishWithContext(
		ctx,
		"",
		"email_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// SendPreferenceReminder queues a reminder email for a member who has not
// submitted preferences for the week. A Redis SETNX key suppresses repeat
// reminders for the same member, group and week within the dedup TTL.
func (d *Dispatcher) SendPreferenceReminder(user *domain.User, group *domain.Group, weekStart time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(d.cfg.Redis.OperationExpiration)*time.Second)
	defer cancel()

	dedupKey := fmt.Sprintf("reminder_%d_%d_%s", user.ID, group.ID, weekStart.Format("2006-01-02"))
	ttl := time.Duration(d.cfg.Scheduling.ReminderDedupTTL) * time.Second

	stored, err := d.redisClient.SetNX(ctx, dedupKey, 1, ttl).Result()
	if err != nil {
		return err
	}
	if !stored {
		// already reminded within the window
		return nil
	}

	return d.publish(domain.MailMessage{
		Type: "preference_reminder",
		To:   user.Email,
		Data: domain.PreferenceReminderMailData{
			FullName:  user.FullName,
			GroupName: group.Name,
			WeekStart: weekStart.Format("2006-01-02"),
		},
	})
}

// SendSchedulePublished queues a publication notice for a schedule
// participant.
func (d *Dispatcher) SendSchedulePublished(user *domain.User, group *domain.Group, schedule *domain.WeeklySchedule) error {
	return d.publish(domain.MailMessage{
		Type: "schedule_published",
		To:   user.Email,
		Data: domain.SchedulePublishedMailData{
			FullName:      user.FullName,
			GroupName:     group.Name,
			WeekStart:     schedule.WeekStart.Format("2006-01-02"),
			FairnessScore: schedule.FairnessScore,
		},
	})
}
