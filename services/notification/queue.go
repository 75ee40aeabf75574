package notification

import (
	"context"
	"fmt"

	"tourbooking/models"
	"tourbooking/services/tasks"

	"github.com/hibiken/asynq"
)

// QueuePublisher enqueues notifications as asynq tasks for the worker.
type QueuePublisher struct {
	client *asynq.Client
}

func NewQueuePublisher(client *asynq.Client) *QueuePublisher {
	return &QueuePublisher{client: client}
}

func (p *QueuePublisher) Publish(ctx context.Context, n models.Notification) error {
	task, opts, err := tasks.NewNotificationTask(n)
	if err != nil {
		return err
	}
	if _, err := p.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", n.Kind, err)
	}
	return nil
}

// MailerPublisher delivers inline. Used when no Redis queue is configured.
type MailerPublisher struct {
	Mailer Mailer
}

func (p MailerPublisher) Publish(ctx context.Context, n models.Notification) error {
	return p.Mailer.Send(ctx, n)
}
