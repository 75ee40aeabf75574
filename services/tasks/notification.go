package tasks

import (
	"encoding/json"
	"time"

	"tourbooking/models"

	"github.com/hibiken/asynq"
)

const TypeNotificationSend = "notification:send"

func NewNotificationTask(payload models.Notification) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeNotificationSend, b)
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
	}

	return task, opts, nil
}

func ParseNotificationTask(task *asynq.Task) (models.Notification, error) {
	var n models.Notification
	err := json.Unmarshal(task.Payload(), &n)
	return n, err
}
