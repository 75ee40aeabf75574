package tasks

import (
	"time"

	"github.com/hibiken/asynq"
)

const TypeExpirePending = "booking:expire_pending"

// NewExpirePendingTask is registered with the scheduler; runs never overlap.
func NewExpirePendingTask() (*asynq.Task, []asynq.Option) {
	task := asynq.NewTask(TypeExpirePending, nil)
	opts := []asynq.Option{
		asynq.MaxRetry(0),
		asynq.Unique(time.Minute),
		asynq.Timeout(2 * time.Minute),
	}
	return task, opts
}
