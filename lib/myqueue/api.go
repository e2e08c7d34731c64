package myqueue

import (
	"context"
)

type Task struct {
	UID            string
	WebhookURLPath string
	Payload        []byte
}

// Config selects and configures the task-queue implementation. An empty
// ProjectID selects the no-op fake.
type Config struct {
	ProjectID  string
	LocationID string
	QueueName  string
}

//go:generate mockgen -source=api.go -package myqueue -destination queuer_mock.go TaskQueuer
type TaskQueuer interface {
	Enqueue(c context.Context, task Task) error
	IsLastAttempt(c context.Context, taskUID string) (int32, int32)
}

func New(c context.Context, cfg Config) (TaskQueuer, func(), error) {
	if cfg.ProjectID != "" {
		return newGcloudQueue(c, cfg)
	}

	return newFakeQueue(c)
}
