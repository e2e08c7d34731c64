package mypubsub

import "context"

//go:generate mockgen -source=pubsub_api.go -package mypubsub -destination pubsub_mock.go PubSub
type PubSub interface {
	Publish(c context.Context, topic string, data string) error
	CreateTopic(c context.Context, topic string) error
	Subscribe(c context.Context, topic string, urlToPostTo string) error
}

// Config selects and configures the pubsub implementation. An empty
// ProjectID selects the no-op fake.
type Config struct {
	ProjectID string
}

func New(c context.Context, cfg Config) (PubSub, func(), error) {
	if cfg.ProjectID != "" {
		return newGcloudPubSub(c, cfg)
	}

	return newFakePubSub(c)
}
