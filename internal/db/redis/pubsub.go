package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vecmatch/internal/db"
)

// Publish sends a message to a channel.
func (s *Store) Publish(ctx context.Context, channel string, message []byte) error {
	cmd := s.b().Publish().Channel(channel).Message(rueidis.BinaryString(message)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPublish, Err: err}
	}
	return nil
}

// Subscribe blocks delivering messages from channels until ctx is cancelled.
// Cancellation is a clean exit and returns nil.
func (s *Store) Subscribe(ctx context.Context, channels []string, fn db.MessageHandler) error {
	cmd := s.b().Subscribe().Channel(channels...).Build()
	err := s.client.Receive(ctx, cmd, func(msg rueidis.PubSubMessage) {
		fn(msg.Channel, []byte(msg.Message))
	})
	if err != nil && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return &db.Error{Op: db.OpSubscribe, Err: err}
	}
	return nil
}
