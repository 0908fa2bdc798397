package driven

import "context"

type IDriverBroker interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, msg any) error
	IsAlive() bool
	Close() error
}
