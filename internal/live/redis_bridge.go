package live

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBridge propaga las notificaciones entre instancias vía pub/sub.
// Cada instancia publica el user id y reenvía lo recibido a su hub local,
// de modo que el fan-out funciona con varias réplicas detrás del balanceador.
type RedisBridge struct {
	logger  *zap.Logger
	client  *redis.Client
	hub     *Hub
	channel string

	cancel context.CancelFunc
	done   chan struct{}
}

func NewRedisBridge(logger *zap.Logger, client *redis.Client, hub *Hub) *RedisBridge {
	return &RedisBridge{
		logger:  logger,
		client:  client,
		hub:     hub,
		channel: "live:tasks_updated",
	}
}

// Start suscribe al canal y reenvía cada mensaje al hub local.
func (b *RedisBridge) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	b.done = make(chan struct{})

	pubsub := b.client.Subscribe(ctx, b.channel)
	go func() {
		defer close(b.done)
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				b.hub.NotifyUser(msg.Payload)
			}
		}
	}()
}

// NotifyUser publica la señal; si redis no está disponible degrada a
// entrega local para no perder a los clientes de esta instancia.
func (b *RedisBridge) NotifyUser(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := b.client.Publish(ctx, b.channel, userID).Err(); err != nil {
		if b.logger != nil {
			b.logger.Warn("publish live event failed", zap.Error(err))
		}
		b.hub.NotifyUser(userID)
	}
}

// Close detiene la suscripción y espera al goroutine de reenvío.
func (b *RedisBridge) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.done != nil {
		<-b.done
	}
}
