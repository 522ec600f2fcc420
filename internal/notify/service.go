package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ecomove/internal/logger"
	"ecomove/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const QueueKey = "notifications"

type EventType string

const (
	WalletCredited    EventType = "wallet.credited"
	WalletDebited     EventType = "wallet.debited"
	EcoHabitValidated EventType = "ecohabit.validated"
	EcoHabitRejected  EventType = "ecohabit.rejected"
)

type Event struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Amount    int64     `json:"amount,omitempty"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher hands events to the delivery pipeline. Delivery itself happens
// in another process that drains the queue.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Service struct {
	redis *redis.Client
}

func New(redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
	}
}

func NewWithClient(client *redis.Client) *Service {
	return &Service{redis: client}
}

func (s *Service) Publish(ctx context.Context, ev Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := s.redis.LPush(ctx, QueueKey, data).Err(); err != nil {
		metrics.RecordNotification(string(ev.Type), "failed")
		return fmt.Errorf("queue notification for %s: %w", ev.UserID, err)
	}

	metrics.RecordNotification(string(ev.Type), "queued")
	logger.Debug("notification queued", "type", ev.Type, "user_id", ev.UserID)
	return nil
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, QueueKey).Result()
	return length
}

// ReportQueueLength refreshes the queue gauge until ctx is cancelled.
func (s *Service) ReportQueueLength(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.NotificationQueueLength.Set(float64(s.QueueLength(ctx)))
		}
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

func (s *Service) Close() error {
	return s.redis.Close()
}

// Nop drops every event. Used with the memory storage driver.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Dispatch publishes ev and only logs a failure. It runs after commit, so
// the ledger change stands either way.
func Dispatch(ctx context.Context, p Publisher, ev Event) {
	if p == nil {
		return
	}
	if err := p.Publish(context.WithoutCancel(ctx), ev); err != nil {
		logger.Warn("notification publish failed", "type", ev.Type, "user_id", ev.UserID, "error", err)
	}
}
