package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/utils"
)

// EmailService queues outbound mail onto a Redis list; a separate mailer
// drains it. Queuing is best effort.
type EmailService interface {
	Queue(ctx context.Context, msg EmailMessage) EmailResult
	Close() error
}

type EmailMessage struct {
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

type EmailResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type emailService struct {
	log   *logger.Logger
	rdb   *goredis.Client
	queue string
}

func NewEmailService(log *logger.Logger) (EmailService, error) {
	serviceLog := log.With("service", "EmailService")
	addr := utils.GetEnv("REDIS_ADDR", "localhost:6379", log)
	queue := utils.GetEnv("EMAIL_QUEUE_KEY", "email:outbound", log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &emailService{log: serviceLog, rdb: rdb, queue: queue}, nil
}

func (es *emailService) Queue(ctx context.Context, msg EmailMessage) EmailResult {
	if msg.To == "" {
		return EmailResult{Success: false, Error: "missing recipient"}
	}
	if msg.QueuedAt.IsZero() {
		msg.QueuedAt = time.Now()
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return EmailResult{Success: false, Error: err.Error()}
	}
	if err := es.rdb.LPush(ctx, es.queue, raw).Err(); err != nil {
		es.log.Warn("Email queue push failed", "error", err, "to", msg.To)
		return EmailResult{Success: false, Error: err.Error()}
	}
	return EmailResult{Success: true}
}

func (es *emailService) Close() error {
	return es.rdb.Close()
}
