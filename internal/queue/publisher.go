// Package queue hands receipts off to the background extraction pipeline over AMQP.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"
)

const (
	// RoutingKeyReceiptProcess routes receipt extraction requests.
	RoutingKeyReceiptProcess = "receipt.process"

	publishTimeout = 5 * time.Second
	dialAttempts   = 5
)

// ErrClosed is returned when publishing on a closed publisher.
var ErrClosed = errors.New("publisher closed")

// Config describes the broker topology.
type Config struct {
	URL      string
	Exchange string
	Queue    string
}

// Publisher publishes receipt jobs to a durable direct exchange.
type Publisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     Config
	logger  *slog.Logger
}

// Dial connects to the broker, retrying with exponential backoff, and
// declares the exchange and queue.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*Publisher, error) {
	backoff := retry.WithMaxRetries(dialAttempts, retry.WithCappedDuration(10*time.Second, retry.NewExponential(500*time.Millisecond)))

	var conn *amqp.Connection
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := amqp.Dial(cfg.URL)
		if err != nil {
			logger.Warn("amqp dial failed, retrying", "error", err)
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p := &Publisher{conn: conn, channel: channel, cfg: cfg, logger: logger}
	if err := p.setup(); err != nil {
		p.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	logger.Info("amqp publisher ready", "exchange", cfg.Exchange, "queue", cfg.Queue)
	return p, nil
}

func (p *Publisher) setup() error {
	if err := p.channel.ExchangeDeclare(p.cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := p.channel.QueueDeclare(p.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := p.channel.QueueBind(p.cfg.Queue, RoutingKeyReceiptProcess, p.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishReceipt queues a receipt for image extraction. A nil Publisher is a
// no-op so the API runs without a broker.
func (p *Publisher) PublishReceipt(ctx context.Context, receiptID string, imageURLs []string) error {
	if p == nil {
		return nil
	}
	body, err := NewReceiptProcessMessage(receiptID, imageURLs).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.cfg.Exchange, RoutingKeyReceiptProcess, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		MessageId:    receiptID,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish receipt %s: %w", receiptID, err)
	}

	p.logger.InfoContext(ctx, "published receipt for processing", "receipt_id", receiptID, "images", len(imageURLs))
	return nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
