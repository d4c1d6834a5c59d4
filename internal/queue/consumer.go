package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer listens on every event queue and appends one line per event to
// <dir>/sessions.log.
type Consumer struct {
	url string
	dir string
	log *zap.Logger
}

// NewConsumer returns a Consumer writing under dir.
func NewConsumer(url, dir string, logger *zap.Logger) *Consumer {
	if dir == "" {
		dir = "logs"
	}
	return &Consumer{url: url, dir: dir, log: logger}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff whenever the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0 // retry forever

	for {
		conn, err := amqp.DialConfig(c.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
		if err == nil {
			b.Reset()
			err = c.consumeLoop(ctx, conn)
			_ = conn.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wait := b.NextBackOff()
		c.log.Warn("session-consumer: disconnected, retrying", zap.Duration("in", wait), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("session-consumer: set QoS failed", zap.Error(err))
	}

	merged := make(chan amqp.Delivery)
	done := make(chan struct{})
	defer close(done)
	for _, name := range Types {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		go forward(msgs, merged, done)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-closed:
			if err == nil {
				return errors.New("connection closed")
			}
			return err
		case d := <-merged:
			if err := c.handleMessage(d.Body); err != nil {
				c.log.Error("session-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// forward copies deliveries into merged until msgs closes or done is
// closed by the loop that reads merged.
func forward(msgs <-chan amqp.Delivery, merged chan<- amqp.Delivery, done <-chan struct{}) {
	for d := range msgs {
		select {
		case merged <- d:
		case <-done:
			return
		}
	}
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line, err := formatLine(ev)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, "sessions.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// formatLine renders one human-readable log line for ev.
func formatLine(ev Event) (string, error) {
	switch ev.Type {
	case TypeSessionStarted:
		var d SessionStarted
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return "", fmt.Errorf("decode %s: %w", ev.Type, err)
		}
		dur := "open"
		if d.DurationMinutes != nil {
			dur = fmt.Sprintf("%dm", *d.DurationMinutes)
		}
		return fmt.Sprintf("[%s] Session started | session_id=%d | member_id=%d | terminal_id=%d | duration=%s | cost=%s | happy_hour=%t | balance=%s\n",
			ev.OccurredAt, d.SessionID, d.MemberID, d.TerminalID, dur, d.TotalCost, d.IsHappyHour, d.Balance), nil
	case TypeSessionEnded:
		var d SessionEnded
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return "", fmt.Errorf("decode %s: %w", ev.Type, err)
		}
		return fmt.Sprintf("[%s] Session ended | session_id=%d | member_id=%d | terminal_id=%d | started=%s | ended=%s | cost=%s\n",
			ev.OccurredAt, d.SessionID, d.MemberID, d.TerminalID, d.StartedAt, d.EndedAt, d.TotalCost), nil
	case TypeMemberToppedUp:
		var d MemberToppedUp
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return "", fmt.Errorf("decode %s: %w", ev.Type, err)
		}
		return fmt.Sprintf("[%s] Balance topped up | member_id=%d | amount=%s | balance=%s\n",
			ev.OccurredAt, d.MemberID, d.Amount, d.Balance), nil
	}
	return "", fmt.Errorf("unknown event type %q", ev.Type)
}
