package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const dialTimeout = 3 * time.Second

// Publisher sends events to RabbitMQ from a background goroutine so a slow
// or absent broker never holds up a request. Publish only enqueues; Run
// drains the buffer. Events that do not fit in the buffer are dropped and
// logged.
type Publisher struct {
	url    string
	log    *zap.Logger
	events chan Event
}

// NewPublisher returns a Publisher for the broker at url buffering up to
// size events.
func NewPublisher(url string, size int, logger *zap.Logger) *Publisher {
	if size <= 0 {
		size = 256
	}
	return &Publisher{url: url, log: logger, events: make(chan Event, size)}
}

// Publish enqueues ev. It never blocks and never fails the caller's
// operation.
func (p *Publisher) Publish(_ context.Context, ev Event) error {
	select {
	case p.events <- ev:
	default:
		p.log.Warn("rabbitmq: publish buffer full, dropping event",
			zap.String("type", ev.Type), zap.String("id", ev.ID))
	}
	return nil
}

// Run sends queued events until ctx is cancelled. One connection is kept
// open and re-dialed after a failure.
func (p *Publisher) Run(ctx context.Context) {
	var (
		conn *amqp.Connection
		ch   *amqp.Channel
	)
	closeConn := func() {
		if ch != nil {
			_ = ch.Close()
			ch = nil
		}
		if conn != nil {
			_ = conn.Close()
			conn = nil
		}
	}
	defer closeConn()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			if conn == nil || conn.IsClosed() {
				closeConn()
				var err error
				conn, ch, err = p.open()
				if err != nil {
					p.log.Error("rabbitmq: connect failed, dropping event",
						zap.String("type", ev.Type), zap.String("id", ev.ID), zap.Error(err))
					continue
				}
			}
			if err := p.send(ctx, ch, ev); err != nil {
				p.log.Error("rabbitmq: publish failed",
					zap.String("type", ev.Type), zap.String("id", ev.ID), zap.Error(err))
				closeConn()
			}
		}
	}
}

func (p *Publisher) open() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	for _, name := range Types {
		// Durable so messages survive broker restarts.
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, nil, err
		}
	}
	return conn, ch, nil
}

func (p *Publisher) send(ctx context.Context, ch *amqp.Channel, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return ch.PublishWithContext(pctx,
		"",      // default exchange
		ev.Type, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ID,
			Type:         ev.Type,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
}
