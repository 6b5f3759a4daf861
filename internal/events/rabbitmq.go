package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// ChannelPool shares one AMQP connection across a fixed number of channels,
// each with the target queue declared.
type ChannelPool struct {
	conn      *amqp.Connection
	channels  chan *amqp.Channel
	queueName string
	log       *slog.Logger

	mu     sync.Mutex
	closed bool
}

func NewChannelPool(url, queueName string, size int, log *slog.Logger) (*ChannelPool, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	pool := &ChannelPool{
		conn:      conn,
		channels:  make(chan *amqp.Channel, size),
		queueName: queueName,
		log:       log,
	}

	for i := 0; i < size; i++ {
		ch, err := pool.createChannel()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("create channel %d: %w", i, err)
		}
		pool.channels <- ch
	}

	log.Info("rabbitmq channel pool ready", "size", size, "queue", queueName)
	return pool, nil
}

func (p *ChannelPool) createChannel() (*amqp.Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		p.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return ch, nil
}

// Get waits for a free channel, replacing it if the broker closed it.
func (p *ChannelPool) Get(ctx context.Context) (*amqp.Channel, error) {
	select {
	case ch, ok := <-p.channels:
		if !ok {
			return nil, errors.New("channel pool closed")
		}
		if ch.IsClosed() {
			newCh, err := p.createChannel()
			if err != nil {
				// Keep the slot so the pool does not shrink.
				p.Put(ch)
				return nil, fmt.Errorf("reopen channel: %w", err)
			}
			return newCh, nil
		}
		return ch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *ChannelPool) Put(ch *amqp.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		ch.Close()
		return
	}
	select {
	case p.channels <- ch:
	default:
		ch.Close()
	}
}

func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	close(p.channels)
	for ch := range p.channels {
		ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.log.Info("rabbitmq channel pool closed")
}

// RabbitPublisher sends persistent JSON messages to the pool's queue on the
// default exchange.
type RabbitPublisher struct {
	pool *ChannelPool
	log  *slog.Logger
}

func NewRabbitPublisher(pool *ChannelPool, log *slog.Logger) *RabbitPublisher {
	return &RabbitPublisher{pool: pool, log: log}
}

func (p *RabbitPublisher) PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ch, err := p.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("get channel: %w", err)
	}
	defer p.pool.Put(ch)

	err = ch.PublishWithContext(ctx,
		"",
		p.pool.queueName,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         ev.Type,
			MessageId:    ev.OrderID,
			Timestamp:    ev.PlacedAt,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}

	p.log.Debug("published event", "type", ev.Type, "order_id", ev.OrderID)
	return nil
}
