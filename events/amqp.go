package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const routingPrefix = "change."

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

var errFeedDown = errors.New("change feed is reconnecting")

// AMQPBus fans changes out through a RabbitMQ topic exchange so every
// instance sharing the database hears about every write. Local writes reach
// local subscribers directly; the exchange carries them to the other
// instances, and this instance skips its own messages on the way back.
type AMQPBus struct {
	url       string
	exchange  string
	queueName string
	instance  string
	local     *MemoryBus
	logger    *slog.Logger

	mu   sync.RWMutex
	conn *amqp.Connection
	ch   *amqp.Channel
	// queue is the broker-assigned name when queueName is empty.
	queue string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAMQPBus(url, exchange, queue string, logger *slog.Logger) (*AMQPBus, error) {
	b := newAMQPBus(exchange, logger)
	b.url = url
	b.queueName = queue
	if err := b.connect(); err != nil {
		return nil, err
	}
	return b, nil
}

func newAMQPBus(exchange string, logger *slog.Logger) *AMQPBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPBus{
		exchange: exchange,
		instance: uuid.NewString(),
		local:    NewMemoryBus(),
		logger:   logger,
	}
}

func (b *AMQPBus) connect() error {
	conn, err := amqp.Dial(b.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(b.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}
	// exclusive, auto-delete: each instance gets its own copy of the feed
	q, err := ch.QueueDeclare(b.queueName, false, true, true, false, nil)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, routingPrefix+"#", b.exchange, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("bind %s: %w", q.Name, err)
	}

	b.mu.Lock()
	b.conn, b.ch, b.queue = conn, ch, q.Name
	b.mu.Unlock()
	return nil
}

// Publish delivers to local subscribers first, then to the exchange. A
// broker failure is returned but local subscribers have already been told.
func (b *AMQPBus) Publish(ctx context.Context, changes ...Change) error {
	if err := b.local.Publish(ctx, changes...); err != nil {
		return err
	}

	b.mu.RLock()
	ch := b.ch
	b.mu.RUnlock()
	if ch == nil || ch.IsClosed() {
		return errFeedDown
	}
	for _, c := range changes {
		body, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if err := ch.PublishWithContext(ctx, b.exchange, routingPrefix+c.Table, false, false, amqp.Publishing{
			ContentType: "application/json",
			AppId:       b.instance,
			Body:        body,
		}); err != nil {
			return fmt.Errorf("publish %s change: %w", c.Table, err)
		}
	}
	return nil
}

func (b *AMQPBus) Subscribe(tables []string, fn Handler) func() {
	return b.local.Subscribe(tables, fn)
}

// Run consumes the instance queue until ctx ends or Close is called. A lost
// connection is logged, subscribers are told to resync, and the bus
// reconnects with backoff.
func (b *AMQPBus) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	deliveries, closed, err := b.consume(ctx)
	if err != nil {
		cancel()
		return err
	}
	b.cancel = cancel

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			b.dispatch(ctx, deliveries)
			if ctx.Err() != nil {
				return
			}
			select {
			case reason := <-closed:
				b.logger.Warn("change feed lost", "error", reason)
			default:
				b.logger.Warn("change feed lost")
			}
			b.resync(ctx)

			if deliveries, closed, err = b.reconnect(ctx); err != nil {
				return
			}
			b.logger.Info("change feed restored", "queue", b.queue)
			// anything published while we were away was missed
			b.resync(ctx)
		}
	}()
	return nil
}

func (b *AMQPBus) consume(ctx context.Context) (<-chan amqp.Delivery, <-chan *amqp.Error, error) {
	b.mu.RLock()
	conn, ch, queue := b.conn, b.ch, b.queue
	b.mu.RUnlock()

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	deliveries, err := ch.ConsumeWithContext(ctx, queue, "", true, true, false, false, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("consume %s: %w", queue, err)
	}
	return deliveries, closed, nil
}

// reconnect retries until it succeeds or ctx ends.
func (b *AMQPBus) reconnect(ctx context.Context) (<-chan amqp.Delivery, <-chan *amqp.Error, error) {
	b.mu.Lock()
	if b.conn != nil {
		_ = b.conn.Close()
	}
	b.conn, b.ch = nil, nil
	b.mu.Unlock()

	wait := minBackoff
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(wait):
		}
		err := b.connect()
		if err == nil {
			var (
				deliveries <-chan amqp.Delivery
				closed     <-chan *amqp.Error
			)
			deliveries, closed, err = b.consume(ctx)
			if err == nil {
				return deliveries, closed, nil
			}
		}
		b.logger.Warn("change feed reconnect failed", "attempt", attempt, "retry_in", wait, "error", err)
		wait = nextBackoff(wait)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// dispatch forwards deliveries from other instances to local subscribers
// until the channel closes or ctx ends.
func (b *AMQPBus) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			if d.AppId == b.instance {
				continue
			}
			var c Change
			if err := json.Unmarshal(d.Body, &c); err != nil {
				b.logger.Warn("dropping malformed change", "error", err)
				continue
			}
			if err := b.local.Publish(ctx, c); err != nil {
				return
			}
		}
	}
}

func (b *AMQPBus) resync(ctx context.Context) {
	changes := make([]Change, 0, len(Tables))
	for _, t := range Tables {
		changes = append(changes, NewChange(t, OpResync, ""))
	}
	_ = b.local.Publish(ctx, changes...)
}

func (b *AMQPBus) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	_ = b.local.Close()

	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	if b.conn != nil {
		err = b.conn.Close()
		b.conn, b.ch = nil, nil
	}
	return err
}
