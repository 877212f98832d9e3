package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/vfg2006/sales-performance-api/internal/config"
	"github.com/vfg2006/sales-performance-api/internal/domain"
	"github.com/vfg2006/sales-performance-api/pkg/log"
)

const (
	defaultPrefetch = 10
	maxBackoff      = 30 * time.Second
)

// acknowledger é o subconjunto de amqp.Delivery usado para confirmar mensagens
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Consumer lê eventos de negócio de uma fila durável do RabbitMQ.
// A mensagem só é confirmada depois que o incremento foi gravado.
type Consumer struct {
	url      string
	queue    string
	prefetch int
	handler  *Handler
}

func NewConsumer(cfg config.RabbitMQ, handler *Handler) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	return &Consumer{
		url:      cfg.URL,
		queue:    cfg.Queue,
		prefetch: prefetch,
		handler:  handler,
	}
}

// Start conecta ao broker em segundo plano e reconecta com backoff até o contexto ser cancelado
func (c *Consumer) Start(ctx context.Context) {
	log.L.WithField("queue", c.queue).Info("Iniciando consumidor de eventos de negócio")
	go c.run(ctx)
}

func (c *Consumer) run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.L.WithError(err).Warnf("Falha ao conectar no RabbitMQ, nova tentativa em %s", backoff)
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			log.L.Info("Consumidor de eventos de negócio encerrado")
			return
		}

		log.L.WithError(err).Warn("Consumo de eventos interrompido, reconectando")
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handleDelivery(ctx, d.CorrelationId, d.Body, d)
		}
	}
}

// handleDelivery aplica o evento e decide entre ack, descarte ou reenfileiramento
func (c *Consumer) handleDelivery(ctx context.Context, correlationID string, body []byte, ack acknowledger) {
	ctx, _ = log.WithCorrelationID(ctx, correlationID)
	logger := log.ForContext(ctx).WithField("queue", c.queue)

	event, err := Decode(body)
	if err == nil {
		_, err = c.handler.Handle(ctx, SourceAMQP, event)
	}

	switch {
	case err == nil:
		if ackErr := ack.Ack(false); ackErr != nil {
			logger.WithError(ackErr).Error("Falha ao confirmar mensagem")
		}
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNotFound):
		// mensagem nunca será aplicável, descarta sem reenfileirar
		logger.WithError(err).Error("Evento rejeitado")
		_ = ack.Nack(false, false)
	default:
		logger.WithError(err).Warn("Falha transitória ao aplicar evento, reenfileirando")
		_ = ack.Nack(false, true)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
