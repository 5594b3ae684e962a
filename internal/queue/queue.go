// Package queue wires report generation onto RabbitMQ. Generation requests
// are published by the API server and consumed by the worker; failed jobs
// bounce through a TTL retry queue and land in a dead-letter queue after
// too many attempts.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"forensia/internal/config"
	"forensia/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	ReportQueue = "report_queue"

	// retryTTL is how long a failed job waits before being redelivered.
	retryTTL = 10 * time.Second

	// MaxRetries before a job is parked in the dead-letter queue.
	MaxRetries = 10
)

// Queues the worker consumes. Setup declares each with its retry and
// dead-letter companions.
var Queues = []string{ReportQueue}

func Dial(cfg config.Queue) *amqp091.Connection {
	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// Setup declares every work queue along with <name>_retry (TTL, dead-letters
// back onto the work queue) and <name>_dlq. Declaration is idempotent, so
// both server and worker run it at startup.
func Setup(ch *amqp091.Channel) error {
	for _, name := range Queues {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", name, err)
		}

		dlqName := name + "_dlq"
		_, err = ch.QueueDeclare(
			dlqName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", dlqName, err)
		}

		retryName := name + "_retry"
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(retryTTL.Milliseconds()),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", retryName, err)
		}
	}

	return nil
}

// PublishJSON enqueues v as a persistent JSON message.
func PublishJSON(ch *amqp091.Channel, queueName string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message for %s: %w", queueName, err)
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	if err := ch.Publish("", queueName, false, false, publishing); err != nil {
		return fmt.Errorf("publish to %s: %w", queueName, err)
	}
	return nil
}

// HandleFailure routes a failed delivery to the retry queue, or to the DLQ
// once the retry budget is spent. The message is always acked or nacked.
func HandleFailure(ch *amqp091.Channel, msg amqp091.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	if retries >= MaxRetries {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp091.Publishing{
				ContentType: msg.ContentType,
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp091.Table{}
	}
	headers["x-retries"] = int32(retries + 1)

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp091.Publishing{
			ContentType: msg.ContentType,
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
