package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/internal/util"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	LoadQueue    = "load_queue"
	LoadQueueDLQ = LoadQueue + "_dlq"
)

// LoadRequest asks the worker for one ingestion cycle. An empty Path selects
// the worker's DATA_FILE.
type LoadRequest struct {
	Path string `json:"path"`
}

// Publisher is the part of *amqp091.Channel used to enqueue messages.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Configured reports whether RabbitMQ connection settings are present.
func Configured() bool {
	return util.GetEnv("RABBITMQ_HOST") != ""
}

func connURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		util.GetEnv("RABBITMQ_USER"),
		util.GetEnv("RABBITMQ_PASSWORD"),
		util.GetEnv("RABBITMQ_HOST"),
		util.GetEnvString("RABBITMQ_PORT", "5672"),
	)
}

func Init(ctx context.Context) *amqp091.Connection {
	conn, err := util.RetryWithContext(ctx, 10, 3*time.Second, func(context.Context) (*amqp091.Connection, error) {
		return amqp091.Dial(connURL())
	})
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

func SetupQueues(ch *amqp091.Channel) error {
	for _, name := range []string{LoadQueue, LoadQueueDLQ} {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("declare %s: %w", name, err)
		}
	}
	return nil
}

func PublishFIFO(ctx context.Context, p Publisher, queueName string, data []byte, headers amqp091.Table) error {
	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		Headers:      headers,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return p.PublishWithContext(ctx, "", queueName, false, false, publishing)
}

func PublishLoad(ctx context.Context, p Publisher, req LoadRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return PublishFIFO(ctx, p, LoadQueue, data, nil)
}
