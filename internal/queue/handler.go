package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// ProcessFunc runs one ingestion cycle for a request.
type ProcessFunc func(ctx context.Context, req LoadRequest) error

func decode(body []byte) (LoadRequest, error) {
	var req LoadRequest
	if len(body) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("decode load request: %w", err)
	}
	return req, nil
}

// HandleDelivery processes one message. Success acks it; any failure moves
// it to the dead-letter queue without retrying.
func HandleDelivery(ctx context.Context, dlq Publisher, msg amqp091.Delivery, process ProcessFunc) {
	startTime := time.Now()

	req, err := decode(msg.Body)
	if err == nil {
		err = process(ctx, req)
	}
	if err != nil {
		logger.Error("[Queue] Error processing message", "queue", LoadQueue, "err", err)
		deadLetter(ctx, dlq, msg, err)
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "err", err)
	}
	logger.Info("[Queue] Message processed successfully", "queue", LoadQueue, "duration", time.Since(startTime).Round(time.Millisecond))
}

func deadLetter(ctx context.Context, dlq Publisher, msg amqp091.Delivery, cause error) {
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-error"] = cause.Error()

	logger.Info("[Queue] Sending message to DLQ", "dlq", LoadQueueDLQ)
	if err := PublishFIFO(ctx, dlq, LoadQueueDLQ, msg.Body, headers); err != nil {
		logger.Error("[Queue] Failed to publish to DLQ", "dlq", LoadQueueDLQ, "err", err)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}

// Consume delivers load_queue messages one at a time until ctx is done. A
// closed delivery channel is reported as an error.
func Consume(ctx context.Context, ch *amqp091.Channel, process ProcessFunc) error {
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	msgs, err := ch.Consume(
		LoadQueue,
		LoadQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", LoadQueue, err)
	}

	logger.Info("[Queue] Listening for messages", "queue", LoadQueue)
	for {
		select {
		case <-ctx.Done():
			logger.Info("[Queue] Stopping consumer", "queue", LoadQueue)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("%s: delivery channel closed", LoadQueue)
			}
			logger.Info("[Queue] Received message", "queue", LoadQueue)
			HandleDelivery(ctx, ch, msg, process)
		}
	}
}
