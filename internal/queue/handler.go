package queue

import (
	"errors"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// MaxRetries is how often a message is retried before it is dead lettered.
const MaxRetries = 10

const retriesHeader = "x-retries"

// Outcome tells what HandleProcessingError did with a failed delivery.
type Outcome int

const (
	OutcomeRetried Outcome = iota
	OutcomeDeadLettered
	OutcomeRequeued
)

func retriesOf(headers amqp091.Table) int {
	switch v := headers[retriesHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// HandleProcessingError routes a failed delivery. Malformed messages and
// messages that exhausted MaxRetries go to {queue}_dlq, everything else to
// {queue}_retry with an incremented retry counter. If publishing fails the
// delivery is nacked back onto its queue.
func HandleProcessingError(ch Publisher, msg amqp091.Delivery, queueName string, cause error) Outcome {
	retries := retriesOf(msg.Headers)

	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}

	target := queueName + "_retry"
	outcome := OutcomeRetried
	if retries >= MaxRetries || errors.Is(cause, ErrInvalidMessage) {
		target = queueName + "_dlq"
		outcome = OutcomeDeadLettered
		if cause != nil {
			headers["x-error"] = cause.Error()
		}
		logger.Warn("[Queue] Sending message to DLQ", "dlq", target, "retries", retries)
	} else {
		headers[retriesHeader] = int32(retries + 1)
	}

	err := ch.Publish("", target, false, false, amqp091.Publishing{
		ContentType:  msg.ContentType,
		Body:         msg.Body,
		Headers:      headers,
		DeliveryMode: amqp091.Persistent,
	})
	if err != nil {
		logger.Error("[Queue] Failed to route failed message", "target", target, "err", err)
		if nackErr := msg.Nack(false, true); nackErr != nil {
			logger.Error("[Queue] Failed to nack message", "err", nackErr)
		}
		return OutcomeRequeued
	}
	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "err", err)
	}
	return outcome
}
