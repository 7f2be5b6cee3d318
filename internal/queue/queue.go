package queue

import (
	"fmt"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	AlbumQueue  = "album_queue"
	DeleteQueue = "album_delete_queue"

	// TopicExchange carries album lifecycle events to any subscriber.
	TopicExchange = "pubsub_exchange"

	TopicAlbumReady   = "album.ready"
	TopicAlbumFailed  = "album.failed"
	TopicAlbumDeleted = "album.deleted"

	retryDelayMs = 10000
)

// Queues lists every work queue a worker consumes.
var Queues = []string{AlbumQueue, DeleteQueue}

// Publisher is the subset of *amqp091.Channel used to send messages.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

func Init() *amqp091.Connection {
	connURL := util.GetEnvString("RABBITMQ_URL", "")
	if connURL == "" {
		connURL = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/",
			util.GetEnvString("RABBITMQ_USER", "guest"),
			util.GetEnvString("RABBITMQ_PASSWORD", "guest"),
			util.GetEnvString("RABBITMQ_HOST", "localhost"),
			util.GetEnvString("RABBITMQ_PORT", "5672"),
		)
	}

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares the topic exchange and, per work queue, the queue
// itself, a dead letter queue and a retry queue that dead letters back into
// the work queue after retryDelayMs.
func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	err := ch.ExchangeDeclare(
		TopicExchange,
		"topic",
		false,
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", TopicExchange, err)
	}

	for _, name := range queueNames {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", name, err)
		}

		dlqName := name + "_dlq"
		if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
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
				"x-message-ttl":             int32(retryDelayMs),
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

func persistent(data []byte) amqp091.Publishing {
	return amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}
}

// PublishFIFO sends data to a durable work queue through the default
// exchange.
func PublishFIFO(ch Publisher, queueName string, data []byte) error {
	return ch.Publish("", queueName, false, false, persistent(data))
}

// PublishTopic broadcasts data on TopicExchange under topic.
func PublishTopic(ch Publisher, topic string, data []byte) error {
	return ch.Publish(TopicExchange, topic, false, false, persistent(data))
}
