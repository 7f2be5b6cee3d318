package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/bootstrap"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/queue"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/storage"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/timing"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/leaselock"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"
	pgstore "github.com/OFFIS-RIT/tripalbum/backend/pkg/store/pgx"

	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap.InitLogger("worker")

	// Init s3 client
	s3Client, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}

	embedder, err := bootstrap.NewEmbeddingClient()
	if err != nil {
		logger.Fatal("Failed to create embedding client", "err", err)
	}
	images := storage.NewS3ImageSource(s3Client, storage.Bucket(), int(util.GetEnvNumeric("IMAGE_CACHE_ENTRIES", 64)))
	assembler, err := bootstrap.NewAssembler(embedder, bootstrap.NewPlaceFinder(), images)
	if err != nil {
		logger.Fatal("Invalid album configuration", "err", err)
	}

	// Init pgx client
	pgConn, err := bootstrap.NewPool(ctx)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	cache, closeCache, err := bootstrap.NewAlbumCache(ctx, s3Client)
	if err != nil {
		logger.Fatal("Failed to open album cache", "err", err)
	}
	defer closeCache()

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queues := queue.Queues
	if err := queue.SetupQueues(ch, queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	processor := &queue.Processor{
		Photos:    pgstore.NewPhotoDBStorage(pgConn),
		Jobs:      pgstore.NewJobDBStorage(pgConn),
		Cache:     cache,
		Locks:     leaselock.New(pgConn),
		Assembler: assembler,
		Events:    ch,
	}

	logger.Info("Listening for messages")

	// One consumer channel with prefetch=1 so a worker holds a single job
	// across all queues.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range queues {
		go func(qName string) {
			consumerTag := fmt.Sprintf("%s_consumer", qName)
			msgs, err := consumerCh.Consume(
				qName,
				consumerTag,
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,   // args
			)
			if err != nil {
				logger.Fatal("Failed to start consuming", "queue", qName, "err", err)
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", qName)
						return
					}
					messageChan <- queuedMessage{msg: msg, queueName: qName}
				}
			}
		}(queueName)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case qm := <-messageChan:
				watch := timing.Start()
				logger.Info("[Worker] Received message", "queue", qm.queueName)

				processingErr := processor.Dispatch(ctx, qm.queueName, qm.msg.Body)
				if processingErr != nil {
					logger.Error("[Worker] Error processing message", "queue", qm.queueName, "err", processingErr)
					outcome := queue.HandleProcessingError(consumerCh, qm.msg, qm.queueName, processingErr)
					if outcome == queue.OutcomeDeadLettered && !errors.Is(processingErr, queue.ErrInvalidMessage) {
						processor.MarkDeadLettered(ctx, qm.queueName, qm.msg.Body, processingErr)
					}
				} else {
					if err := qm.msg.Ack(false); err != nil {
						logger.Error("[Worker] Failed to ack message", "err", err)
					}
					logger.Info("[Worker] Message processed successfully", "queue", qm.queueName)
				}

				metrics := embedder.GetMetrics()
				logger.Info(
					"[Worker] AI metrics",
					"requests", metrics.Requests,
					"input_tokens", metrics.InputTokens,
					"total_tokens", metrics.TotalTokens,
					"duration", timing.Clock(time.Duration(metrics.DurationMs)*time.Millisecond),
				)
				logger.Info("[Worker] Processing time", "duration", watch.String())
				logger.Info("Waiting for next message")
				embedder.ResetMetrics()
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}
