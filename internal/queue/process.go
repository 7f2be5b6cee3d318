package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/album"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/leaselock"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/store"
)

// Locker serializes jobs per library. *leaselock.Client implements it.
type Locker interface {
	WithLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error
}

// Processor handles the album work queues. Jobs, Locks and Events are
// optional.
type Processor struct {
	Photos    store.PhotoStore
	Jobs      store.JobStore
	Cache     album.Cache
	Locks     Locker
	Assembler *album.Assembler
	Events    Publisher
}

var leaseOptions = leaselock.Options{
	TTL:        10 * time.Minute,
	RenewEvery: 4 * time.Minute,
	Wait:       true,
}

func (p *Processor) withLibraryLock(ctx context.Context, libraryID, prefix string, fn func(ctx context.Context) error) error {
	if p.Locks == nil {
		return fn(ctx)
	}
	opts := leaseOptions
	opts.TokenPrefix = prefix + "/" + libraryID + "/"
	return p.Locks.WithLease(ctx, leaselock.LibraryKey(libraryID), opts, fn)
}

func (p *Processor) updateJob(ctx context.Context, id string, status store.JobStatus, albums int, errMsg string) {
	if p.Jobs == nil || id == "" {
		return
	}
	updateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.Jobs.UpdateJob(updateCtx, id, status, albums, errMsg); err != nil {
		logger.Warn("[Queue] Failed to update job", "correlation_id", id, "status", status, "err", err)
	}
}

func (p *Processor) publish(topic string, event AlbumEvent) {
	if p.Events == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	body, err := json.Marshal(event)
	if err != nil {
		logger.Error("[Queue] Failed to marshal event", "topic", topic, "err", err)
		return
	}
	if err := PublishTopic(p.Events, topic, body); err != nil {
		logger.Warn("[Queue] Failed to publish event", "topic", topic, "err", err)
	}
}

func (p *Processor) fail(ctx context.Context, msg QueueAlbumMsg, cause error) {
	p.updateJob(ctx, msg.CorrelationID, store.JobFailed, 0, cause.Error())
	p.publish(TopicAlbumFailed, AlbumEvent{
		CorrelationID: msg.CorrelationID,
		LibraryID:     msg.LibraryID,
		AlbumKey:      msg.AlbumKey,
		Error:         cause.Error(),
	})
}

// MarkDeadLettered records the final failure of an album message that ran
// out of retries.
func (p *Processor) MarkDeadLettered(ctx context.Context, queueName string, body []byte, cause error) {
	if queueName != AlbumQueue {
		return
	}
	var msg QueueAlbumMsg
	if err := json.Unmarshal(body, &msg); err != nil || msg.CorrelationID == "" {
		return
	}
	if cause == nil {
		cause = errors.New("retries exhausted")
	}
	p.fail(ctx, msg, cause)
}

// ProcessAlbumMessage generates every album of a library and stores them
// under the album key of the message. An empty library is not retried.
func (p *Processor) ProcessAlbumMessage(ctx context.Context, body []byte) (err error) {
	msg, err := decodeAlbumMsg(body)
	if err != nil {
		return err
	}

	defer func() {
		if err == nil {
			return
		}
		if errors.Is(err, ErrInvalidMessage) {
			p.fail(ctx, msg, err)
			return
		}
		// retried later; MarkDeadLettered settles the job if retries run out
		p.updateJob(ctx, msg.CorrelationID, store.JobQueued, 0, err.Error())
	}()

	cfg := p.Assembler.Config
	if msg.Strategy != "" {
		cfg.Strategy = msg.Strategy
	}
	assembler := p.Assembler.Derive(cfg)
	assembler.Progress = func(pr util.Progress) {
		logger.Debug("[Queue] Album progress", "correlation_id", msg.CorrelationID, "step", pr.Step, "percent", pr.Percentage())
	}
	if err := assembler.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	start := time.Now()
	var titles []string
	err = p.withLibraryLock(ctx, msg.LibraryID, "album", func(ctx context.Context) error {
		p.updateJob(ctx, msg.CorrelationID, store.JobProcessing, 0, "")

		photos, err := p.Photos.ListPhotos(ctx, msg.LibraryID)
		if errors.Is(err, store.ErrEmptyLibrary) {
			return fmt.Errorf("%w: library %s has no photos", ErrInvalidMessage, msg.LibraryID)
		}
		if err != nil {
			return err
		}

		albums, err := assembler.Assemble(ctx, photos)
		if err != nil {
			return err
		}

		// drop leftovers of an earlier, larger run under the same key
		if _, err := album.DeleteAll(ctx, p.Cache, msg.AlbumKey); err != nil && !errors.Is(err, album.ErrNotFound) {
			return err
		}
		if err := album.SaveAll(ctx, p.Cache, msg.AlbumKey, albums); err != nil {
			return err
		}
		for _, a := range albums {
			titles = append(titles, a.Title)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(
		"[Queue] Albums generated",
		"library_id", msg.LibraryID,
		"album_key", msg.AlbumKey,
		"albums", len(titles),
		"duration_sec", time.Since(start).Seconds(),
	)
	p.updateJob(ctx, msg.CorrelationID, store.JobCompleted, len(titles), "")
	p.publish(TopicAlbumReady, AlbumEvent{
		CorrelationID: msg.CorrelationID,
		LibraryID:     msg.LibraryID,
		AlbumKey:      msg.AlbumKey,
		Albums:        len(titles),
		Titles:        titles,
	})
	return nil
}

// ProcessDeleteMessage drops cached albums and, when asked, the photos of
// the library. Missing albums are not an error.
func (p *Processor) ProcessDeleteMessage(ctx context.Context, body []byte) error {
	msg, err := decodeDeleteMsg(body)
	if err != nil {
		return err
	}

	deleted := 0
	run := func(ctx context.Context) error {
		if msg.AlbumKey != "" {
			n, err := album.DeleteAll(ctx, p.Cache, msg.AlbumKey)
			if err != nil && !errors.Is(err, album.ErrNotFound) {
				return err
			}
			deleted = n
		}
		if msg.DeletePhotos && msg.LibraryID != "" {
			n, err := p.Photos.DeletePhotos(ctx, msg.LibraryID, nil)
			if err != nil {
				return err
			}
			logger.Info("[Queue] Deleted library photos", "library_id", msg.LibraryID, "photos", n)
		}
		return nil
	}

	if msg.LibraryID != "" {
		err = p.withLibraryLock(ctx, msg.LibraryID, "delete", run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return err
	}

	logger.Info("[Queue] Albums deleted", "album_key", msg.AlbumKey, "albums", deleted)
	p.publish(TopicAlbumDeleted, AlbumEvent{
		CorrelationID: msg.CorrelationID,
		LibraryID:     msg.LibraryID,
		AlbumKey:      msg.AlbumKey,
		Albums:        deleted,
	})
	return nil
}

// Dispatch routes a delivery body to the handler of its queue.
func (p *Processor) Dispatch(ctx context.Context, queueName string, body []byte) error {
	switch queueName {
	case AlbumQueue:
		return p.ProcessAlbumMessage(ctx, body)
	case DeleteQueue:
		return p.ProcessDeleteMessage(ctx, body)
	}
	return fmt.Errorf("%w: unknown queue %s", ErrInvalidMessage, queueName)
}
