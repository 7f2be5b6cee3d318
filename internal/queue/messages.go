package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidMessage = errors.New("invalid queue message")

// QueueAlbumMsg asks a worker to generate the albums of a library and store
// them under AlbumKey.
type QueueAlbumMsg struct {
	CorrelationID string `json:"correlation_id"`
	LibraryID     string `json:"library_id"`
	AlbumKey      string `json:"album_key"`
	// Strategy overrides the configured moment strategy when set.
	Strategy string `json:"strategy,omitempty"`
}

// QueueDeleteMsg removes cached albums, and optionally the photos of the
// library they were built from.
type QueueDeleteMsg struct {
	CorrelationID string `json:"correlation_id"`
	LibraryID     string `json:"library_id"`
	AlbumKey      string `json:"album_key"`
	DeletePhotos  bool   `json:"delete_photos,omitempty"`
}

// AlbumEvent is published on the topic exchange when a job finishes.
type AlbumEvent struct {
	CorrelationID string    `json:"correlation_id"`
	LibraryID     string    `json:"library_id"`
	AlbumKey      string    `json:"album_key"`
	Albums        int       `json:"albums"`
	Titles        []string  `json:"titles,omitempty"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func decodeAlbumMsg(body []byte) (QueueAlbumMsg, error) {
	var msg QueueAlbumMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if msg.LibraryID == "" || msg.AlbumKey == "" {
		return msg, fmt.Errorf("%w: library_id and album_key are required", ErrInvalidMessage)
	}
	return msg, nil
}

func decodeDeleteMsg(body []byte) (QueueDeleteMsg, error) {
	var msg QueueDeleteMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if msg.AlbumKey == "" && !(msg.DeletePhotos && msg.LibraryID != "") {
		return msg, fmt.Errorf("%w: nothing to delete", ErrInvalidMessage)
	}
	return msg, nil
}
