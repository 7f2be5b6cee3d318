package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewAlbumKey returns a short, url safe key under which a generated set of
// albums is cached.
func NewAlbumKey() string {
	return gonanoid.MustGenerate(idAlphabet, 12)
}

// NewCorrelationID returns an id that follows a job through queue and logs.
func NewCorrelationID() string {
	return gonanoid.Must()
}
