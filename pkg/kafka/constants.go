package kafka

import "time"

const (
	// MaxPollWait bounds how long a fetch waits for new data.
	MaxPollWait = 500 * time.Millisecond
	// CommitInterval is how often committed offsets are flushed to the broker.
	CommitInterval = 1 * time.Second
	// WriteTimeout bounds a single produce call.
	WriteTimeout = 10 * time.Second

	// MinFetchBytes makes a fetch return as soon as any data is available.
	MinFetchBytes = 1
	// MaxFetchBytes caps a fetch at 10MB.
	MaxFetchBytes = 10e6

	// ContentTypeHeader names the message header carrying the payload encoding.
	ContentTypeHeader = "content-type"
)
