package ingestion

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxRetries     = 5
	baseRetryDelay = 500 * time.Millisecond
	readDeadline   = 90 * time.Second
)

// FeedSource streams records from a collector's WebSocket endpoint. Each
// frame is a single JSON-encoded Record.
type FeedSource struct {
	url    string
	logger *log.Logger
}

// NewFeedSource creates a WebSocket feed source for the given endpoint URL.
func NewFeedSource(url string, logger *log.Logger) *FeedSource {
	if logger == nil {
		logger = log.Default()
	}
	return &FeedSource{url: url, logger: logger}
}

// Subscribe connects to the feed and returns a channel of records. The
// channel is closed when the context is cancelled or reconnect attempts are
// exhausted. Malformed frames are logged and skipped.
func (s *FeedSource) Subscribe(ctx context.Context) (<-chan *Record, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}

	recordsCh := make(chan *Record, 100)

	go func() {
		defer close(recordsCh)
		defer conn.Close()

		retries := 0
		for {
			if ctx.Err() != nil {
				return
			}

			conn.SetReadDeadline(time.Now().Add(readDeadline))
			_, frame, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if retries >= maxRetries {
					s.logger.Printf("[feed] giving up after %d reconnect attempts: %v", retries, err)
					return
				}

				// Exponential backoff: 500ms, 1s, 2s, ...
				delay := baseRetryDelay * time.Duration(1<<retries)
				retries++
				s.logger.Printf("[feed] read failed, reconnect %d/%d after %v: %v", retries, maxRetries, delay, err)

				conn.Close()
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return
				}

				conn, err = s.dial(ctx)
				if err != nil {
					s.logger.Printf("[feed] reconnect failed: %v", err)
					return
				}
				continue
			}
			retries = 0

			var rec Record
			if err := json.Unmarshal(frame, &rec); err != nil {
				s.logger.Printf("[feed] skipping malformed frame: %v", err)
				continue
			}

			select {
			case recordsCh <- &rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	return recordsCh, nil
}

func (s *FeedSource) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("[feed] connected to %s", s.url)
	return conn, nil
}
