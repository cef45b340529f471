// Package dispatch hands job ids from the submission layer to workers over a
// bounded Redis Stream. Delivery is at-least-once: the consumer cursor is
// checkpointed in Redis only after an entry has been handled, so a crash
// mid-job replays the entry on restart and handlers must be idempotent.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	// checkpointKey persists the last handled stream id across restarts.
	checkpointKey = "videogen:last_id"

	// maxStreamLen caps the stream with approximate trimming on publish.
	// Entries trimmed before being consumed leave their job stuck pending
	// until requeued out of band; throughput is favored over redelivery.
	maxStreamLen = 10000

	pollInterval = 50 * time.Millisecond
)

// Entry is one dequeued stream record.
type Entry struct {
	StreamID string
	JobID    string
}

// Channel is the dispatch stream handle. One Channel serves a whole process:
// a single reader calls Consume while any number of goroutines Publish and
// Ack.
type Channel struct {
	client  goredis.Cmdable
	stream  string
	startID string

	mu       sync.Mutex
	cursor   string // next XRead position; "" until initialized
	lastAck  string // highest handled id, persisted at checkpointKey
}

// New creates a dispatch channel on the named stream. startID is honored only
// when no checkpoint has been persisted: "$" reads new entries only, "0-0"
// catches up from the earliest retained entry.
func New(client goredis.Cmdable, stream, startID string) *Channel {
	if startID == "" {
		startID = "$"
	}
	return &Channel{client: client, stream: stream, startID: startID}
}

// Publish appends a job id to the stream.
func (c *Channel) Publish(ctx context.Context, jobID string) error {
	err := c.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: c.stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{"id": jobID},
	}).Err()
	if err != nil {
		return fmt.Errorf("dispatch: publish job: %w", err)
	}
	return nil
}

// Consume blocks until an entry strictly after the cursor is available and
// returns it, advancing the in-process cursor so subsequent reads do not see
// it again. The durable checkpoint only moves on Ack. Entries without a job
// id are checkpointed and skipped.
func (c *Channel) Consume(ctx context.Context) (Entry, error) {
	for {
		select {
		case <-ctx.Done():
			return Entry{}, ctx.Err()
		default:
		}

		cursor, err := c.readCursor(ctx)
		if err != nil {
			return Entry{}, err
		}

		res, err := c.client.XRead(ctx, &goredis.XReadArgs{
			Streams: []string{c.stream, cursor},
			Count:   1,
			Block:   -1,
		}).Result()
		if errors.Is(err, goredis.Nil) {
			sleepCtx(ctx, pollInterval)
			continue
		}
		if err != nil {
			return Entry{}, fmt.Errorf("dispatch: read stream: %w", err)
		}
		if len(res) == 0 || len(res[0].Messages) == 0 {
			sleepCtx(ctx, pollInterval)
			continue
		}

		msg := res[0].Messages[0]
		c.advanceCursor(msg.ID)

		jobID, _ := msg.Values["id"].(string)
		if jobID == "" {
			// Malformed entry; never deliverable, so checkpoint past it.
			_ = c.Ack(ctx, Entry{StreamID: msg.ID})
			continue
		}
		return Entry{StreamID: msg.ID, JobID: jobID}, nil
	}
}

// Ack records that an entry has been handled. The durable checkpoint only
// moves forward: out-of-order acks from concurrent handlers cannot rewind it.
func (c *Channel) Ack(ctx context.Context, e Entry) error {
	c.mu.Lock()
	if !idAfter(e.StreamID, c.lastAck) {
		c.mu.Unlock()
		return nil
	}
	c.lastAck = e.StreamID
	c.mu.Unlock()

	if err := c.client.Set(ctx, checkpointKey, e.StreamID, 0).Err(); err != nil {
		// Not fatal: the entry may be reprocessed after a restart.
		return fmt.Errorf("dispatch: persist checkpoint: %w", err)
	}
	return nil
}

// TrimOlderThan drops entries older than the retention window by MINID time
// watermark, never trimming past the last acknowledged entry.
func (c *Channel) TrimOlderThan(ctx context.Context, window time.Duration) error {
	c.mu.Lock()
	lastAck := c.lastAck
	c.mu.Unlock()

	if lastAck == "" || lastAck == "0-0" {
		// Nothing handled yet; do not risk trimming backlog.
		return nil
	}
	lastMs, ok := streamIDMillis(lastAck)
	if !ok || lastMs == 0 {
		return nil
	}

	cutoffMs := uint64(time.Now().Add(-window).UnixMilli())
	targetMs := cutoffMs
	if lastMs < targetMs {
		targetMs = lastMs
	}
	if targetMs == 0 {
		return nil
	}

	minID := strconv.FormatUint(targetMs, 10) + "-0"
	if targetMs == lastMs {
		minID = lastAck
	}
	if err := c.client.XTrimMinIDApprox(ctx, c.stream, minID, 0).Err(); err != nil {
		return fmt.Errorf("dispatch: trim stream: %w", err)
	}
	return nil
}

// readCursor returns the current XRead position, loading the persisted
// checkpoint on first use. A "$" start position is resolved against the
// stream's current tail so the non-blocking read loop can make progress.
func (c *Channel) readCursor(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cursor != "" {
		return c.cursor, nil
	}

	persisted, err := c.client.Get(ctx, checkpointKey).Result()
	switch {
	case err == nil && persisted != "":
		c.cursor = persisted
		c.lastAck = persisted
		return c.cursor, nil
	case err != nil && !errors.Is(err, goredis.Nil):
		return "", fmt.Errorf("dispatch: load checkpoint: %w", err)
	}

	start := c.startID
	if start == "$" {
		tail, err := c.client.XRevRangeN(ctx, c.stream, "+", "-", 1).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return "", fmt.Errorf("dispatch: resolve stream tail: %w", err)
		}
		if len(tail) > 0 {
			start = tail[0].ID
		} else {
			start = "0-0"
		}
	}
	c.cursor = start
	return c.cursor, nil
}

func (c *Channel) advanceCursor(id string) {
	c.mu.Lock()
	if idAfter(id, c.cursor) {
		c.cursor = id
	}
	c.mu.Unlock()
}

// idAfter reports whether stream id a is strictly newer than b. An empty or
// non-numeric b always loses.
func idAfter(a, b string) bool {
	ams, aseq, aok := splitStreamID(a)
	if !aok {
		return false
	}
	bms, bseq, bok := splitStreamID(b)
	if !bok {
		return true
	}
	if ams != bms {
		return ams > bms
	}
	return aseq > bseq
}

func splitStreamID(id string) (ms, seq uint64, ok bool) {
	part, rest, found := strings.Cut(id, "-")
	ms, err := strconv.ParseUint(part, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if found {
		seq, err = strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return 0, 0, false
		}
	}
	return ms, seq, true
}

func streamIDMillis(id string) (uint64, bool) {
	ms, _, ok := splitStreamID(id)
	return ms, ok
}

// sleepCtx sleeps for the given duration, or returns early if the context is
// cancelled.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
