package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	// payloadField is the stream entry field holding the encoded event.
	payloadField = "event"

	// deadSuffix names the dead-letter stream beside each event stream.
	deadSuffix = ":dead"
)

// ErrMalformedReply is returned when Redis answers with an unexpected shape.
var ErrMalformedReply = errors.New("malformed stream reply")

// Entry is an event read from the stream. Payload is kept for entries
// whose event could not be decoded.
type Entry struct {
	ID      string
	Event   *Event
	Payload string
	Err     error
}

// Stream is a Redis stream of side-effect events read through one consumer group.
type Stream struct {
	client rueidis.Client
	key    string
	group  string
	maxLen int64
	logger *zap.Logger
}

// NewStream creates a Stream. maxLen bounds the stream approximately.
func NewStream(client rueidis.Client, key, group string, maxLen int64, logger *zap.Logger) *Stream {
	return &Stream{
		client: client,
		key:    key,
		group:  group,
		maxLen: maxLen,
		logger: logger.Named("event_stream"),
	}
}

// Key returns the stream key.
func (s *Stream) Key() string {
	return s.key
}

// Publish appends an event and returns its entry id.
func (s *Stream) Publish(ctx context.Context, e *Event) (string, error) {
	payload, err := e.Encode()
	if err != nil {
		return "", err
	}

	var cmd rueidis.Completed
	if s.maxLen > 0 {
		cmd = s.client.B().Xadd().Key(s.key).
			Maxlen().Almost().Threshold(strconv.FormatInt(s.maxLen, 10)).
			Id("*").FieldValue().FieldValue(payloadField, payload).Build()
	} else {
		cmd = s.client.B().Xadd().Key(s.key).
			Id("*").FieldValue().FieldValue(payloadField, payload).Build()
	}

	id, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		return "", fmt.Errorf("failed to publish event: %w", err)
	}

	s.logger.Debug("Published event",
		zap.String("entryID", id),
		zap.String("eventID", e.ID.String()),
		zap.String("type", string(e.Type)))

	return id, nil
}

// EnsureGroup creates the consumer group and the stream if missing.
// The group starts at the beginning so events published before it existed
// are still delivered.
func (s *Stream) EnsureGroup(ctx context.Context) error {
	err := s.client.Do(ctx,
		s.client.B().XgroupCreate().Key(s.key).Group(s.group).Id("0").Mkstream().Build(),
	).Error()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// Read returns up to count new entries for the consumer. A zero block
// returns immediately when nothing is available.
func (s *Stream) Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]Entry, error) {
	var cmd rueidis.Completed
	if block > 0 {
		cmd = s.client.B().Xreadgroup().Group(s.group, consumer).Count(count).
			Block(block.Milliseconds()).Streams().Key(s.key).Id(">").Build()
	} else {
		cmd = s.client.B().Xreadgroup().Group(s.group, consumer).Count(count).
			Streams().Key(s.key).Id(">").Build()
	}

	streams, err := s.client.Do(ctx, cmd).AsXRead()
	if rueidis.IsRedisNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}

	return s.entries(streams[s.key]), nil
}

// Claim takes over entries that another consumer read but did not
// acknowledge within minIdle.
func (s *Stream) Claim(ctx context.Context, consumer string, count int64, minIdle time.Duration) ([]Entry, error) {
	resp, err := s.client.Do(ctx,
		s.client.B().Xautoclaim().Key(s.key).Group(s.group).Consumer(consumer).
			MinIdleTime(strconv.FormatInt(minIdle.Milliseconds(), 10)).Start("0-0").
			Count(count).Build(),
	).ToArray()
	if err != nil {
		return nil, fmt.Errorf("failed to claim idle entries: %w", err)
	}
	if len(resp) < 2 {
		return nil, nil
	}

	ranges, err := resp[1].AsXRange()
	if err != nil {
		return nil, fmt.Errorf("failed to parse claimed entries: %w", err)
	}

	return s.entries(ranges), nil
}

// Ack acknowledges applied entries.
func (s *Stream) Ack(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	err := s.client.Do(ctx, s.client.B().Xack().Key(s.key).Group(s.group).Id(ids...).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to acknowledge entries: %w", err)
	}
	return nil
}

// DeadKey returns the key of the dead-letter stream.
func (s *Stream) DeadKey() string {
	return s.key + deadSuffix
}

// Deliveries returns how many times each pending entry was delivered.
// Entries that are no longer pending are absent from the result.
func (s *Stream) Deliveries(ctx context.Context, ids ...string) (map[string]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make(rueidis.Commands, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, s.client.B().Xpending().Key(s.key).Group(s.group).
			Start(id).End(id).Count(1).Build())
	}

	counts := make(map[string]int64, len(ids))
	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		rows, err := resp.ToArray()
		if rueidis.IsRedisNil(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read pending entries: %w", err)
		}

		for _, row := range rows {
			fields, err := row.ToArray()
			if err != nil || len(fields) < 4 {
				return nil, fmt.Errorf("%w: unexpected pending entry shape", ErrMalformedReply)
			}
			id, err := fields[0].ToString()
			if err != nil {
				return nil, fmt.Errorf("failed to parse pending entry id: %w", err)
			}
			count, err := fields[3].AsInt64()
			if err != nil {
				return nil, fmt.Errorf("failed to parse delivery count: %w", err)
			}
			counts[id] = count
		}
	}

	return counts, nil
}

// Park copies entries to the dead-letter stream with the reason they were
// given up on, then acknowledges them.
func (s *Stream) Park(ctx context.Context, reason string, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, len(entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		cmds = append(cmds, s.client.B().Xadd().Key(s.DeadKey()).Id("*").FieldValue().
			FieldValue(payloadField, entry.Payload).
			FieldValue("source_id", entry.ID).
			FieldValue("reason", reason).
			Build())
		ids = append(ids, entry.ID)
	}

	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("failed to park entries: %w", err)
		}
	}

	return s.Ack(ctx, ids...)
}

// Pending returns the number of entries read but not yet acknowledged.
func (s *Stream) Pending(ctx context.Context) (int64, error) {
	resp, err := s.client.Do(ctx, s.client.B().Xpending().Key(s.key).Group(s.group).Build()).ToArray()
	if err != nil {
		return 0, fmt.Errorf("failed to read pending summary: %w", err)
	}
	if len(resp) == 0 {
		return 0, nil
	}
	return resp[0].AsInt64()
}

func (s *Stream) entries(ranges []rueidis.XRangeEntry) []Entry {
	out := make([]Entry, 0, len(ranges))
	for _, r := range ranges {
		entry := Entry{ID: r.ID, Payload: r.FieldValues[payloadField]}
		entry.Event, entry.Err = Decode(entry.Payload)
		if entry.Payload == "" {
			entry.Err = errors.New("entry has no event payload")
		}
		out = append(out, entry)
	}
	return out
}
