// Package session persists chat sessions and their messages in Redis so the
// front-end can list, reopen, and delete past conversations.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/insightx/server/internal/core/errx"
	logx "github.com/insightx/server/pkg/logger"
)

const (
	// DefaultTitle is the placeholder before the first question sets one.
	DefaultTitle = "New chat"

	// DefaultListLimit caps how many sessions a listing returns.
	DefaultListLimit = 50

	maxTitleLen = 60
)

// Session is one stored chat session.
type Session struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Message is one stored turn. Data holds the decoded result payload for
// analytics answers and stays nil for plain text turns.
type Message struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	SQLText   string `json:"sql_text"`
	Data      any    `json:"data"`
	CreatedAt string `json:"created_at"`
}

// Store keeps sessions in Redis: a JSON blob per session, a sorted set of
// session ids by last activity, and a list of JSON messages per session.
// All keys share a TTL that is extended on touch.
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string  { return fmt.Sprintf("session:%s", id) }
func messagesKey(id string) string { return fmt.Sprintf("session:%s:messages", id) }
func seqKey(id string) string      { return fmt.Sprintf("session:%s:seq", id) }

const indexKey = "sessions"

// NewSessionID returns a short hex id in the shape existing clients expect.
func NewSessionID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Create stores a new session. An empty title falls back to DefaultTitle.
func (s *Store) Create(ctx context.Context, title string) (*Session, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	ts := now()
	sess := &Session{ID: NewSessionID(), Title: title, CreatedAt: ts, UpdatedAt: ts}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads one session. A missing id maps to a not-found error.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &sess, nil
}

// List returns up to limit sessions, most recently active first.
func (s *Store) List(ctx context.Context, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	ids, err := s.rdb.ZRevRange(ctx, indexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if err != nil {
			// index entry outlived its session blob; drop it
			if errx.StatusOf(err) == http.StatusNotFound {
				s.rdb.ZRem(ctx, indexKey, id)
				continue
			}
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Delete removes a session and its messages. The bool reports whether the
// session existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.rdb.ZRem(ctx, indexKey, id).Result()
	if err != nil {
		return false, errx.WrapRedis(err)
	}
	if err := s.rdb.Del(ctx, sessionKey(id), messagesKey(id), seqKey(id)).Err(); err != nil {
		return false, errx.WrapRedis(err)
	}
	return removed > 0, nil
}

// UpdateTitle sets the title and bumps last activity. Missing sessions are a
// silent no-op, mirroring how untracked ids behave elsewhere.
func (s *Store) UpdateTitle(ctx context.Context, id, title string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		if errx.StatusOf(err) == http.StatusNotFound {
			return nil
		}
		return err
	}
	sess.Title = title
	sess.UpdatedAt = now()
	return s.save(ctx, sess)
}

// AddMessage appends a turn and bumps the session's last activity.
func (s *Store) AddMessage(ctx context.Context, id string, msg Message) error {
	seq, err := s.rdb.Incr(ctx, seqKey(id)).Result()
	if err != nil {
		return errx.WrapRedis(err)
	}
	msg.ID = seq
	msg.CreatedAt = now()

	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	key := messagesKey(id)
	if err := s.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push message to redis")
		return errx.WrapRedis(err)
	}
	s.touch(ctx, key)
	s.touch(ctx, seqKey(id))

	if sess, err := s.Get(ctx, id); err == nil {
		sess.UpdatedAt = now()
		if err := s.save(ctx, sess); err != nil {
			return err
		}
	}
	return nil
}

// Messages returns the full ordered history. A missing session yields an
// empty slice, not an error.
func (s *Store) Messages(ctx context.Context, id string) ([]Message, error) {
	rows, err := s.rdb.LRange(ctx, messagesKey(id), 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []Message{}, nil
		}
		return nil, errx.WrapRedis(err)
	}
	msgs := make([]Message, 0, len(rows))
	for i, raw := range rows {
		var m Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// MessageCount returns the number of stored turns.
func (s *Store) MessageCount(ctx context.Context, id string) (int, error) {
	n, err := s.rdb.LLen(ctx, messagesKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

// AutoTitle derives the session title from the first question.
func (s *Store) AutoTitle(ctx context.Context, id, firstQuestion string) error {
	return s.UpdateTitle(ctx, id, TitleFromQuestion(firstQuestion))
}

// TitleFromQuestion truncates a question into a listing title.
func TitleFromQuestion(q string) string {
	q = strings.TrimSpace(q)
	if len(q) <= maxTitleLen {
		return q
	}
	return q[:maxTitleLen] + "..."
}

func (s *Store) save(ctx context.Context, sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	key := sessionKey(sess.ID)
	if err := s.rdb.Set(ctx, key, b, s.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}
	updated, err := time.Parse(time.RFC3339Nano, sess.UpdatedAt)
	if err != nil {
		updated = time.Now().UTC()
	}
	if err := s.rdb.ZAdd(ctx, indexKey, redis.Z{Score: float64(updated.UnixNano()), Member: sess.ID}).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

// touch extends the TTL on a key, logging instead of failing when Redis
// declines.
func (s *Store) touch(ctx context.Context, key string) {
	if s.ttl <= 0 {
		return
	}
	if ok, err := s.rdb.Expire(ctx, key, s.ttl).Result(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
	} else if !ok {
		logx.Warn().Str("key", key).Dur("ttl", s.ttl).Msg("failed to set TTL on session key")
	}
}
