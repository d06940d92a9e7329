package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session is the per-user cross-request state: identity plus the workflow
// identifiers the dashboard carries between requests (active history, last
// uploaded dataset). It is never held in process globals.
type Session struct {
	Token            string    `json:"token"`
	UserID           uuid.UUID `json:"user_id"`
	Username         string    `json:"username"`
	HistoryID        string    `json:"history_id,omitempty"`
	DatasetID        string    `json:"dataset_id,omitempty"`
	LastUploadedFile string    `json:"last_uploaded_file,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store is the session access interface. Implementations must be safe for
// concurrent use.
type Store interface {
	Create(ctx context.Context, userID uuid.UUID, username string) (*Session, error)
	Get(ctx context.Context, token string) (*Session, bool, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, token string) error
	Ping(ctx context.Context) error
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// RedisStore implements the Store interface using go-redis/v9.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore from a Redis URL. ttl bounds session
// lifetime; each Save refreshes it.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Create(ctx context.Context, userID uuid.UUID, username string) (*Session, error) {
	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (*Session, bool, error) {
	data, err := s.client.Get(ctx, Key(token)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, false, fmt.Errorf("decode session: %w", err)
	}
	return &sess, true, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, Key(sess.Token), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, Key(token)).Err()
}

func (s *RedisStore) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Compile-time check that RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
