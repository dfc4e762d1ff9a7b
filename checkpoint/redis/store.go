// Package redis provides a checkpoint store backed by Redis. Entries carry a
// TTL so checkpoint memory does not grow without bound under sustained
// traffic.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/contentflow/contentflow/workflow"
)

const (
	defaultTTL    = 72 * time.Hour
	defaultPrefix = "contentflow"
)

type Store struct {
	client   *goredis.Client
	ttl      time.Duration
	prefix   string
	addr     string
	db       int
	password string
}

type Option func(*Store)

func WithPassword(password string) Option {
	return func(s *Store) {
		s.password = password
	}
}

func WithDB(db int) Option {
	return func(s *Store) {
		s.db = db
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if strings.TrimSpace(prefix) != "" {
			s.prefix = strings.TrimSpace(prefix)
		}
	}
}

func WithClient(client *goredis.Client) Option {
	return func(s *Store) {
		if client != nil {
			s.client = client
		}
	}
}

func New(addr string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	s := &Store{
		ttl:    defaultTTL,
		prefix: defaultPrefix,
		addr:   addr,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = goredis.NewClient(&goredis.Options{
			Addr:     s.addr,
			Password: s.password,
			DB:       s.db,
		})
	}

	if err := s.client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return s, nil
}

func (s *Store) Put(ctx context.Context, threadID string, state workflow.State) error {
	if strings.TrimSpace(threadID) == "" {
		return fmt.Errorf("thread_id is required")
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := s.client.Set(ctx, s.threadKey(threadID), string(raw), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save checkpoint in redis: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, threadID string) (workflow.State, error) {
	if strings.TrimSpace(threadID) == "" {
		return workflow.State{}, fmt.Errorf("thread_id is required")
	}

	raw, err := s.client.Get(ctx, s.threadKey(threadID)).Result()
	if err != nil {
		if err == goredis.Nil {
			return workflow.State{}, workflow.ErrNotFound
		}
		return workflow.State{}, fmt.Errorf("failed to load checkpoint from redis: %w", err)
	}

	var state workflow.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return workflow.State{}, fmt.Errorf("failed to decode checkpoint from redis: %w", err)
	}
	return state, nil
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) threadKey(threadID string) string {
	return fmt.Sprintf("%s:ckpt:%s", s.prefix, threadID)
}
