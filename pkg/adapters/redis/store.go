package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/arche/pkg/ports"
	"github.com/aretw0/arche/pkg/record"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "arche:project:"

// noExpiry is the index score of projects saved without a TTL (2100-01-01).
const noExpiry = 4102444800

// Store implements ports.ProjectStore using Redis.
// Records are stored as JSON values; a ZSET indexes project ids by expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for projects.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for projects.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client returns the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(projectID string) string {
	return s.prefix + projectID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the record to Redis.
func (s *Store) Save(ctx context.Context, projectID string, rec record.Record) error {
	data, err := record.Marshal(rec, record.FormatJSON)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = noExpiry
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(projectID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: projectID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the record from Redis.
func (s *Store) Load(ctx context.Context, projectID string) (record.Record, error) {
	val, err := s.client.Get(ctx, s.key(projectID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return record.Record{}, ports.ErrProjectNotFound
		}
		return record.Record{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	rec, err := record.Unmarshal(val, record.FormatJSON)
	if err != nil {
		return record.Record{}, fmt.Errorf("failed to unmarshal project %s: %w", projectID, err)
	}
	return rec, nil
}

// Delete removes the project.
func (s *Store) Delete(ctx context.Context, projectID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(projectID))
	pipe.ZRem(ctx, s.indexKey(), projectID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns stored projects, pruning expired entries from the index first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired projects: %w", err)
	}

	projects, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
