package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// MemoryState keeps last seen ids for the life of the process
type MemoryState struct {
	mu  sync.RWMutex
	ids map[string]string
}

// NewMemoryState creates an empty in-memory state
func NewMemoryState() *MemoryState {
	return &MemoryState{ids: make(map[string]string)}
}

func (s *MemoryState) LastSeen(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.ids[key]
	return id, ok, nil
}

func (s *MemoryState) SetLastSeen(_ context.Context, key, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[key] = id
	return nil
}

// FileState keeps last seen ids in a small JSON side file
type FileState struct {
	mu   sync.Mutex
	path string
}

// NewFileState stores ids at path; the file is created on first write
func NewFileState(path string) *FileState {
	return &FileState{path: path}
}

func (s *FileState) LastSeen(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.read()
	if err != nil {
		return "", false, err
	}
	id, ok := ids[key]
	return id, ok, nil
}

func (s *FileState) SetLastSeen(_ context.Context, key, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.read()
	if err != nil {
		return err
	}
	ids[key] = id

	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileState) read() (map[string]string, error) {
	ids := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ids, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if len(data) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return ids, nil
}

const redisKeyPrefix = "sasmex:last_seen:"

// RedisState shares last seen ids between monitor instances
type RedisState struct {
	redis *redis.Client
}

// NewRedisState connects to redisURL and verifies the connection
func NewRedisState(redisURL string) (*RedisState, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisState{redis: client}, nil
}

func (s *RedisState) Close() error { return s.redis.Close() }

func (s *RedisState) LastSeen(ctx context.Context, key string) (string, bool, error) {
	id, err := s.redis.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *RedisState) SetLastSeen(ctx context.Context, key, id string) error {
	return s.redis.Set(ctx, redisKeyPrefix+key, id, 0).Err()
}
