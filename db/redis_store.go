package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"setsplit-server-go/models"
)

const resultKeyPrefix = "result:" // Hash prefix: result:{id} -> sql, summary, created_at, total_statements

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps results in Redis hashes that expire after TTL
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
	logger *zap.Logger
}

// NewRedisStore creates a RedisStore. A zero TTL keeps results forever.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{Client: client, TTL: ttl, logger: logger}
}

func getResultKey(id string) string {
	return resultKeyPrefix + id
}

// Save writes the result hash and sets its expiry in one pipeline
func (s *RedisStore) Save(ctx context.Context, result *models.Result) error {
	if result == nil || result.ID == "" {
		return errors.New("result ID cannot be empty")
	}
	summary, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	key := getResultKey(result.ID)
	pipe := s.Client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"sql":              result.SQL,
		"summary":          string(summary),
		"created_at":       result.CreatedAt.UTC().Format(time.RFC3339Nano),
		"total_statements": result.TotalStatements,
	})
	if s.TTL > 0 {
		pipe.Expire(ctx, key, s.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("Error saving result", zap.String("id", result.ID), zap.Error(err))
		return fmt.Errorf("failed to save result to Redis: %w", err)
	}
	s.logger.Info("Saved result", zap.String("id", result.ID), zap.Int("statements", result.TotalStatements))
	return nil
}

// Get loads a result, or ErrResultNotFound when the key is missing or expired
func (s *RedisStore) Get(ctx context.Context, id string) (*models.Result, error) {
	data, err := s.Client.HGetAll(ctx, getResultKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrResultNotFound
		}
		s.logger.Error("Error getting result", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get result from Redis: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrResultNotFound
	}
	return decodeResult(id, data)
}

func decodeResult(id string, data map[string]string) (*models.Result, error) {
	result := &models.Result{ID: id, SQL: data["sql"]}
	if err := json.Unmarshal([]byte(data["summary"]), &result.Summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary for result %s: %w", id, err)
	}
	if ts := data["created_at"]; ts != "" {
		created, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to decode created_at for result %s: %w", id, err)
		}
		result.CreatedAt = created
	}
	if n := data["total_statements"]; n != "" {
		total, err := strconv.Atoi(n)
		if err != nil {
			return nil, fmt.Errorf("failed to decode total_statements for result %s: %w", id, err)
		}
		result.TotalStatements = total
	}
	return result, nil
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

// InitializeRedisClient creates a client and checks the connection
func InitializeRedisClient(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", opts.Addr, err)
	}

	logger.Info("Successfully connected to Redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return rdb, nil
}
