package store

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/redis/go-redis/v9"

	"knaito/fleapriceworker/internal/models"
	"knaito/fleapriceworker/logger"
	apperrors "knaito/fleapriceworker/pkg/errors"
)

// RedisStore implements Store on a flat Redis key namespace. Scalar settings
// live as plain string keys, product lists as JSON blobs, and the execution
// log as a Redis list (LPUSH + LTRIM keeps it capped and newest-first).
type RedisStore struct {
	client *redis.Client
	prefix string
	log    *logger.Logger
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(addr string, db int, prefix string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisStore{
		client: client,
		prefix: prefix,
		log:    logger.ForStore(),
	}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":" + name
}

// GetSettings returns the stored settings, defaulting unset keys
func (s *RedisStore) GetSettings(ctx context.Context) (models.Settings, error) {
	settings := models.DefaultSettings()

	vals, err := s.client.MGet(ctx,
		s.key("isEnabled"),
		s.key("minPrice"),
		s.key("reduction"),
		s.key("startTime"),
		s.key("endTime"),
	).Result()
	if err != nil {
		return settings, apperrors.NewStore("redis", "failed to read settings", err)
	}

	if v, ok := vals[0].(string); ok {
		settings.IsEnabled = v == "true"
	}
	if v, ok := vals[1].(string); ok {
		if n, err := strconv.Atoi(v); err == nil {
			settings.MinPrice = n
		}
	}
	if v, ok := vals[2].(string); ok {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Reduction = n
		}
	}
	if v, ok := vals[3].(string); ok && v != "" {
		settings.StartTime = v
	}
	if v, ok := vals[4].(string); ok && v != "" {
		settings.EndTime = v
	}

	return settings, nil
}

// SaveSettings writes each settings field under its own key
func (s *RedisStore) SaveSettings(ctx context.Context, settings models.Settings) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key("isEnabled"), strconv.FormatBool(settings.IsEnabled), 0)
	pipe.Set(ctx, s.key("minPrice"), strconv.Itoa(settings.MinPrice), 0)
	pipe.Set(ctx, s.key("reduction"), strconv.Itoa(settings.Reduction), 0)
	pipe.Set(ctx, s.key("startTime"), settings.StartTime, 0)
	pipe.Set(ctx, s.key("endTime"), settings.EndTime, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.NewStore("redis", "failed to save settings", err)
	}
	return nil
}

// GetProducts returns the currently known product list
func (s *RedisStore) GetProducts(ctx context.Context) ([]models.Product, error) {
	return s.getProductList(ctx, "products")
}

// SaveProducts replaces the currently known product list
func (s *RedisStore) SaveProducts(ctx context.Context, products []models.Product) error {
	return s.saveProductList(ctx, "products", products)
}

// GetSelectedProducts returns the products selected for adjustment
func (s *RedisStore) GetSelectedProducts(ctx context.Context) ([]models.Product, error) {
	return s.getProductList(ctx, "selectedProducts")
}

// SaveSelectedProducts replaces the selected product list
func (s *RedisStore) SaveSelectedProducts(ctx context.Context, products []models.Product) error {
	return s.saveProductList(ctx, "selectedProducts", products)
}

func (s *RedisStore) getProductList(ctx context.Context, name string) ([]models.Product, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStore("redis", "failed to read "+name, err)
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, apperrors.NewStore("redis", "corrupt "+name+" entry", err)
	}
	return products, nil
}

func (s *RedisStore) saveProductList(ctx context.Context, name string, products []models.Product) error {
	if products == nil {
		products = []models.Product{}
	}
	data, err := json.Marshal(products)
	if err != nil {
		return apperrors.NewStore("redis", "failed to encode "+name, err)
	}
	if err := s.client.Set(ctx, s.key(name), data, 0).Err(); err != nil {
		return apperrors.NewStore("redis", "failed to save "+name, err)
	}
	return nil
}

// AppendLogs prepends entries and trims the log list to the cap
func (s *RedisStore) AppendLogs(ctx context.Context, entries []models.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return apperrors.NewStore("redis", "failed to encode log entry", err)
		}
		pipe.LPush(ctx, s.key("executionLogs"), data)
	}
	pipe.LTrim(ctx, s.key("executionLogs"), 0, models.MaxLogEntries-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.NewStore("redis", "failed to append logs", err)
	}
	return nil
}

// GetLogs returns the execution log, newest first
func (s *RedisStore) GetLogs(ctx context.Context) ([]models.LogEntry, error) {
	raw, err := s.client.LRange(ctx, s.key("executionLogs"), 0, models.MaxLogEntries-1).Result()
	if err != nil {
		return nil, apperrors.NewStore("redis", "failed to read logs", err)
	}

	logs := make([]models.LogEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.LogEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			// Skip corrupt entries rather than failing the whole read
			s.log.Warn().Err(err).Msg("Skipping corrupt execution log entry")
			continue
		}
		logs = append(logs, entry)
	}
	return logs, nil
}

// ClearLogs empties the execution log
func (s *RedisStore) ClearLogs(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key("executionLogs")).Err(); err != nil {
		return apperrors.NewStore("redis", "failed to clear logs", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
