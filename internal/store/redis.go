package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/care-session/internal/config"
	"github.com/spec-kit/care-session/internal/domain"
)

// RedisStore keeps credentials in Redis so they survive process restarts.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis using the provided configuration.
func NewRedisStore(cfg config.RedisConfig, logger *zap.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &RedisStore{client: client, prefix: cfg.KeyPrefix}
}

// Load reads the credential triple. Missing keys yield empty Credentials.
func (s *RedisStore) Load(ctx context.Context) (domain.Credentials, error) {
	var creds domain.Credentials

	access, err := s.get(ctx, KeyAccessToken)
	if err != nil {
		return domain.Credentials{}, err
	}
	creds.AccessToken = access

	refresh, err := s.get(ctx, KeyRefreshToken)
	if err != nil {
		return domain.Credentials{}, err
	}
	creds.RefreshToken = refresh

	rawUser, err := s.get(ctx, KeyUser)
	if err != nil {
		return domain.Credentials{}, err
	}
	if rawUser != "" {
		var user domain.User
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			return domain.Credentials{}, fmt.Errorf("stored user record: %w", err)
		}
		creds.User = &user
	}

	return creds, nil
}

// Save overwrites the credential triple.
func (s *RedisStore) Save(ctx context.Context, creds domain.Credentials) error {
	if err := s.client.Set(ctx, s.key(KeyAccessToken), creds.AccessToken, 0).Err(); err != nil {
		return err
	}
	if creds.RefreshToken != "" {
		if err := s.client.Set(ctx, s.key(KeyRefreshToken), creds.RefreshToken, 0).Err(); err != nil {
			return err
		}
	} else if err := s.client.Del(ctx, s.key(KeyRefreshToken)).Err(); err != nil {
		return err
	}
	if creds.User != nil {
		raw, err := json.Marshal(creds.User)
		if err != nil {
			return err
		}
		if err := s.client.Set(ctx, s.key(KeyUser), raw, 0).Err(); err != nil {
			return err
		}
	} else if err := s.client.Del(ctx, s.key(KeyUser)).Err(); err != nil {
		return err
	}
	return nil
}

// Clear evicts the credential triple.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx,
		s.key(KeyAccessToken),
		s.key(KeyRefreshToken),
		s.key(KeyUser),
	).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() {
	if s != nil && s.client != nil {
		_ = s.client.Close()
	}
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("redis client not configured")
	}
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + ":" + name
}
