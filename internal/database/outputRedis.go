package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ds124wfegd/icongen/internal/entity"
	"github.com/redis/go-redis/v9"
)

const outputKeyPrefix = "icongen:output:"

func NewRedisOutputRepository(client redis.Cmdable) OutputRepository {
	return &redisOutputRepository{client: client}
}

func (r *redisOutputRepository) Save(ctx context.Context, output *entity.Output, ttl time.Duration) error {
	data, err := json.Marshal(output)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, outputKeyPrefix+output.Token, data, ttl).Err()
}

func (r *redisOutputRepository) Get(ctx context.Context, token string) (*entity.Output, error) {
	data, err := r.client.Get(ctx, outputKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, entity.ErrOutputNotFound
	}
	if err != nil {
		return nil, err
	}

	var output entity.Output
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, err
	}
	return &output, nil
}

func (r *redisOutputRepository) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, outputKeyPrefix+token).Err()
}
