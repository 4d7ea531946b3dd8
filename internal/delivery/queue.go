// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrQueueEmpty is returned by Pop when nothing arrived before the poll
// timeout.
var ErrQueueEmpty = errors.New("delivery queue empty")

// Queue carries execution IDs from the API to the worker.
type Queue interface {
	Enqueue(ctx context.Context, id uuid.UUID) error
	Pop(ctx context.Context) (uuid.UUID, error)
}

// RedisQueue is a Valkey list used as a FIFO: LPUSH to enqueue, BRPOP to
// consume.
type RedisQueue struct {
	rdb       *redis.Client
	name      string
	pollAfter time.Duration
}

// NewRedisQueue creates a queue on the named list.
func NewRedisQueue(rdb *redis.Client, name string) *RedisQueue {
	return &RedisQueue{rdb: rdb, name: name, pollAfter: 2 * time.Second}
}

// Enqueue appends id to the queue.
func (q *RedisQueue) Enqueue(ctx context.Context, id uuid.UUID) error {
	if err := q.rdb.LPush(ctx, q.name, id.String()).Err(); err != nil {
		return fmt.Errorf("enqueue delivery: %w", err)
	}
	return nil
}

// Pop blocks for up to the poll timeout waiting for the next ID. The short
// timeout lets consumers notice cancellation between polls.
func (q *RedisQueue) Pop(ctx context.Context) (uuid.UUID, error) {
	res, err := q.rdb.BRPop(ctx, q.pollAfter, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrQueueEmpty
	}
	if err != nil {
		return uuid.Nil, err
	}
	if len(res) < 2 {
		return uuid.Nil, ErrQueueEmpty
	}
	id, err := uuid.Parse(res[1])
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse queued id %q: %w", res[1], err)
	}
	return id, nil
}

// Len returns the number of queued IDs.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
