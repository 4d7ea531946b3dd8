// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// document.go caches the HTML conversion of generated documents. An
// execution's content never changes after creation, so entries are never
// invalidated and only expire.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	documentKeyPrefix = "document:"

	// DefaultDocumentTTL bounds memory use; a miss just re-renders.
	DefaultDocumentTTL = 24 * time.Hour
)

// DocumentCache stores rendered execution documents in Valkey.
type DocumentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDocumentCache creates a document cache backed by the given Valkey client.
func NewDocumentCache(client *redis.Client, ttl time.Duration) *DocumentCache {
	if ttl == 0 {
		ttl = DefaultDocumentTTL
	}
	return &DocumentCache{client: client, ttl: ttl}
}

// DocumentKey returns the Valkey key of an execution's cached HTML.
func DocumentKey(executionID uuid.UUID) string {
	return documentKeyPrefix + executionID.String()
}

// Get returns the cached HTML for an execution. Errors count as a miss.
func (dc *DocumentCache) Get(ctx context.Context, executionID uuid.UUID) ([]byte, bool) {
	val, err := dc.client.Get(ctx, DocumentKey(executionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("document cache get error", "execution_id", executionID, "error", err)
		return nil, false
	}
	slog.Debug("document cache hit", "execution_id", executionID)
	return val, true
}

// Set stores the HTML for an execution with the configured TTL.
func (dc *DocumentCache) Set(ctx context.Context, executionID uuid.UUID, html []byte) {
	if err := dc.client.Set(ctx, DocumentKey(executionID), html, dc.ttl).Err(); err != nil {
		slog.Warn("document cache set error", "execution_id", executionID, "error", err)
	}
}
