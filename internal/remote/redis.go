package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/roach88/storecart/internal/cart"
)

// DefaultKeyPrefix namespaces remote cart hashes.
const DefaultKeyPrefix = "cart:"

// RedisMutator keeps the remote cart as a Redis hash named
// <prefix><cartID>, one field per product holding the JSON line.
type RedisMutator struct {
	client *redis.Client
	prefix string
}

// NewRedisMutator connects to addr, which is either a redis:// URL or a
// bare host[:port].
func NewRedisMutator(addr, prefix string) (*RedisMutator, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opts, err := redis.ParseURL(addr)
	if err != nil {
		if !strings.Contains(addr, ":") {
			addr += ":6379"
		}
		opts = &redis.Options{
			Addr:         addr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisMutator{client: redis.NewClient(opts), prefix: prefix}, nil
}

// Key returns the hash key holding cartID's lines.
func (r *RedisMutator) Key(cartID string) string {
	return r.prefix + cartID
}

// Ping checks connectivity.
func (r *RedisMutator) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Mutate applies m to the remote hash.
func (r *RedisMutator) Mutate(ctx context.Context, m Mutation) error {
	if m.CartID == "" {
		return fmt.Errorf("remote %s: missing cart id", m.Op)
	}
	key := r.Key(m.CartID)

	switch m.Op {
	case OpSet:
		line, err := json.Marshal(m.Line)
		if err != nil {
			return fmt.Errorf("encode line %s: %w", m.ProductID, err)
		}
		if err := r.client.HSet(ctx, key, m.ProductID, line).Err(); err != nil {
			return fmt.Errorf("redis HSet %s: %w", m.ProductID, err)
		}
	case OpRemove:
		if err := r.client.HDel(ctx, key, m.ProductID).Err(); err != nil {
			return fmt.Errorf("redis HDel %s: %w", m.ProductID, err)
		}
	case OpClear:
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis Del %s: %w", key, err)
		}
	default:
		return fmt.Errorf("unknown remote op %q", m.Op)
	}
	return nil
}

// Lines reads the remote cart, ordered by product id.
// Diagnostic only: nothing reconciles it with local state.
func (r *RedisMutator) Lines(ctx context.Context, cartID string) (cart.Cart, error) {
	fields, err := r.client.HGetAll(ctx, r.Key(cartID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGetAll: %w", err)
	}

	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	c := make(cart.Cart, 0, len(ids))
	for _, id := range ids {
		var item cart.Item
		if err := json.Unmarshal([]byte(fields[id]), &item); err != nil {
			return nil, fmt.Errorf("decode remote line %s: %w", id, err)
		}
		c = append(c, item)
	}
	return c, nil
}

// Close closes the client.
func (r *RedisMutator) Close() error {
	return r.client.Close()
}
