package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oozye1/florist-sub000/internal/domain"
	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

const keyPrefix = "cart:"

// saveIfVersionScript compares the stored cart's version against the
// caller's expectation before overwriting. Running it server-side makes the
// check-and-set atomic against concurrent tabs of the same session.
var saveIfVersionScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[1])
	if current then
		local decoded = cjson.decode(current)
		if decoded['version'] ~= tonumber(ARGV[2]) then
			return 0
		end
	elseif tonumber(ARGV[2]) ~= 0 then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
	return 1
`)

// CartRepository implements repository.CartRepository using Redis.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a new Redis-backed cart repository.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cart by session ID from Redis.
func (r *CartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	key := keyPrefix + sessionID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart", sessionID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	return &cart, nil
}

// Save persists a cart to Redis with the configured TTL.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	key := keyPrefix + cart.SessionID

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}

	return nil
}

// SaveIfVersion persists the cart only when the stored version still matches
// expected. The cart is saved with its version already bumped by the caller.
func (r *CartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expected int) error {
	key := keyPrefix + cart.SessionID

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	ok, err := saveIfVersionScript.Run(ctx, r.client,
		[]string{key}, data, expected, r.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("redis save cart: %w", err)
	}
	if ok == 0 {
		return apperrors.Conflict("cart was modified concurrently")
	}

	return nil
}

// Delete removes a cart from Redis by session ID. Deleting an absent cart is
// not an error.
func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	key := keyPrefix + sessionID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}

	return nil
}
