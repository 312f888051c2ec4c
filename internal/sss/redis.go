package sss

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore is the production Store backed by Redis — the standard
// real-world instance of the ordered-list + hash + set + pub/sub primitives
// spec §2.1 requires; see DESIGN.md for why this is an out-of-pack,
// explicitly justified dependency.
type redisStore struct {
	client *redis.Client
}

// NewRedisStore dials the SSS. addr/password/db come from config.Config.
func NewRedisStore(addr, password string, db int) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &redisStore{client: client}, nil
}

func (s *redisStore) ListPushTail(ctx context.Context, key, member string) error {
	return s.client.RPush(ctx, key, member).Err()
}

func (s *redisStore) ListRemoveAll(ctx context.Context, key, member string) error {
	return s.client.LRem(ctx, key, 0, member).Err()
}

func (s *redisStore) ListPopHead(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.LPop(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// HashSetPair writes both directions of a symmetric pair in a single
// pipeline round trip (spec §4.2, P1/P3).
func (s *redisStore) HashSetPair(ctx context.Context, key, fieldA, valA, fieldB, valB string) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fieldA, valA)
	pipe.HSet(ctx, key, fieldB, valB)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStore) HashGet(ctx context.Context, key, field string) (string, bool, error) {
	v, err := s.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *redisStore) HashDelPair(ctx context.Context, key, fieldA, fieldB string) error {
	return s.client.HDel(ctx, key, fieldA, fieldB).Err()
}

func (s *redisStore) SetAdd(ctx context.Context, key, member string) error {
	return s.client.SAdd(ctx, key, member).Err()
}

func (s *redisStore) SetRemove(ctx context.Context, key, member string) error {
	return s.client.SRem(ctx, key, member).Err()
}

func (s *redisStore) SetIsMember(ctx context.Context, key, member string) (bool, error) {
	return s.client.SIsMember(ctx, key, member).Result()
}

func (s *redisStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, key).Result()
}

func (s *redisStore) HashSetJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, 0).Err()
}

func (s *redisStore) HashGetJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, dest)
}

func (s *redisStore) HashDelete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *redisStore) ListPushTTL(ctx context.Context, key, member string, ttl time.Duration) (int, error) {
	pipe := s.client.TxPipeline()
	lenCmd := pipe.RPush(ctx, key, member)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(lenCmd.Val()), nil
}

func (s *redisStore) ListAll(ctx context.Context, key string) ([]string, error) {
	return s.client.LRange(ctx, key, 0, -1).Result()
}

func (s *redisStore) ListDelete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *redisStore) Publish(ctx context.Context, channel string, payload []byte) error {
	return s.client.Publish(ctx, channel, payload).Err()
}

type redisSubscription struct {
	ps  *redis.PubSub
	out chan []byte
	done chan struct{}
}

func (s *redisStore) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps := s.client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		return nil, err
	}
	sub := &redisSubscription{ps: ps, out: make(chan []byte, 64), done: make(chan struct{})}
	go sub.pump()
	return sub, nil
}

func (r *redisSubscription) pump() {
	defer close(r.out)
	ch := r.ps.Channel()
	for {
		select {
		case <-r.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			select {
			case r.out <- []byte(msg.Payload):
			case <-r.done:
				return
			}
		}
	}
}

func (r *redisSubscription) Channel() <-chan []byte { return r.out }

func (r *redisSubscription) Close() error {
	close(r.done)
	return r.ps.Close()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
