package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"bazaar/pkg/domain"
	"bazaar/pkg/platform/sentinel"
)

// Redis keeps each member's cart as a set under cart:<memberID>. SADD/SREM
// give the same added/not-present signals as the in-memory store; PurgeItem
// walks the keyspace with SCAN so it never blocks the server the way KEYS
// would.
type Redis struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

func cartKey(memberID domain.MemberID) string {
	return "cart:" + memberID.String()
}

func (s *Redis) Add(ctx context.Context, memberID domain.MemberID, itemID domain.ItemID) (bool, error) {
	added, err := s.client.SAdd(ctx, cartKey(memberID), itemID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("cart add: %w", err)
	}
	return added == 1, nil
}

func (s *Redis) Remove(ctx context.Context, memberID domain.MemberID, itemID domain.ItemID) error {
	removed, err := s.client.SRem(ctx, cartKey(memberID), itemID.String()).Result()
	if err != nil {
		return fmt.Errorf("cart remove: %w", err)
	}
	if removed == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Redis) List(ctx context.Context, memberID domain.MemberID) ([]domain.ItemID, error) {
	raw, err := s.client.SMembers(ctx, cartKey(memberID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cart list: %w", err)
	}
	out := make([]domain.ItemID, 0, len(raw))
	for _, member := range raw {
		itemID, err := domain.ParseItemID(member)
		if err != nil {
			return nil, fmt.Errorf("cart list: bad member %q: %w", member, err)
		}
		out = append(out, itemID)
	}
	return out, nil
}

func (s *Redis) Clear(ctx context.Context, memberID domain.MemberID) error {
	if err := s.client.Del(ctx, cartKey(memberID)).Err(); err != nil {
		return fmt.Errorf("cart clear: %w", err)
	}
	return nil
}

func (s *Redis) PurgeItem(ctx context.Context, itemID domain.ItemID) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "cart:*", 100).Result()
		if err != nil {
			return fmt.Errorf("cart purge scan: %w", err)
		}
		for _, key := range keys {
			if err := s.client.SRem(ctx, key, itemID.String()).Err(); err != nil {
				return fmt.Errorf("cart purge: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
