package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/backend/local"
)

// Remove the lease for a token and return it
// KEYS[1] - lease key
// KEYS[2] - leases ZSET
// ARGV[1] - token
var releaseLeaseCmd = redis.NewScript(`
	local lease = redis.call("GET", KEYS[1])
	if not lease then
		return false
	end

	redis.call("DEL", KEYS[1])
	redis.call("ZREM", KEYS[2], ARGV[1])

	return lease
`)

// Remove and return all leases that expired
// KEYS[1] - leases ZSET
// ARGV[1] - current timestamp in unix milliseconds
// ARGV[2] - lease key prefix
var expiredLeasesCmd = redis.NewScript(`
	local res = {}
	local tokens = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
	for i = 1, #tokens do
		local key = ARGV[2] .. tokens[i]
		local lease = redis.call("GET", key)
		redis.call("ZREM", KEYS[1], tokens[i])

		if lease then
			redis.call("DEL", key)
			table.insert(res, lease)
		end
	end

	return res
`)

func (s *store) Lease(ctx context.Context, l *local.Lease) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshaling lease: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.keys.leaseKey(l.Token), data, 0)
		p.ZAdd(ctx, s.keys.leasesKey(), redis.Z{
			Score:  float64(l.ExpiresAt.UnixMilli()),
			Member: l.Token,
		})

		return nil
	})

	return err
}

func (s *store) Release(ctx context.Context, token string) (*local.Lease, error) {
	data, err := releaseLeaseCmd.Run(ctx, s.rdb, []string{s.keys.leaseKey(token), s.keys.leasesKey()}, token).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, backend.ErrUnknownTaskToken
		}

		return nil, fmt.Errorf("releasing lease: %w", err)
	}

	return unmarshalLease(data)
}

func (s *store) Expired(ctx context.Context, now time.Time) ([]*local.Lease, error) {
	res, err := expiredLeasesCmd.Run(ctx, s.rdb, []string{s.keys.leasesKey()},
		strconv.FormatInt(now.UnixMilli(), 10),
		s.keys.leaseKey(""),
	).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("removing expired leases: %w", err)
	}

	leases := make([]*local.Lease, 0, len(res))
	for _, data := range res {
		l, err := unmarshalLease(data)
		if err != nil {
			return nil, err
		}

		leases = append(leases, l)
	}

	return leases, nil
}

func unmarshalLease(data string) (*local.Lease, error) {
	var l local.Lease
	if err := json.Unmarshal([]byte(data), &l); err != nil {
		return nil, fmt.Errorf("unmarshaling lease: %w", err)
	}

	return &l, nil
}
