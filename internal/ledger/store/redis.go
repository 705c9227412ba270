package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"mastery/internal/ledger/models"
	id "mastery/pkg/domain"
	"mastery/pkg/platform/sentinel"
)

const defaultRedisPrefix = "mastery:ledger:"

// RedisStore keeps ledger state in Redis as plain key/value entries. Apply
// commits each batch in a single MULTI/EXEC, so a batch is either fully
// visible or not at all.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures the RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key, letting several ledgers share one Redis.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedis constructs a Redis-backed ledger store.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) configKey() string { return s.prefix + "config" }
func (s *RedisStore) nextIDKey() string { return s.prefix + "next_id" }
func (s *RedisStore) verificationKey(vid id.VerificationID) string {
	return s.prefix + "verification:" + vid.String()
}
func (s *RedisStore) indexKey(key models.UserCourseKey) string {
	return s.prefix + "index:" + string(key.User) + ":" + key.CourseID.String()
}
func (s *RedisStore) updateKey(vid id.VerificationID) string {
	return s.prefix + "update:" + vid.String()
}
func (s *RedisStore) certificateKey(vid id.VerificationID) string {
	return s.prefix + "certificate:" + vid.String()
}

func (s *RedisStore) LoadConfig(ctx context.Context) (*models.Config, error) {
	var cfg models.Config
	if err := s.getJSON(ctx, s.configKey(), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *RedisStore) NextID(ctx context.Context) (id.VerificationID, error) {
	raw, err := s.client.Get(ctx, s.nextIDKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("load next id: %w", err)
	}
	next, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse next id: %w", err)
	}
	return id.VerificationID(next), nil
}

func (s *RedisStore) FindVerification(ctx context.Context, vid id.VerificationID) (*models.Verification, error) {
	var v models.Verification
	if err := s.getJSON(ctx, s.verificationKey(vid), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *RedisStore) FindIDByUserCourse(ctx context.Context, user id.Principal, courseID id.CourseID) (id.VerificationID, error) {
	raw, err := s.client.Get(ctx, s.indexKey(models.UserCourseKey{User: user, CourseID: courseID})).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("find verification by user and course: %w", err)
	}
	vid, err := id.ParseVerificationID(raw)
	if err != nil {
		return 0, fmt.Errorf("parse indexed verification id: %w", err)
	}
	return vid, nil
}

func (s *RedisStore) FindUpdate(ctx context.Context, vid id.VerificationID) (*models.VerificationUpdate, error) {
	var u models.VerificationUpdate
	if err := s.getJSON(ctx, s.updateKey(vid), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *RedisStore) FindCertificate(ctx context.Context, vid id.VerificationID) (*models.Certificate, error) {
	var c models.Certificate
	if err := s.getJSON(ctx, s.certificateKey(vid), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Apply commits the batch with optimistic locking. Inside the WATCH it checks
// that next_id still precedes the batch's id and that no index, new
// verification or certificate key is already taken; a concurrent write to any
// watched key aborts the EXEC. Taken keys return sentinel.ErrConflict; a
// moved next_id or an aborted EXEC returns sentinel.ErrStale.
func (s *RedisStore) Apply(ctx context.Context, batch *models.Batch) error {
	created := batch.Created()
	watched := make([]string, 0, len(batch.Index)+len(created)+len(batch.Certificates)+1)
	watched = append(watched, s.nextIDKey())
	for key := range batch.Index {
		watched = append(watched, s.indexKey(key))
	}
	for _, vid := range created {
		watched = append(watched, s.verificationKey(vid))
	}
	for vid := range batch.Certificates {
		watched = append(watched, s.certificateKey(vid))
	}

	values, err := s.encodeBatch(batch)
	if err != nil {
		return err
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		if batch.NextID != nil {
			if err := s.checkNextID(ctx, tx, *batch.NextID); err != nil {
				return err
			}
		}
		for key, vid := range batch.Index {
			raw, err := tx.Get(ctx, s.indexKey(key)).Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return fmt.Errorf("check index: %w", err)
			}
			if raw != vid.String() {
				return sentinel.ErrConflict
			}
		}
		for _, vid := range created {
			if err := s.checkAbsent(ctx, tx, s.verificationKey(vid)); err != nil {
				return err
			}
		}
		for vid := range batch.Certificates {
			if err := s.checkAbsent(ctx, tx, s.certificateKey(vid)); err != nil {
				return err
			}
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for key, value := range values {
				pipe.Set(ctx, key, value, 0)
			}
			return nil
		})
		return err
	}, watched...)
	if errors.Is(err, redis.TxFailedErr) {
		return sentinel.ErrStale
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return err
		}
		return fmt.Errorf("apply batch: %w", err)
	}
	return nil
}

// checkNextID requires the stored counter to sit one below next, so a batch
// built from an older read cannot reuse an id.
func (s *RedisStore) checkNextID(ctx context.Context, tx *redis.Tx, next id.VerificationID) error {
	var current uint64
	raw, err := tx.Get(ctx, s.nextIDKey()).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return fmt.Errorf("check next id: %w", err)
	default:
		if current, err = strconv.ParseUint(raw, 10, 64); err != nil {
			return fmt.Errorf("parse next id: %w", err)
		}
	}
	if next == 0 || id.VerificationID(current) != next-1 {
		return sentinel.ErrStale
	}
	return nil
}

func (s *RedisStore) checkAbsent(ctx context.Context, tx *redis.Tx, key string) error {
	exists, err := tx.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check %s: %w", key, err)
	}
	if exists > 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisStore) encodeBatch(batch *models.Batch) (map[string]any, error) {
	values := make(map[string]any)
	put := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		values[key] = raw
		return nil
	}
	if batch.Config != nil {
		if err := put(s.configKey(), batch.Config); err != nil {
			return nil, err
		}
	}
	if batch.NextID != nil {
		values[s.nextIDKey()] = batch.NextID.String()
	}
	for vid, v := range batch.Verifications {
		if err := put(s.verificationKey(vid), v); err != nil {
			return nil, err
		}
	}
	for key, vid := range batch.Index {
		values[s.indexKey(key)] = vid.String()
	}
	for vid, u := range batch.Updates {
		if err := put(s.updateKey(vid), u); err != nil {
			return nil, err
		}
	}
	for vid, c := range batch.Certificates {
		if err := put(s.certificateKey(vid), c); err != nil {
			return nil, err
		}
	}
	return values, nil
}

func (s *RedisStore) getJSON(ctx context.Context, key string, dst any) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
