package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"assessment-engine/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// AssessmentLoader fetches assessment content from a backing store (e.g.
// Postgres).
type AssessmentLoader interface {
	LoadAssessment(ctx context.Context, id string) (domain.Assessment, error)
}

// AssessmentRepository caches the full assessment document as JSON in Redis
// and falls back to a loader on cache miss:
//
//	SET assessment:bank:{id} {json} EX ttl
//
// Heterogeneous answer shapes rule out a flat per-question hash, so the whole
// document is cached in one value.
type AssessmentRepository struct {
	client *redis.Client
	loader AssessmentLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewAssessmentRepository(client *redis.Client, loader AssessmentLoader, ttl time.Duration) *AssessmentRepository {
	return &AssessmentRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *AssessmentRepository) GetAssessment(ctx context.Context, id string) (domain.Assessment, error) {
	key := r.key(id)

	if a, ok := r.fromCache(ctx, key); ok {
		return a, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if a, ok := r.fromCache(ctx, key); ok {
			return a, nil
		}

		assessment, err := r.loader.LoadAssessment(ctx, id)
		if err != nil {
			return domain.Assessment{}, err
		}

		if data, err := json.Marshal(assessment); err == nil {
			// best-effort cache fill
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		return assessment, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

func (r *AssessmentRepository) fromCache(ctx context.Context, key string) (domain.Assessment, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Assessment{}, false
	}
	var a domain.Assessment
	if err := json.Unmarshal(data, &a); err != nil {
		return domain.Assessment{}, false
	}
	return a, true
}

func (r *AssessmentRepository) key(id string) string {
	return "assessment:bank:" + id
}

func (r *AssessmentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
