// Package cache keeps recently loaded boards in Redis.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/chepyr/go-task-board/internal/models"
)

type backend interface {
	List(ctx context.Context) ([]models.BoardSummary, error)
	Load(ctx context.Context, id string) (*models.Board, error)
	Insert(ctx context.Context, board *models.Board) error
	Replace(ctx context.Context, board *models.Board) (int64, error)
	Delete(ctx context.Context, id, owner string) (int64, error)
	Mutate(ctx context.Context, id string, fn func(*models.Board) error) error
}

// generationTTL bounds how long an idle board's generation counter lives.
const generationTTL = 24 * time.Hour

var errStaleLoad = errors.New("board written while loading")

// BoardCache serves Load from Redis and evicts a board whenever it is written.
// Redis failures never fail a call; the backing store is used instead.
//
// Every eviction bumps a per-board generation. Load notes the generation
// before reading the store and fills the cache only if it is unchanged.
type BoardCache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewBoardCache wraps base. A nil client or a zero TTL turns caching off.
func NewBoardCache(base backend, client *redis.Client, ttl time.Duration) *BoardCache {
	if base == nil {
		panic("cache.NewBoardCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &BoardCache{base: base, redis: client, ttl: ttl}
}

func (c *BoardCache) List(ctx context.Context) ([]models.BoardSummary, error) {
	return c.base.List(ctx)
}

func (c *BoardCache) Load(ctx context.Context, id string) (*models.Board, error) {
	if board, ok := c.loadFromCache(ctx, id); ok {
		return board, nil
	}
	gen, cacheable := c.generation(ctx, id)
	board, err := c.base.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if cacheable {
		c.store(ctx, board, gen)
	}
	return board, nil
}

func (c *BoardCache) Insert(ctx context.Context, board *models.Board) error {
	return c.base.Insert(ctx, board)
}

func (c *BoardCache) Replace(ctx context.Context, board *models.Board) (int64, error) {
	n, err := c.base.Replace(ctx, board)
	if err != nil {
		return 0, err
	}
	c.evict(ctx, board.ID)
	return n, nil
}

func (c *BoardCache) Delete(ctx context.Context, id, owner string) (int64, error) {
	n, err := c.base.Delete(ctx, id, owner)
	if err != nil {
		return 0, err
	}
	c.evict(ctx, id)
	return n, nil
}

// Mutate always goes to the backing store so the version check sees the
// latest document.
func (c *BoardCache) Mutate(ctx context.Context, id string, fn func(*models.Board) error) error {
	if err := c.base.Mutate(ctx, id, fn); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

func (c *BoardCache) loadFromCache(ctx context.Context, id string) (*models.Board, bool) {
	if c.redis == nil || c.ttl == 0 {
		return nil, false
	}
	data, err := c.redis.Get(ctx, boardCacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).WithField("board", id).Warn("board cache read failed")
			_ = c.redis.Del(ctx, boardCacheKey(id)).Err()
		}
		return nil, false
	}
	board := &models.Board{}
	if err := sonic.ConfigStd.Unmarshal(data, board); err != nil {
		_ = c.redis.Del(ctx, boardCacheKey(id)).Err()
		return nil, false
	}
	board.Normalize()
	return board, true
}

// generation returns the board's current generation. The second result is
// false when the cache is off or Redis cannot be read.
func (c *BoardCache) generation(ctx context.Context, id string) (int64, bool) {
	if c.redis == nil || c.ttl == 0 {
		return 0, false
	}
	gen, err := c.redis.Get(ctx, generationKey(id)).Int64()
	if err != nil && err != redis.Nil {
		log.WithError(err).WithField("board", id).Warn("board cache generation read failed")
		return 0, false
	}
	return gen, true
}

// store caches board unless its generation moved past gen.
func (c *BoardCache) store(ctx context.Context, board *models.Board, gen int64) {
	data, err := sonic.ConfigStd.Marshal(board)
	if err != nil {
		return
	}
	genKey := generationKey(board.ID)
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != gen {
			return errStaleLoad
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, boardCacheKey(board.ID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if err != nil && !errors.Is(err, errStaleLoad) && !errors.Is(err, redis.TxFailedErr) {
		log.WithError(err).WithField("board", board.ID).Warn("board cache write failed")
	}
}

func (c *BoardCache) evict(ctx context.Context, id string) {
	if c.redis == nil {
		return
	}
	genKey := generationKey(id)
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, boardCacheKey(id))
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("board", id).Warn("board cache eviction failed")
	}
}

func boardCacheKey(id string) string {
	return "board:" + id
}

func generationKey(id string) string {
	return "board-gen:" + id
}
