package catalog

import (
	"context"
	"fmt"
	"log"
	"time"

	"lms/models"
	"lms/models/course"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// Cached is a read-through redis cache in front of a Repository. Redis
// failures fall back to the database.
type Cached struct {
	repo *Repository
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCached(repo *Repository, rdb *redis.Client, ttl time.Duration) *Cached {
	return &Cached{repo: repo, rdb: rdb, ttl: ttl}
}

func (c *Cached) FindCourseByID(ctx context.Context, id uint) (*course.Course, error) {
	return readThrough(ctx, c, fmt.Sprintf("catalog:course:%d", id), func() (*course.Course, error) {
		return c.repo.FindCourseByID(ctx, id)
	})
}

func (c *Cached) FindModuleByID(ctx context.Context, id uint) (*course.Module, error) {
	return readThrough(ctx, c, fmt.Sprintf("catalog:module:%d", id), func() (*course.Module, error) {
		return c.repo.FindModuleByID(ctx, id)
	})
}

func (c *Cached) FindLessonByID(ctx context.Context, id uint) (*course.Lesson, error) {
	return readThrough(ctx, c, fmt.Sprintf("catalog:lesson:%d", id), func() (*course.Lesson, error) {
		return c.repo.FindLessonByID(ctx, id)
	})
}

// FindUserByID is not cached; user rows change outside this service.
func (c *Cached) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	return c.repo.FindUserByID(ctx, id)
}

func readThrough[T any](ctx context.Context, c *Cached, key string, load func() (*T, error)) (*T, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var v T
		if sonic.Unmarshal(val, &v) == nil {
			return &v, nil
		}
	} else if err != redis.Nil {
		log.Printf("[CACHE] redis get %s: %v", key, err)
	}

	v, err := load()
	if err != nil {
		return nil, err
	}

	if data, err := sonic.Marshal(v); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Printf("[CACHE] redis set %s: %v", key, err)
		}
	}
	return v, nil
}
