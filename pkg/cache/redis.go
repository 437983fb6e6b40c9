package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"civiclearn/internal/models"
)

const contentTTL = 24 * time.Hour

// RedisCache is a read-through cache in front of published content. All
// methods are safe to call on a nil receiver so services can run without a
// cache (tests do).
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisCache(addr string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{
		client: client,
		ctx:    context.Background(),
	}
}

func (c *RedisCache) SetModule(module *models.LearningModule) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(module)
	if err != nil {
		return err
	}
	key := "module:" + module.Slug
	return c.client.Set(c.ctx, key, data, contentTTL).Err()
}

func (c *RedisCache) GetModule(slug string) (*models.LearningModule, error) {
	if c == nil {
		return nil, redis.Nil
	}
	data, err := c.client.Get(c.ctx, "module:"+slug).Bytes()
	if err != nil {
		return nil, err
	}
	var module models.LearningModule
	err = json.Unmarshal(data, &module)
	return &module, err
}

func (c *RedisCache) InvalidateModule(slug string) error {
	if c == nil {
		return nil
	}
	return c.client.Del(c.ctx, "module:"+slug).Err()
}

func (c *RedisCache) SetQuiz(quiz *models.Quiz) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("quiz:%d", quiz.ID)
	return c.client.Set(c.ctx, key, data, contentTTL).Err()
}

func (c *RedisCache) GetQuiz(quizID uint) (*models.Quiz, error) {
	if c == nil {
		return nil, redis.Nil
	}
	data, err := c.client.Get(c.ctx, fmt.Sprintf("quiz:%d", quizID)).Bytes()
	if err != nil {
		return nil, err
	}
	var quiz models.Quiz
	err = json.Unmarshal(data, &quiz)
	return &quiz, err
}

func (c *RedisCache) InvalidateQuiz(quizID uint) error {
	if c == nil {
		return nil
	}
	return c.client.Del(c.ctx, fmt.Sprintf("quiz:%d", quizID)).Err()
}
