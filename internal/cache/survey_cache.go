package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"canvass/internal/model"
)

// SurveyCache keeps published survey documents hot in Redis so every answer
// submission does not re-read the schema from Mongo.
type SurveyCache interface {
	Set(ctx context.Context, survey *model.Survey) error
	Get(ctx context.Context, id string) (*model.Survey, error)
	Invalidate(ctx context.Context, id string) error
}

type surveyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSurveyCache(client *redis.Client) SurveyCache {
	return &surveyCache{
		client: client,
		ttl:    10 * time.Minute,
	}
}

func (c *surveyCache) Set(ctx context.Context, survey *model.Survey) error {
	data, err := json.Marshal(survey)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "survey:"+survey.ID, data, c.ttl).Err()
}

func (c *surveyCache) Get(ctx context.Context, id string) (*model.Survey, error) {
	data, err := c.client.Get(ctx, "survey:"+id).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var survey model.Survey
	if err := json.Unmarshal([]byte(data), &survey); err != nil {
		return nil, err
	}
	return &survey, nil
}

func (c *surveyCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, "survey:"+id).Err()
}
