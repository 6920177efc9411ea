// Package publish announces finished acquisitions on redis
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/speters/tekvxi/pkg/config"
)

// KeepRecords is the length of the per source history list
const KeepRecords = 1000

// Record describes one acquisition written to disk
type Record struct {
	Instrument string    `json:"instrument"`
	Source     string    `json:"source"`
	File       string    `json:"file"`
	Points     int64     `json:"points"`
	Averages   int       `json:"averages"`
	Repeat     int       `json:"repeat"`
	Time       time.Time `json:"time"`
}

type Publisher struct {
	client  *redis.Client
	channel string
}

// NewPublisher connects to redis and checks the connection
func NewPublisher(ctx context.Context, cfg config.RedisConfig) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", cfg.Addr, err)
	}
	log.Debugf("Connected to redis at %s", cfg.Addr)
	return &Publisher{client: client, channel: cfg.Channel}, nil
}

// ListKey is the list holding the most recent records of source
func ListKey(source string) string {
	return fmt.Sprintf("tek:%s:acquisitions", source)
}

// Publish sends r on the channel and prepends it to the history list of its source
func (p *Publisher) Publish(ctx context.Context, r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("could not publish record: %w", err)
	}

	key := ListKey(r.Source)
	pipe := p.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, KeepRecords-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warnf("Could not store record in %s: %v", key, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
