package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCacheWarmup pre-populates resource caches with common queries.
	TaskCacheWarmup = "cache:warmup"
	// TaskCacheSweep evicts entries that outlived their TTL.
	TaskCacheSweep = "cache:sweep"
)

// CacheWarmupPayload selects which resources the warmup pass should touch.
// An empty payload warms everything.
type CacheWarmupPayload struct {
	Resources []string `json:"resources,omitempty"`
	Statuses  []string `json:"statuses,omitempty"`
}

// NewCacheWarmupTask constructs an Asynq task for cache warmup.
func NewCacheWarmupTask(payload CacheWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCacheWarmup, data), nil
}

// NewCacheSweepTask constructs an Asynq task for cache sweeping.
func NewCacheSweepTask() *asynq.Task {
	return asynq.NewTask(TaskCacheSweep, nil)
}
