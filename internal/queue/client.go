package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/speechgate/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(RedisOpt(cfg)),
	}
}

// RedisOpt converts the shared Redis settings for asynq.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueAudioSweep schedules a sweep. While one is pending or running
// for uniqueFor, further calls are no-ops.
func (c *Client) EnqueueAudioSweep(payload AudioSweepPayload, uniqueFor time.Duration) error {
	if uniqueFor < time.Second {
		uniqueFor = time.Second
	}
	err := c.enqueue(TypeAudioSweep, payload, asynq.Queue(QueueMaintenance), asynq.MaxRetry(0), asynq.Timeout(5*time.Minute), asynq.Unique(uniqueFor))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}

// SweepTrigger hands sweeps to the worker process instead of running them
// in the API process.
type SweepTrigger struct {
	client    *Client
	payload   AudioSweepPayload
	uniqueFor time.Duration
}

func NewSweepTrigger(client *Client, dir string, maxAge, uniqueFor time.Duration) *SweepTrigger {
	return &SweepTrigger{
		client:    client,
		payload:   AudioSweepPayload{Dir: dir, MaxAgeSeconds: int64(maxAge / time.Second)},
		uniqueFor: uniqueFor,
	}
}

func (t *SweepTrigger) Trigger() {
	go func() {
		if err := t.client.EnqueueAudioSweep(t.payload, t.uniqueFor); err != nil {
			slog.Warn("failed to enqueue audio sweep", "error", err)
		}
	}()
}
