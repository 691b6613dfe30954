package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cinsua/masirep-sub002/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAlertas = "jobs:alertas_stock"

	JobAlertaStock  = "alerta_stock"
	JobReporteStock = "reporte_stock_bajo"

	maxIntentos = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes one job payload. A returned error re-queues the job until
// maxIntentos is reached, then it goes to the dead letter queue.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher enqueues async jobs into Redis lists; the pool dequeues them
// with BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueAlertaStock queues the email for an item that fell below its minimum.
func (d *Dispatcher) EnqueueAlertaStock(ctx context.Context, payload dto.AlertaStockPayload) error {
	return d.enqueue(ctx, QueueAlertas, JobAlertaStock, payload)
}

// EnqueueReporteStock queues the periodic low-stock PDF report.
func (d *Dispatcher) EnqueueReporteStock(ctx context.Context, items []dto.StockBajoResponse) error {
	return d.enqueue(ctx, QueueAlertas, JobReporteStock, items)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes QueueAlertas with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
	wg       sync.WaitGroup
}

func NewPool(rdb *redis.Client, handlers map[string]Handler) *Pool {
	return &Pool{rdb: rdb, handlers: handlers}
}

// Start launches numWorkers goroutines. Each blocks on BRPOP, so idle workers
// cost nothing. They stop when ctx is cancelled; Wait blocks until they have.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, QueueAlertas).Result()
			if err != nil || len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	if err := p.handle(ctx, job); err != nil {
		p.retryOrBury(ctx, queue, job, err)
	}
}

func (p *Pool) handle(ctx context.Context, job Job) error {
	h, ok := p.handlers[job.Type]
	if !ok {
		return fmt.Errorf("no handler for job type %q", job.Type)
	}
	log.Debug().Str("type", job.Type).Int("attempts", job.Attempts).Msg("processing job")
	return h(ctx, job.Payload)
}

func (p *Pool) retryOrBury(ctx context.Context, queue string, job Job, cause error) {
	job.Attempts++
	if job.Attempts >= maxIntentos {
		SendToDLQ(ctx, p.rdb, queue, job, cause.Error())
		return
	}
	log.Warn().Err(cause).Str("type", job.Type).Int("attempts", job.Attempts).Msg("job failed, re-queued")
	if err := push(ctx, p.rdb, queue, job); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("failed to re-queue job")
	}
}
