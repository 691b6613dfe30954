package worker

// dlq.go: alert jobs that keep failing (SMTP down for longer than the retries
// last) are parked in dlq:{queue}. An administrator replays them once the
// relay is back.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DLQPrefix = "dlq:"
	// maxDLQ bounds the parked list; the oldest entries fall off.
	maxDLQ = 1000
)

// DLQEntry keeps a failed job with the reason of its last failure.
type DLQEntry struct {
	Cola      string    `json:"cola"`
	Job       Job       `json:"job"`
	Motivo    string    `json:"motivo"`
	FallidoEn time.Time `json:"fallido_en"`
}

// SendToDLQ parks job in the dead letter list of queue.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, motivo string) {
	data, err := json.Marshal(DLQEntry{Cola: queue, Job: job, Motivo: motivo, FallidoEn: time.Now().UTC()})
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: marshal entry")
		return
	}

	key := DLQPrefix + queue
	pipe := rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, maxDLQ-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error().Err(err).Str("dlq_key", key).Msg("dlq: push")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_type", job.Type).
		Str("motivo", motivo).
		Int("attempts", job.Attempts).
		Msg("dlq: job parked")
}

// DLQLength returns the number of parked jobs, reported by /health.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// ReencolarDLQ moves every parked job back to queue with its attempt count
// reset, oldest first, and returns how many were moved. Entries that no
// longer decode are dropped.
func ReencolarDLQ(ctx context.Context, rdb *redis.Client, queue string) (int, error) {
	key := DLQPrefix + queue
	movidos := 0
	for {
		raw, err := rdb.RPop(ctx, key).Result()
		if err == redis.Nil {
			return movidos, nil
		}
		if err != nil {
			return movidos, err
		}
		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Str("dlq_key", key).Msg("dlq: entrada ilegible descartada")
			continue
		}
		entry.Job.Attempts = 0
		if err := push(ctx, rdb, queue, entry.Job); err != nil {
			// Put it back so nothing is lost.
			_ = rdb.RPush(ctx, key, raw).Err()
			return movidos, err
		}
		movidos++
	}
}
