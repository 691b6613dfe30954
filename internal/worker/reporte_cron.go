package worker

// reporte_cron.go recomputes every item's stock on a fixed interval and, when
// something is below its minimum, queues the PDF report for the alert worker.

import (
	"context"
	"time"

	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/service"

	"github.com/rs/zerolog/log"
)

// ReporteEncolador is satisfied by *Dispatcher.
type ReporteEncolador interface {
	EnqueueReporteStock(ctx context.Context, items []dto.StockBajoResponse) error
}

type ReporteCronConfig struct {
	Stock      service.StockService
	Dispatcher ReporteEncolador
	Intervalo  time.Duration
}

// StartReporteCron launches the background loop; a zero interval disables it.
// It stops when ctx is cancelled.
func StartReporteCron(ctx context.Context, cfg ReporteCronConfig) {
	if cfg.Intervalo <= 0 {
		log.Info().Msg("reporte_cron: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.Intervalo)
		defer ticker.Stop()
		log.Info().Dur("intervalo", cfg.Intervalo).Msg("reporte_cron: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reporte_cron: shutting down")
				return
			case <-ticker.C:
				if err := generarReporte(ctx, cfg); err != nil {
					log.Error().Err(err).Msg("reporte_cron: tick failed")
				}
			}
		}
	}()
}

func generarReporte(ctx context.Context, cfg ReporteCronConfig) error {
	items, err := cfg.Stock.StockBajo(ctx, dto.StockOptions{})
	if err != nil {
		return err
	}
	log.Info().Int("stock_bajo", len(items)).Msg("reporte_cron: stock recalculado")
	if len(items) == 0 {
		return nil
	}
	return cfg.Dispatcher.EnqueueReporteStock(ctx, items)
}
