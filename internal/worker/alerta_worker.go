package worker

// alerta_worker.go sends low-stock emails: one per item crossing below its
// minimum, and the periodic report with the PDF attached. Every send goes
// through the SMTP circuit breaker.

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cinsua/masirep-sub002/internal/dto"
	"github.com/cinsua/masirep-sub002/internal/infra"

	"github.com/rs/zerolog/log"
)

// Sender is the mail transport; *infra.Mailer implements it.
type Sender interface {
	SendAlerta(to []string, subject, body, adjunto string) error
}

type AlertaWorker struct {
	sender        Sender
	cb            *infra.CircuitBreaker
	destinatarios []string
	pdfDir        string
	now           func() time.Time
}

// NewAlertaWorker builds the worker. destinatarios is a comma separated list.
func NewAlertaWorker(sender Sender, cb *infra.CircuitBreaker, destinatarios, pdfDir string) *AlertaWorker {
	var to []string
	for _, d := range strings.Split(destinatarios, ",") {
		if d = strings.TrimSpace(d); d != "" {
			to = append(to, d)
		}
	}
	return &AlertaWorker{sender: sender, cb: cb, destinatarios: to, pdfDir: pdfDir, now: time.Now}
}

// Handlers maps job types to this worker's methods, for NewPool.
func (w *AlertaWorker) Handlers() map[string]Handler {
	return map[string]Handler{
		JobAlertaStock:  w.ProcessAlerta,
		JobReporteStock: w.ProcessReporte,
	}
}

func (w *AlertaWorker) ProcessAlerta(_ context.Context, raw json.RawMessage) error {
	var p dto.AlertaStockPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error().Err(err).Msg("alerta_worker: invalid payload")
		return nil
	}
	if len(w.destinatarios) == 0 {
		log.Warn().Str("item_id", p.ItemID).Msg("alerta_worker: sin destinatarios, alerta descartada")
		return nil
	}

	subject := fmt.Sprintf("Stock bajo: %s", p.Codigo)
	body := fmt.Sprintf(
		"El %s %s (%s) quedo con %d unidades; el minimo es %d.\nUltimo movimiento en: %s\n",
		p.ItemTipo, p.Codigo, p.Nombre, p.StockActual, p.StockMinimo, p.Ubicacion,
	)
	if err := w.send(subject, body, ""); err != nil {
		return err
	}
	log.Info().Str("item_id", p.ItemID).Msg("alerta_worker: alerta enviada")
	return nil
}

func (w *AlertaWorker) ProcessReporte(_ context.Context, raw json.RawMessage) error {
	var items []dto.StockBajoResponse
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Error().Err(err).Msg("alerta_worker: invalid report payload")
		return nil
	}
	if len(w.destinatarios) == 0 || len(items) == 0 {
		return nil
	}

	if err := os.MkdirAll(w.pdfDir, 0o755); err != nil {
		return fmt.Errorf("alerta_worker: create pdf dir: %w", err)
	}
	ahora := w.now()
	path := filepath.Join(w.pdfDir, fmt.Sprintf("stock_bajo_%s.pdf", ahora.Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("alerta_worker: create pdf: %w", err)
	}
	if err := infra.GenerarReporteStockBajo(f, items, ahora); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	subject := fmt.Sprintf("Reporte de stock bajo (%d items)", len(items))
	body := "Se adjunta el listado de items por debajo del stock minimo.\n"
	return w.send(subject, body, path)
}

func (w *AlertaWorker) send(subject, body, adjunto string) error {
	return w.cb.Execute(func() error {
		return w.sender.SendAlerta(w.destinatarios, subject, body, adjunto)
	})
}
