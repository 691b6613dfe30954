package dto

import "github.com/shopspring/decimal"

// StockOptions tunes the aggregation. Inactive items are invisible unless
// IncluirInactivos is set; non-positive rows are skipped unless IncluirCeros is.
// SinCache reads the associations directly and leaves the cache untouched;
// stock movements are always snapshotted that way.
type StockOptions struct {
	IncluirInactivos bool `form:"incluir_inactivos" json:"incluir_inactivos"`
	IncluirCeros     bool `form:"incluir_ceros"     json:"incluir_ceros"`
	SinCache         bool `form:"-"                 json:"-"`
}

type RecalcularStockRequest struct {
	Tipo string `json:"tipo" validate:"omitempty,oneof=repuesto componente"`
	StockOptions
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// UbicacionStock is one contributing association with its resolved path.
type UbicacionStock struct {
	AsignacionID string `json:"asignacion_id"`
	Tipo         string `json:"tipo"`
	UbicacionID  string `json:"ubicacion_id"`
	Codigo       string `json:"codigo"`
	Ruta         string `json:"ruta"`
	Cantidad     int    `json:"cantidad"`
}

// AdvertenciaStock reports an association skipped for data-quality reasons.
type AdvertenciaStock struct {
	AsignacionID string `json:"asignacion_id"`
	Motivo       string `json:"motivo"`
}

type StockResponse struct {
	ItemTipo     string             `json:"item_tipo"`
	ItemID       string             `json:"item_id"`
	Codigo       string             `json:"codigo"`
	Nombre       string             `json:"nombre"`
	Activo       bool               `json:"activo"`
	StockActual  int                `json:"stock_actual"`
	StockMinimo  int                `json:"stock_minimo"`
	StockBajo    bool               `json:"stock_bajo"`
	Desglose     []UbicacionStock   `json:"desglose"`
	Advertencias []AdvertenciaStock `json:"advertencias,omitempty"`
}

type ResumenTipo struct {
	Total     int `json:"total"`
	StockBajo int `json:"stock_bajo"`
}

type ErrorItem struct {
	ItemTipo string `json:"item_tipo"`
	ItemID   string `json:"item_id"`
	Detalle  string `json:"detalle"`
}

type RecalculoResponse struct {
	Items   []StockResponse        `json:"items"`
	Resumen map[string]ResumenTipo `json:"resumen"`
	Errores []ErrorItem            `json:"errores,omitempty"`
}

// StockBajoResponse adds reorder figures to a low-stock item.
type StockBajoResponse struct {
	StockResponse
	Faltante int `json:"faltante"`
	// Cobertura is stock_actual / stock_minimo as a percentage.
	Cobertura decimal.Decimal `json:"cobertura_pct"`
}

type MovimientoResponse struct {
	ID            string  `json:"id"`
	ItemTipo      string  `json:"item_tipo"`
	ItemID        string  `json:"item_id"`
	AsignacionID  string  `json:"asignacion_id"`
	Tipo          string  `json:"tipo"`
	Cantidad      int     `json:"cantidad"`
	StockAnterior int     `json:"stock_anterior"`
	StockNuevo    int     `json:"stock_nuevo"`
	Ubicacion     string  `json:"ubicacion"`
	UsuarioID     *string `json:"usuario_id"`
	CreatedAt     string  `json:"created_at"`
}

type MovimientoListResponse struct {
	Data  []MovimientoResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

// MovimientoFilter is the query of GET /v1/movimientos. Desde and Hasta are
// dates (2006-01-02); Hasta is inclusive.
type MovimientoFilter struct {
	ItemTipo     string `form:"item_tipo"     validate:"omitempty,oneof=repuesto componente"`
	ItemID       string `form:"item_id"       validate:"omitempty,uuid"`
	AsignacionID string `form:"asignacion_id" validate:"omitempty,uuid"`
	Tipo         string `form:"tipo"          validate:"omitempty,oneof=asignacion ajuste retiro"`
	Desde        string `form:"desde"         validate:"omitempty,datetime=2006-01-02"`
	Hasta        string `form:"hasta"         validate:"omitempty,datetime=2006-01-02"`
	Page         int    `form:"page,default=1"    validate:"min=1"`
	Limit        int    `form:"limit,default=50"  validate:"min=1,max=500"`
}

// AlertaStockPayload is the job sent to the alert queue when an item drops
// below its minimum.
type AlertaStockPayload struct {
	ItemTipo    string `json:"item_tipo"`
	ItemID      string `json:"item_id"`
	Codigo      string `json:"codigo"`
	Nombre      string `json:"nombre"`
	StockActual int    `json:"stock_actual"`
	StockMinimo int    `json:"stock_minimo"`
	Ubicacion   string `json:"ubicacion"`
}
