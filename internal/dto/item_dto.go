package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearRepuestoRequest struct {
	Codigo      string  `json:"codigo"       validate:"required,min=1,max=50"`
	Nombre      string  `json:"nombre"       validate:"required,min=2,max=120"`
	Descripcion *string `json:"descripcion"  validate:"omitempty,max=500"`
	StockMinimo int     `json:"stock_minimo" validate:"min=0"`
}

type ActualizarRepuestoRequest struct {
	Nombre      *string `json:"nombre"       validate:"omitempty,min=2,max=120"`
	Descripcion *string `json:"descripcion"  validate:"omitempty,max=500"`
	StockMinimo *int    `json:"stock_minimo" validate:"omitempty,min=0"`
	Activo      *bool   `json:"activo"`
}

type CrearComponenteRequest struct {
	Categoria   string `json:"categoria"    validate:"required,oneof=RESISTENCIA CAPACITOR INTEGRADO VENTILADOR OTROS"`
	Descripcion string `json:"descripcion"  validate:"required,min=1,max=200"`
	StockMinimo int    `json:"stock_minimo" validate:"min=0"`
}

type ActualizarComponenteRequest struct {
	Descripcion *string `json:"descripcion"  validate:"omitempty,min=1,max=200"`
	StockMinimo *int    `json:"stock_minimo" validate:"omitempty,min=0"`
	Activo      *bool   `json:"activo"`
}

type CrearEquipoRequest struct {
	Codigo string `json:"codigo" validate:"required,min=1,max=50"`
	Nombre string `json:"nombre" validate:"required,min=2,max=120"`
}

// AsignarUbicacionRequest places a quantity of an item in exactly one container.
type AsignarUbicacionRequest struct {
	Cantidad     int     `json:"cantidad"      validate:"required,min=1"`
	ArmarioID    *string `json:"armario_id"    validate:"omitempty,uuid"`
	EstanteriaID *string `json:"estanteria_id" validate:"omitempty,uuid"`
	EstanteID    *string `json:"estante_id"    validate:"omitempty,uuid"`
	CajonID      *string `json:"cajon_id"      validate:"omitempty,uuid"`
	DivisionID   *string `json:"division_id"   validate:"omitempty,uuid"`
	CajoncitoID  *string `json:"cajoncito_id"  validate:"omitempty,uuid"`
}

type ActualizarCantidadRequest struct {
	Cantidad int `json:"cantidad" validate:"required,min=1"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RepuestoResponse struct {
	ID          string  `json:"id"`
	Codigo      string  `json:"codigo"`
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	StockMinimo int     `json:"stock_minimo"`
	Activo      bool    `json:"activo"`
}

type ComponenteResponse struct {
	ID          string `json:"id"`
	Categoria   string `json:"categoria"`
	Descripcion string `json:"descripcion"`
	StockMinimo int    `json:"stock_minimo"`
	Activo      bool   `json:"activo"`
}

type EquipoResponse struct {
	ID     string `json:"id"`
	Codigo string `json:"codigo"`
	Nombre string `json:"nombre"`
	Activo bool   `json:"activo"`
}

type AsignacionResponse struct {
	ID          string      `json:"id"`
	ItemTipo    string      `json:"item_tipo"`
	ItemID      string      `json:"item_id"`
	Cantidad    int         `json:"cantidad"`
	Ubicacion   RefResponse `json:"ubicacion"`
	StockActual int         `json:"stock_actual"`
	// Advertencia is set on malformed rows, which do not count towards
	// StockActual.
	Advertencia string `json:"advertencia,omitempty"`
}
