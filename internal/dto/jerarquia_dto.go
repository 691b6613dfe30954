package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CrearContenedorRequest is shared by every container kind. Exactly one of the
// parent id fields accepted by the kind must be set; Ubicaciones take none.
// Codigo is optional: when empty the next sequential code is generated.
type CrearContenedorRequest struct {
	Codigo        *string `json:"codigo"         validate:"omitempty,min=1,max=30"`
	Nombre        string  `json:"nombre"         validate:"required,min=1,max=120"`
	Descripcion   *string `json:"descripcion"    validate:"omitempty,max=500"`
	UbicacionID   *string `json:"ubicacion_id"   validate:"omitempty,uuid"`
	ArmarioID     *string `json:"armario_id"     validate:"omitempty,uuid"`
	EstanteriaID  *string `json:"estanteria_id"  validate:"omitempty,uuid"`
	CajonID       *string `json:"cajon_id"       validate:"omitempty,uuid"`
	OrganizadorID *string `json:"organizador_id" validate:"omitempty,uuid"`
}

// SiguienteCodigoQuery selects the scope for GET /v1/codigos/siguiente.
type SiguienteCodigoQuery struct {
	Tipo      string `form:"tipo"       validate:"required"`
	PadreTipo string `form:"padre_tipo"`
	PadreID   string `form:"padre_id"   validate:"omitempty,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RefResponse struct {
	Tipo string `json:"tipo"`
	ID   string `json:"id"`
}

type ContenedorResponse struct {
	ID          string       `json:"id"`
	Tipo        string       `json:"tipo"`
	Codigo      string       `json:"codigo"`
	Nombre      string       `json:"nombre"`
	Descripcion *string      `json:"descripcion,omitempty"`
	Padre       *RefResponse `json:"padre"`
	Ruta        string       `json:"ruta,omitempty"`
}

type SiguienteCodigoResponse struct {
	Codigo string `json:"codigo"`
}

type EliminableResponse struct {
	Eliminable bool             `json:"eliminable"`
	Conteos    map[string]int64 `json:"conteos"`
}

type RutaResponse struct {
	Ruta string `json:"ruta"`
}
