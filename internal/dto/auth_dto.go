package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// LoginRequest accepts the username or the email in Username.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=4"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CrearUsuarioRequest struct {
	Username string  `json:"username" validate:"required,min=1,max=150"`
	Nombre   string  `json:"nombre"   validate:"required,min=2,max=100"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Rol      string  `json:"rol"      validate:"required,oneof=tecnico administrador"`
}

// ActualizarUsuarioRequest changes only the fields that are set.
type ActualizarUsuarioRequest struct {
	Nombre   string  `json:"nombre"   validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Rol      string  `json:"rol"      validate:"omitempty,oneof=tecnico administrador"`
	Password string  `json:"password" validate:"omitempty,min=8"`
}

// UsuarioFiltro is the query of GET /v1/usuarios.
type UsuarioFiltro struct {
	IncluirInactivos bool `form:"incluir_inactivos"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UsuarioResponse struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Nombre       string     `json:"nombre"`
	Email        *string    `json:"email"`
	Rol          string     `json:"rol"`
	Activo       bool       `json:"activo"`
	UltimoAcceso *time.Time `json:"ultimo_acceso"`
}

// LoginResponse carries both tokens; ExpiresIn is the access token lifetime
// in seconds.
type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"`
	User         UsuarioResponse `json:"user"`
}
