package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles de usuario.
const (
	RolAdministrador = "administrador"
	RolTecnico       = "tecnico"
)

// Usuario is a workshop technician or an administrator. Technicians move
// stock and build the hierarchy; only administrators delete containers and
// manage users. Users are never hard-deleted: Activo=false blocks login.
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Rol          string `gorm:"type:varchar(20);not null"`
	Activo       bool   `gorm:"not null;default:true"`
	UltimoAcceso *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EsAdministrador reports whether u may manage users and delete containers.
func (u *Usuario) EsAdministrador() bool { return u.Rol == RolAdministrador }
