// cmd/seeduser creates or resets an administrador account.
// Uso: go run ./cmd/seeduser -username admin -password secreto
package main

import (
	"context"
	"flag"

	"github.com/cinsua/masirep-sub002/internal/config"
	"github.com/cinsua/masirep-sub002/internal/infra"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	username := flag.String("username", "admin", "nombre de usuario")
	password := flag.String("password", "masirep2026", "password en texto plano")
	nombre := flag.String("nombre", "Administrador", "nombre visible")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}

	// NewDatabase also migrates, so this works on an empty database.
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}

	result := db.WithContext(context.Background()).Exec(`
		INSERT INTO usuarios (username, nombre, password_hash, rol)
		VALUES (?, ?, ?, 'administrador')
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    nombre = EXCLUDED.nombre,
		    rol = EXCLUDED.rol,
		    activo = true
	`, *username, *nombre, string(hash))
	if result.Error != nil {
		log.Fatal().Err(result.Error).Msg("insert error")
	}
	log.Info().Str("username", *username).Msg("usuario administrador creado/actualizado")
}
