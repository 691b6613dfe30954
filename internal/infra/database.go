package infra

import (
	"fmt"
	"strings"

	"github.com/cinsua/masirep-sub002/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every persisted entity in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Usuario{},
		&model.Ubicacion{},
		&model.Armario{},
		&model.Estanteria{},
		&model.Estante{},
		&model.Cajon{},
		&model.Division{},
		&model.Organizador{},
		&model.Cajoncito{},
		&model.Repuesto{},
		&model.Componente{},
		&model.Equipo{},
		&model.RepuestoEquipo{},
		&model.RepuestoUbicacion{},
		&model.ComponenteUbicacion{},
		&model.MovimientoStock{},
	}
}

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate and
// then the idempotent SQL patches GORM cannot express (CHECK constraints,
// partial unique indexes, foreign keys on the polymorphic location columns).
// TranslateError maps unique and FK violations to gorm.ErrDuplicatedKey and
// gorm.ErrForeignKeyViolated.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table and applies the schema patches.
// Integration tests call it directly on a container database.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

type patch struct{ descr, sql string }

// addConstraint wraps ALTER TABLE ... ADD CONSTRAINT in an existence guard.
// NOT VALID keeps legacy rows readable; every new or updated row is checked.
func addConstraint(tabla, nombre, definicion string) patch {
	return patch{
		descr: nombre,
		sql: fmt.Sprintf(`
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
    ALTER TABLE %s ADD CONSTRAINT %s %s NOT VALID;
  END IF;
END $$`, nombre, tabla, nombre, definicion),
	}
}

func createIndex(nombre, definicion string) patch {
	return patch{descr: nombre, sql: fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s %s`, nombre, definicion)}
}

// schemaPatches builds the DDL GORM tags cannot express.
func schemaPatches() []patch {
	var patches []patch

	// Cajón and Organizador: exactly one mueble parent, codes unique per parent.
	for _, tabla := range []string{model.TipoCajon.Tabla(), model.TipoOrganizador.Tabla()} {
		patches = append(patches,
			addConstraint(tabla, "chk_"+tabla+"_padre_unico", "CHECK (num_nonnulls(armario_id, estanteria_id) = 1)"),
			createIndex("idx_"+tabla+"_armario_codigo", fmt.Sprintf("ON %s (armario_id, codigo) WHERE armario_id IS NOT NULL", tabla)),
			createIndex("idx_"+tabla+"_estanteria_codigo", fmt.Sprintf("ON %s (estanteria_id, codigo) WHERE estanteria_id IS NOT NULL", tabla)),
		)
	}

	// repuesto_ubicaciones: exactly one of the six location columns, each a real FK.
	ru := model.ItemRepuesto.TablaAsignaciones()
	var cols []string
	for _, t := range model.TiposContenedor {
		if !t.AceptaItem(model.ItemRepuesto) {
			continue
		}
		cols = append(cols, t.ColumnaRef())
		patches = append(patches, addConstraint(ru, "fk_"+ru+"_"+string(t),
			fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(id) ON DELETE RESTRICT", t.ColumnaRef(), t.Tabla())))
	}
	patches = append(patches,
		addConstraint(ru, "chk_"+ru+"_ubicacion_unica", fmt.Sprintf("CHECK (num_nonnulls(%s) = 1)", strings.Join(cols, ", "))),
		addConstraint(ru, "chk_"+ru+"_cantidad", "CHECK (cantidad > 0)"),
		addConstraint(model.ItemComponente.TablaAsignaciones(), "chk_componente_ubicaciones_cantidad", "CHECK (cantidad > 0)"),
	)
	return patches
}

func applySchemaPatches(db *gorm.DB) error {
	for _, p := range schemaPatches() {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
