package infra

import (
	"fmt"

	"lojahub/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate,
// then applies the idempotent SQL patches GORM cannot express (partial
// indexes used by the job claim and numbering queries).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
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

// RunMigrations creates/updates the schema. Also used by the integration
// test suite against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Empresa{},
		&model.Pedido{},
		&model.PedidoItem{},
		&model.Produto{},
		&model.VinculoProduto{},
		&model.NotaFiscal{},
		&model.InventoryJob{},
		&model.Deposito{},
		&model.EstoqueSaldo{},
		&model.MovimentoEstoque{},
		&model.CenarioFiscal{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Partial index backing the worker's ready-job scan:
		// pending jobs plus failed jobs whose backoff elapsed.
		`CREATE INDEX IF NOT EXISTS idx_inventory_jobs_ready
		    ON inventory_jobs (next_attempt_at)
		    WHERE status IN ('pending', 'failed')`,
		// One live (pendente/autorizado) number per empresa+serie+ambiente.
		// The reservation transaction already serializes allocation; this
		// index turns a double allocation into a hard constraint violation.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_notas_numero_vivo
		    ON notas_fiscais (empresa_id, serie, ambiente, numero)
		    WHERE status IN ('pendente', 'autorizado')`,
		// At most one authorized document per empresa+pedido+ambiente.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_notas_autorizada_unica
		    ON notas_fiscais (empresa_id, pedido_id, ambiente)
		    WHERE status = 'autorizado'`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
