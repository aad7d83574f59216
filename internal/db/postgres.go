package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/envutil"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := envutil.String("POSTGRES_HOST", "localhost")
	postgresPort := envutil.String("POSTGRES_PORT", "5432")
	postgresUser := envutil.String("POSTGRES_USER", "postgres")
	postgresPassword := envutil.String("POSTGRES_PASSWORD", "")
	postgresName := envutil.String("POSTGRES_NAME", "forgetrace")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Tenant{},
		&types.Item{},
		&types.Buyer{},
		&types.Transporter{},

		&types.RawMaterial{},
		&types.RawMaterialHeat{},

		&types.WorkflowTemplate{},
		&types.WorkflowTemplateStep{},
		&types.ItemWorkflow{},
		&types.ItemWorkflowStep{},

		&types.Forge{},
		&types.ProcessedItem{},
		&types.PieceClaim{},
		&types.HeatTreatmentBatch{},
		&types.MachiningBatch{},
		&types.InspectionBatch{},
		&types.DispatchBatch{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	if err := CreateLiveUniqueIndexes(s.db); err != nil {
		s.log.Error("Failed to create live-row unique indexes", "error", err)
		return err
	}
	return nil
}

// liveUniqueIndexes enforce per-tenant uniqueness over live rows only, so a
// soft-deleted row frees its key for reuse. Their WHERE predicates cannot be
// expressed as gorm struct tags; a NULL deleted_at column inside a composite
// unique index never collides, so the indexes must be partial. The workflow
// identity index additionally lets a cancelled workflow free its slot.
var liveUniqueIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tenant_code ON tenant (code) WHERE deleted_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_item_code ON item (tenant_id, code) WHERE deleted_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_heat_number ON raw_material_heat (tenant_id, heat_number) WHERE deleted_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_wf_template_name ON workflow_template (tenant_id, name) WHERE deleted_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_processed_item_forge ON processed_item (forge_id) WHERE deleted_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_item_workflow_identity ON item_workflow (tenant_id, item_id, workflow_identifier) WHERE deleted_at IS NULL AND status <> 'CANCELLED'`,
}

// CreateLiveUniqueIndexes builds the partial unique indexes after AutoMigrate.
// The statements run on Postgres and on the sqlite test database unchanged.
func CreateLiveUniqueIndexes(gdb *gorm.DB) error {
	for _, stmt := range liveUniqueIndexes {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create live unique index: %w", err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
