package testutil

import (
	"os"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	dbpkg "github.com/steelbound/forgetrace-backend/internal/db"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/platform/logger"
)

var (
	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB opens the shared test database: the Postgres named by TEST_POSTGRES_DSN
// when set, otherwise a shared in-memory sqlite so the suite runs without any
// infrastructure.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		cfg := &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		}

		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn != "" {
			db, dbErr = gorm.Open(postgres.Open(dsn), cfg)
			if dbErr != nil {
				return
			}
		} else {
			db, dbErr = gorm.Open(sqlite.Open("file::memory:?cache=shared"), cfg)
			if dbErr != nil {
				return
			}
			// sqlite has one writer; without a shared handle concurrent test
			// transactions would hit "database is locked" instead of queuing.
			sqlDB, err := db.DB()
			if err != nil {
				dbErr = err
				return
			}
			sqlDB.SetMaxOpenConns(1)
		}

		if err := autoMigrateAll(db); err != nil {
			dbErr = err
			return
		}
	})

	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func autoMigrateAll(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
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
	); err != nil {
		return err
	}
	return dbpkg.CreateLiveUniqueIndexes(gdb)
}
