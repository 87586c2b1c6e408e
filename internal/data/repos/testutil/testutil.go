// Package testutil opens a throwaway database handle for repo integration
// tests. Tests are skipped unless TEST_POSTGRES_DSN points at a database the
// suite may migrate; every test runs inside a transaction that is rolled
// back, so the database stays clean between runs.
package testutil

import (
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/codingswamp/codingswamp-backend/internal/domain/member"
	"github.com/codingswamp/codingswamp-backend/internal/domain/study"
	"github.com/codingswamp/codingswamp-backend/internal/platform/logger"
)

func Logger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init failed: %v", err)
	}
	return log
}

// DB connects and migrates, or skips the test when no DSN is configured.
func DB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping database integration test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		t.Fatalf("create uuid extension: %v", err)
	}
	if err := db.AutoMigrate(
		&member.Member{},
		&study.Study{},
		&study.Participant{},
		&study.Applicant{},
		&study.Tag{},
		&study.Review{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// Tx hands the test a transaction that always rolls back.
func Tx(t *testing.T) *gorm.DB {
	t.Helper()
	tx := DB(t).Begin()
	if tx.Error != nil {
		t.Fatalf("begin test transaction: %v", tx.Error)
	}
	t.Cleanup(func() { tx.Rollback() })
	return tx
}
