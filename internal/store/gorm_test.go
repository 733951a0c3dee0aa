package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/db"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/errs"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/model"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func newSQLiteStore(t *testing.T) Store {
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	// One connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gormDB))

	s := NewGormStore(gormDB, 100.0)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGormStore_Contract(t *testing.T) {
	runStoreContract(t, newSQLiteStore)
}

func TestGormStore_LoadStateFailureIsStorageError(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB, 100.0)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "device_states" WHERE device_id = $1 LIMIT $2`)).
		WithArgs("ESP32_A", 1).
		WillReturnError(errors.New("connection reset"))

	_, err := s.LoadState(context.Background(), "ESP32_A")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindStorage))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SaveStateUpserts(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB, 100.0)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "device_states"`)+`.*ON CONFLICT \("device_id"\) DO UPDATE SET`).
		WithArgs("ESP32_A", Any{}, 1, 98.5, 0.0, Any{}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.SaveState(context.Background(), model.DeviceState{
		DeviceID: "ESP32_A", LastDispenseTime: now, LastScentCode: 1, RemainingCapacity: 98.5,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ReadAndClearSkipsWhenAlreadyCleared(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB, 100.0)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "mailbox_entries" WHERE device_id = $1 LIMIT $2`)).
		WithArgs("ESP32_A", 1).
		WillReturnRows(sqlmock.NewRows([]string{"device_id", "pending_command", "pending_region", "updated_at"}).
			AddRow("ESP32_A", 2, "부산", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "mailbox_entries" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	code, region, err := s.ReadAndClearCommand(context.Background(), "ESP32_A")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "", region)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_WriteCommandFailureIsStorageError(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB, 100.0)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "mailbox_entries"`)).
		WillReturnError(errors.New("read-only transaction"))
	mock.ExpectRollback()

	err := s.WriteCommand(context.Background(), "ESP32_A", 2, "부산")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindStorage))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
