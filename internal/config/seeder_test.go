package config

import (
	"testing"

	"cmms-engine/internal/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestSeeder_SkipsPopulatedTables(t *testing.T) {
	db, mock := newMockDB(t)
	for _, table := range []string{"assets", "users", "parts"} {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `" + table + "`").
			WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(3))
	}

	require.NoError(t, NewSeeder(db, logger.Discard()).Run())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeeder_FillsEmptyTables(t *testing.T) {
	db, mock := newMockDB(t)
	for _, table := range []string{"assets", "users", "parts"} {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `" + table + "`").
			WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
		mock.ExpectExec("INSERT INTO `" + table + "`").
			WillReturnResult(sqlmock.NewResult(0, 3))
	}

	require.NoError(t, NewSeeder(db, logger.Discard()).Run())
	assert.NoError(t, mock.ExpectationsWereMet())
}
