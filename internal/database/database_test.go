package database

import (
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/daily-reflections/core/internal/models"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"mysql 1062", &mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"mysql other", &mysqldriver.MySQLError{Number: 1045}, false},
		{"sqlite", errors.New("UNIQUE constraint failed: diary_entries.user_id, diary_entries.date"), true},
		{"postgres", errors.New(`ERROR: duplicate key value violates unique constraint "uidx_user_date" (SQLSTATE 23505)`), true},
		{"other", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicateKey(tt.err))
		})
	}
}

func TestMySQLDuplicateTranslated(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `diary_entries`")).
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry 'u1-2024-05-01' for key 'uidx_user_date'"})
	mock.ExpectRollback()

	err = db.Create(&models.DiaryEntryModel{UserID: "u1", Date: "2024-05-01", Content: "x", Title: models.PlaceholderTitle}).Error
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.True(t, IsDuplicateKey(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenInMemoryEnforcesOneEntryPerDay(t *testing.T) {
	db, err := OpenInMemory(t.Name())
	require.NoError(t, err)

	first := models.DiaryEntryModel{UserID: "u1", Date: "2024-05-01", Content: "a", Title: models.PlaceholderTitle}
	require.NoError(t, db.Create(&first).Error)

	dup := models.DiaryEntryModel{UserID: "u1", Date: "2024-05-01", Content: "b", Title: models.PlaceholderTitle}
	err = db.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))

	other := models.DiaryEntryModel{UserID: "u2", Date: "2024-05-01", Content: "c", Title: models.PlaceholderTitle}
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, Ping(db))
}

func TestDialectorFor(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		d, err := dialectorFor(driver, "dsn")
		require.NoError(t, err)
		assert.Equal(t, driver, d.Name())
	}
	_, err := dialectorFor("oracle", "dsn")
	assert.Error(t, err)
}
