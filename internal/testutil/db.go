// Package testutil holds helpers shared by repository, service and handler tests.
package testutil

import (
	"myJara/pkg/database"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database that lives as long as the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// Clock is a settable time source for services that take a Now func.
type Clock struct {
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC()}
}

func (c *Clock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}
