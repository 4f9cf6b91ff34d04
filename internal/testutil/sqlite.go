// Package testutil — общие хелперы тестов: SQLite в памяти со схемой из миграций.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reserveme/internal/db"
	"github.com/Leganyst/reserveme/internal/model"
)

// NewSQLite открывает изолированную in-memory базу и накатывает миграции.
// База закрывается в t.Cleanup.
func NewSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := db.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("sql DB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(context.Background(), gormDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gormDB
}

// CreateUser вставляет пользователя напрямую, минуя регистрацию.
func CreateUser(t testing.TB, gormDB *gorm.DB, email string) *model.User {
	t.Helper()

	u := &model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "x",
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := gormDB.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}
