package testutil

import (
	"testing"
	"time"

	"github.com/blues/fundcrm/internal/database"
	"github.com/blues/fundcrm/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewDB 返回已迁移的内存 sqlite 数据库
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreatePerson 插入一个人员
func CreatePerson(t *testing.T, db *gorm.DB, name string, role model.PersonRole) *model.Person {
	t.Helper()

	p := &model.Person{Name: name, Role: role}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create person %s: %v", name, err)
	}
	return p
}

// CreateApplication 插入一个申请
func CreateApplication(t *testing.T, db *gorm.DB, company string, submittedAt time.Time) *model.Application {
	t.Helper()

	app := &model.Application{
		CompanyName: company,
		SubmittedAt: submittedAt,
		Stage:       model.StagePipeline,
	}
	if err := db.Create(app).Error; err != nil {
		t.Fatalf("create application %s: %v", company, err)
	}
	return app
}

// Ptr 返回值的指针
func Ptr[T any](v T) *T {
	return &v
}

// IDs 提取人员主键
func IDs(people ...*model.Person) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(people))
	for _, p := range people {
		ids = append(ids, p.ID)
	}
	return ids
}
