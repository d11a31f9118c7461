package testutil

import (
	"fmt"
	"learnhub_backend/internal/model"
	"learnhub_backend/pkg/database"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq int64

// DB 每个测试一个独立的内存库，测试结束自动关闭
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	name := fmt.Sprintf("file:learnhub_test_%d?mode=memory&cache=shared&_foreign_keys=on", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(name), database.Options(logger.Silent))
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	tb.Cleanup(func() { sqlDB.Close() })
	return db
}

func SeedUser(tb testing.TB, db *gorm.DB, username string, role model.UserRole) *model.User {
	tb.Helper()
	u := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Role:     role,
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, db *gorm.DB, owner *model.User, title string) *model.Course {
	tb.Helper()
	subject := &model.Subject{Title: "General", Slug: fmt.Sprintf("general-%d", atomic.AddInt64(&dbSeq, 1))}
	if err := db.Create(subject).Error; err != nil {
		tb.Fatalf("seed subject: %v", err)
	}
	c := &model.Course{
		OwnerID:   owner.ID,
		SubjectID: subject.ID,
		Title:     title,
		Slug:      fmt.Sprintf("course-%d", atomic.AddInt64(&dbSeq, 1)),
		Overview:  "overview",
	}
	if err := db.Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

// SeedModules 直接按 0..n-1 写入章节
func SeedModules(tb testing.TB, db *gorm.DB, course *model.Course, n int) []model.Module {
	tb.Helper()
	modules := make([]model.Module, n)
	for i := range modules {
		modules[i] = model.Module{CourseID: course.ID, Title: fmt.Sprintf("Module %d", i), Order: i}
		if err := db.Create(&modules[i]).Error; err != nil {
			tb.Fatalf("seed module: %v", err)
		}
	}
	return modules
}

func SeedTextContent(tb testing.TB, db *gorm.DB, module *model.Module, owner *model.User, order int) *model.Content {
	tb.Helper()
	text := &model.Text{ItemBase: model.ItemBase{OwnerID: owner.ID, Title: "Notes"}, Body: "body"}
	if err := db.Create(text).Error; err != nil {
		tb.Fatalf("seed text: %v", err)
	}
	c := &model.Content{ModuleID: module.ID, ContentType: model.ContentText, ObjectID: text.ID, Order: order}
	if err := db.Create(c).Error; err != nil {
		tb.Fatalf("seed content: %v", err)
	}
	c.Item = text
	return c
}

func Enroll(tb testing.TB, db *gorm.DB, course *model.Course, student *model.User) {
	tb.Helper()
	if err := db.Create(&model.CourseStudent{CourseID: course.ID, UserID: student.ID}).Error; err != nil {
		tb.Fatalf("enroll: %v", err)
	}
}

// SeedTest 建一个 MCQ 单题测验，window 决定是否处于作答时间内
func SeedTest(tb testing.TB, db *gorm.DB, module *model.Module, start, end time.Time) *model.Test {
	tb.Helper()
	test := &model.Test{
		ModuleID:   module.ID,
		Name:       "Quiz",
		StartTime:  start,
		EndTime:    end,
		TotalMarks: 2,
		Questions: []model.Question{
			{QuestionType: model.QuestionMCQ, Text: "2+2?", Options: []string{"3", "4", "5"}, CorrectAnswer: "B"},
			{QuestionType: model.QuestionText, Text: "Explain."},
		},
	}
	if err := db.Create(test).Error; err != nil {
		tb.Fatalf("seed test: %v", err)
	}
	return test
}
