package repository

import (
	"context"
	"database/sql"
	"errors"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/lock"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxOrderAttempts = 3

// OrderScope 一组共享序号的兄弟记录：某课程下的章节，或某章节下的内容
type OrderScope struct {
	Table    string
	ParentFK string
	ParentID uint
	LockKey  string
	Label    string
}

func CourseScope(courseID uint) OrderScope {
	return OrderScope{
		Table:    "modules",
		ParentFK: "course_id",
		ParentID: courseID,
		LockKey:  util.OrderLockPrefixCourse + strconv.FormatUint(uint64(courseID), 10),
		Label:    "module",
	}
}

func ModuleScope(moduleID uint) OrderScope {
	return OrderScope{
		Table:    "contents",
		ParentFK: "module_id",
		ParentID: moduleID,
		LockKey:  util.OrderLockPrefixModule + strconv.FormatUint(uint64(moduleID), 10),
		Label:    "content",
	}
}

// NextOrder 空范围返回 0，否则为当前最大序号加一
func NextOrder(tx *gorm.DB, scope OrderScope) (int, error) {
	var max sql.NullInt64
	err := tx.Table(scope.Table).
		Where(scope.ParentFK+" = ?", scope.ParentID).
		Select("MAX(sort_order)").
		Row().
		Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64) + 1, nil
}

// OrderAssigner 在持有范围锁的事务中分配序号并插入，唯一索引冲突时有限次重试
type OrderAssigner struct {
	DB     *gorm.DB
	Locker lock.Locker
}

func NewOrderAssigner(db *gorm.DB, locker lock.Locker) *OrderAssigner {
	return &OrderAssigner{DB: db, Locker: locker}
}

func (a *OrderAssigner) Insert(ctx context.Context, scope OrderScope, insert func(tx *gorm.DB, order int) error) error {
	unlock, err := a.Locker.Lock(ctx, scope.LockKey)
	if err != nil {
		return err
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		err = a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			order, err := NextOrder(tx, scope)
			if err != nil {
				return err
			}
			return insert(tx, order)
		})
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}

		monitoring.OrderConflicts.WithLabelValues(scope.Label).Inc()
		logger.Log.Warn("Order assignment collided",
			zap.String("scope", scope.LockKey),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt >= maxOrderAttempts {
			return util.Conflictf("could not assign %s order", scope.Label)
		}
	}
}
