package repository

import (
	"errors"
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) Find(studentID, courseID uint) (*model.CourseProgress, error) {
	var progress model.CourseProgress
	err := r.DB.Where("student_id = ? AND course_id = ?", studentID, courseID).First(&progress).Error
	if err != nil {
		return nil, translate(err, "progress")
	}
	return &progress, nil
}

// GetOrCreate 唯一索引兜底并发创建：插入冲突时回读对方写入的行
func (r *ProgressRepository) GetOrCreate(studentID, courseID uint) (*model.CourseProgress, bool, error) {
	progress, err := r.Find(studentID, courseID)
	if err == nil {
		return progress, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}

	progress = &model.CourseProgress{
		StudentID:  studentID,
		CourseID:   courseID,
		DateJoined: time.Now(),
	}
	err = r.DB.Omit(clause.Associations).Create(progress).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, ferr := r.Find(studentID, courseID)
		return existing, false, ferr
	}
	if err != nil {
		return nil, false, translate(err, "progress")
	}
	return progress, true, nil
}

// AddCompletedModule 重复标记不产生新行
func (r *ProgressRepository) AddCompletedModule(progressID, moduleID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.ProgressCompletedModule{CourseProgressID: progressID, ModuleID: moduleID}).Error
		if err != nil {
			return err
		}
		return touchModule(tx, progressID, moduleID)
	})
}

func (r *ProgressRepository) AddCompletedContent(progressID, contentID, moduleID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.ProgressCompletedContent{CourseProgressID: progressID, ContentID: contentID}).Error
		if err != nil {
			return err
		}
		return touchModule(tx, progressID, moduleID)
	})
}

func touchModule(tx *gorm.DB, progressID, moduleID uint) error {
	return tx.Model(&model.CourseProgress{}).Where("id = ?", progressID).
		Update("last_accessed_module_id", moduleID).Error
}

func (r *ProgressRepository) CountCompletedModules(progressID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ProgressCompletedModule{}).
		Where("course_progress_id = ?", progressID).
		Count(&count).Error
	return count, err
}

func (r *ProgressRepository) CountCompletedContents(progressID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ProgressCompletedContent{}).
		Where("course_progress_id = ?", progressID).
		Count(&count).Error
	return count, err
}

// CountCompletedContentsInModule 只统计属于该章节的已完成内容
func (r *ProgressRepository) CountCompletedContentsInModule(progressID, moduleID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ProgressCompletedContent{}).
		Joins("JOIN contents ON contents.id = progress_completed_contents.content_id").
		Where("progress_completed_contents.course_progress_id = ? AND contents.module_id = ?", progressID, moduleID).
		Count(&count).Error
	return count, err
}

func (r *ProgressRepository) CompletedModuleIDs(progressID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.ProgressCompletedModule{}).
		Where("course_progress_id = ?", progressID).
		Pluck("module_id", &ids).Error
	return ids, err
}

// CompletedContentIDs 某章节内已完成的内容 ID
func (r *ProgressRepository) CompletedContentIDs(progressID, moduleID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.ProgressCompletedContent{}).
		Joins("JOIN contents ON contents.id = progress_completed_contents.content_id").
		Where("progress_completed_contents.course_progress_id = ? AND contents.module_id = ?", progressID, moduleID).
		Order("contents.sort_order").
		Pluck("progress_completed_contents.content_id", &ids).Error
	return ids, err
}

func (r *ProgressRepository) SetActive(progressID uint, active bool) error {
	return r.DB.Model(&model.CourseProgress{}).Where("id = ?", progressID).
		Update("is_active", active).Error
}

func (r *ProgressRepository) ListByStudent(studentID uint) ([]model.CourseProgress, error) {
	var rows []model.CourseProgress
	err := r.DB.Preload("Course").Preload("Course.Subject").
		Where("student_id = ?", studentID).
		Order("date_joined DESC").
		Find(&rows).Error
	return rows, err
}

// ListActiveByStudent 学生仪表盘：已激活的课程连同有序章节
func (r *ProgressRepository) ListActiveByStudent(studentID uint) ([]model.CourseProgress, error) {
	var rows []model.CourseProgress
	err := r.DB.Preload("Course").
		Preload("Course.Modules", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Where("student_id = ? AND is_active = ?", studentID, true).
		Order("date_joined DESC").
		Find(&rows).Error
	return rows, err
}

// ByCourse 课程下全部进度行，按学生 ID 索引
func (r *ProgressRepository) ByCourse(courseID uint) (map[uint]model.CourseProgress, error) {
	var rows []model.CourseProgress
	if err := r.DB.Where("course_id = ?", courseID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]model.CourseProgress, len(rows))
	for _, p := range rows {
		out[p.StudentID] = p
	}
	return out, nil
}
