package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ModuleRepository struct {
	DB       *gorm.DB
	Assigner *OrderAssigner
}

func NewModuleRepository(db *gorm.DB, assigner *OrderAssigner) *ModuleRepository {
	return &ModuleRepository{DB: db, Assigner: assigner}
}

// Create 序号在插入事务内按课程分配
func (r *ModuleRepository) Create(ctx context.Context, module *model.Module) error {
	return r.Assigner.Insert(ctx, CourseScope(module.CourseID), func(tx *gorm.DB, order int) error {
		module.ID = 0
		module.Order = order
		return tx.Omit(clause.Associations).Create(module).Error
	})
}

func (r *ModuleRepository) FindByID(id uint) (*model.Module, error) {
	var module model.Module
	if err := r.DB.First(&module, id).Error; err != nil {
		return nil, translate(err, "module")
	}
	return &module, nil
}

func (r *ModuleRepository) ListByCourse(courseID uint) ([]model.Module, error) {
	var modules []model.Module
	err := r.DB.Where("course_id = ?", courseID).Order("sort_order").Find(&modules).Error
	return modules, err
}

func (r *ModuleRepository) CountByCourse(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Module{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

// UpdateDetails 只改标题与描述，序号一经分配不再变化
func (r *ModuleRepository) UpdateDetails(module *model.Module) error {
	return r.DB.Model(&model.Module{}).Where("id = ?", module.ID).
		Updates(map[string]interface{}{
			"title":       module.Title,
			"description": module.Description,
		}).Error
}

func (r *ModuleRepository) Delete(id uint) ([]string, error) {
	var files []string
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		files, err = deleteModuleTree(tx, id)
		return err
	})
	return files, err
}

// deleteModuleTree 删除章节及其内容、条目、测验和完成记录
func deleteModuleTree(tx *gorm.DB, moduleID uint) ([]string, error) {
	var contents []model.Content
	if err := tx.Where("module_id = ?", moduleID).Find(&contents).Error; err != nil {
		return nil, err
	}
	files, err := deleteContents(tx, contents)
	if err != nil {
		return nil, err
	}

	var testIDs []uint
	if err := tx.Model(&model.Test{}).Where("module_id = ?", moduleID).Pluck("id", &testIDs).Error; err != nil {
		return nil, err
	}
	if err := deleteTests(tx, testIDs); err != nil {
		return nil, err
	}

	if err := tx.Where("module_id = ?", moduleID).Delete(&model.ProgressCompletedModule{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&model.CourseProgress{}).
		Where("last_accessed_module_id = ?", moduleID).
		Update("last_accessed_module_id", nil).Error; err != nil {
		return nil, err
	}
	return files, tx.Delete(&model.Module{}, moduleID).Error
}

func deleteTests(tx *gorm.DB, testIDs []uint) error {
	if len(testIDs) == 0 {
		return nil
	}
	questions := tx.Model(&model.Question{}).Select("id").Where("test_id IN ?", testIDs)
	if err := tx.Where("question_id IN (?)", questions).Delete(&model.Answer{}).Error; err != nil {
		return err
	}
	if err := tx.Where("test_id IN ?", testIDs).Delete(&model.Question{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", testIDs).Delete(&model.Test{}).Error
}
