package repository

import (
	"context"
	"errors"
	"fmt"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type ContentRepository struct {
	DB       *gorm.DB
	Assigner *OrderAssigner
}

func NewContentRepository(db *gorm.DB, assigner *OrderAssigner) *ContentRepository {
	return &ContentRepository{DB: db, Assigner: assigner}
}

// CreateWithItem 条目与内容行在同一事务中写入，任一失败都整体回滚
func (r *ContentRepository) CreateWithItem(ctx context.Context, moduleID uint, item model.Item) (*model.Content, error) {
	content := &model.Content{ModuleID: moduleID, ContentType: item.ItemType()}
	err := r.Assigner.Insert(ctx, ModuleScope(moduleID), func(tx *gorm.DB, order int) error {
		item.Base().ID = 0
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		content.ID = 0
		content.ObjectID = item.ItemID()
		content.Order = order
		return tx.Create(content).Error
	})
	if err != nil {
		return nil, err
	}
	content.Item = item
	return content, nil
}

func (r *ContentRepository) FindByID(id uint) (*model.Content, error) {
	var content model.Content
	if err := r.DB.First(&content, id).Error; err != nil {
		return nil, translate(err, "content")
	}
	return &content, nil
}

func (r *ContentRepository) ListByModule(moduleID uint) ([]model.Content, error) {
	var contents []model.Content
	err := r.DB.Where("module_id = ?", moduleID).Order("sort_order").Find(&contents).Error
	return contents, err
}

func (r *ContentRepository) CountByModule(moduleID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Content{}).Where("module_id = ?", moduleID).Count(&count).Error
	return count, err
}

func (r *ContentRepository) CountByCourse(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Content{}).
		Joins("JOIN modules ON modules.id = contents.module_id").
		Where("modules.course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

// FindItem 按 (类型, ID) 加载具体条目；行不存在即为断开的引用
func (r *ContentRepository) FindItem(ctx context.Context, t model.ContentType, id uint) (model.Item, error) {
	item := model.NewItem(t)
	if item == nil {
		return nil, fmt.Errorf("unknown content type %q", t)
	}
	if err := r.DB.WithContext(ctx).First(item, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("%s item %d", t, id))
	}
	return item, nil
}

func (r *ContentRepository) SaveItem(item model.Item) error {
	return r.DB.Save(item).Error
}

// Delete 删除内容行、对应条目和完成记录，返回需要清理的文件
func (r *ContentRepository) Delete(content *model.Content) ([]string, error) {
	var files []string
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		files, err = deleteContents(tx, []model.Content{*content})
		return err
	})
	return files, err
}

// ScanAll 分批遍历全部内容行，fn 返回错误时停止
func (r *ContentRepository) ScanAll(ctx context.Context, batch int, fn func([]model.Content) error) error {
	var contents []model.Content
	return r.DB.WithContext(ctx).FindInBatches(&contents, batch, func(tx *gorm.DB, _ int) error {
		return fn(contents)
	}).Error
}

func deleteContents(tx *gorm.DB, contents []model.Content) ([]string, error) {
	var files []string
	for _, c := range contents {
		item := model.NewItem(c.ContentType)
		if item != nil {
			err := tx.First(item, c.ObjectID).Error
			switch {
			case err == nil:
				if f := model.StoredFile(item); f != "" {
					files = append(files, f)
				}
				if err := tx.Delete(item).Error; err != nil {
					return nil, err
				}
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, err
			}
		}
		if err := tx.Where("content_id = ?", c.ID).Delete(&model.ProgressCompletedContent{}).Error; err != nil {
			return nil, err
		}
		if err := tx.Delete(&model.Content{}, c.ID).Error; err != nil {
			return nil, err
		}
	}
	return files, nil
}
