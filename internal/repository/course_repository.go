package repository

import (
	"errors"
	"fmt"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxSlugAttempts = 5

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) ListSubjects() ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.DB.Order("title").Find(&subjects).Error
	return subjects, err
}

// GetOrCreateSubject 按 slug 查找分类，不存在则创建；并发创建时回读已存在的行
func (r *CourseRepository) GetOrCreateSubject(title string) (*model.Subject, error) {
	slug := util.GenerateSlug(title)
	var subject model.Subject
	err := r.DB.Where(model.Subject{Slug: slug}).
		Attrs(model.Subject{Title: title}).
		FirstOrCreate(&subject).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = r.DB.Where("slug = ?", slug).First(&subject).Error
	}
	if err != nil {
		return nil, translate(err, "subject")
	}
	return &subject, nil
}

// uniqueSlug 在 base 后追加 -2、-3 … 直到不与已有课程冲突
func (r *CourseRepository) uniqueSlug(tx *gorm.DB, base string, excludeID uint) (string, error) {
	var taken []string
	err := tx.Model(&model.Course{}).
		Where("(slug = ? OR slug LIKE ?) AND id <> ?", base, base+"-%", excludeID).
		Pluck("slug", &taken).Error
	if err != nil {
		return "", err
	}

	used := make(map[string]bool, len(taken))
	for _, s := range taken {
		used[s] = true
	}
	if !used[base] {
		return base, nil
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if !used[candidate] {
			return candidate, nil
		}
	}
}

// Create 以标题生成唯一 slug 后插入
func (r *CourseRepository) Create(course *model.Course) error {
	base := util.GenerateSlug(course.Title)
	for attempt := 1; ; attempt++ {
		slug, err := r.uniqueSlug(r.DB, base, 0)
		if err != nil {
			return err
		}
		course.Slug = slug
		err = r.DB.Omit(clause.Associations).Create(course).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt >= maxSlugAttempts {
			return translate(err, "course")
		}
		course.ID = 0
	}
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	if err := r.DB.Preload("Subject").First(&course, id).Error; err != nil {
		return nil, translate(err, "course")
	}
	return &course, nil
}

// FindWithModules 课程详情，章节按序号排列
func (r *CourseRepository) FindWithModules(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.Preload("Subject").
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		First(&course, id).Error
	if err != nil {
		return nil, translate(err, "course")
	}
	return &course, nil
}

// List 最新的在前，subjectSlug 为空时不过滤
func (r *CourseRepository) List(subjectSlug string) ([]model.Course, error) {
	query := r.DB.Preload("Subject").Order("courses.created_at DESC, courses.id DESC")
	if subjectSlug != "" {
		query = query.Joins("JOIN subjects ON subjects.id = courses.subject_id").
			Where("subjects.slug = ?", subjectSlug)
	}
	var courses []model.Course
	err := query.Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) ListByOwner(ownerID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Preload("Subject").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&courses).Error
	return courses, err
}

// Update 标题变化时重新生成 slug
func (r *CourseRepository) Update(course *model.Course, titleChanged bool) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if titleChanged {
			slug, err := r.uniqueSlug(tx, util.GenerateSlug(course.Title), course.ID)
			if err != nil {
				return err
			}
			course.Slug = slug
		}
		return translate(tx.Omit(clause.Associations).Save(course).Error, "course")
	})
}

// Delete 级联删除课程下的一切，返回需要从存储中清理的文件
func (r *CourseRepository) Delete(course *model.Course) ([]string, error) {
	var files []string
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var moduleIDs []uint
		if err := tx.Model(&model.Module{}).Where("course_id = ?", course.ID).Pluck("id", &moduleIDs).Error; err != nil {
			return err
		}
		for _, id := range moduleIDs {
			f, err := deleteModuleTree(tx, id)
			if err != nil {
				return err
			}
			files = append(files, f...)
		}

		var progressIDs []uint
		if err := tx.Model(&model.CourseProgress{}).Where("course_id = ?", course.ID).Pluck("id", &progressIDs).Error; err != nil {
			return err
		}
		if len(progressIDs) > 0 {
			if err := tx.Where("course_progress_id IN ?", progressIDs).Delete(&model.ProgressCompletedModule{}).Error; err != nil {
				return err
			}
			if err := tx.Where("course_progress_id IN ?", progressIDs).Delete(&model.ProgressCompletedContent{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", progressIDs).Delete(&model.CourseProgress{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&model.CourseStudent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Course{}, course.ID).Error
	})
	if err != nil {
		return nil, err
	}
	if course.Image != "" {
		files = append(files, course.Image)
	}
	return files, nil
}

func (r *CourseRepository) IsEnrolled(courseID, studentID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.CourseStudent{}).
		Where("course_id = ? AND user_id = ?", courseID, studentID).
		Count(&count).Error
	return count > 0, err
}

// Enroll 写入选课关系并建立（未激活的）进度行
func (r *CourseRepository) Enroll(courseID, studentID uint, progress *model.CourseProgress) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model.CourseStudent{CourseID: courseID, UserID: studentID}).Error; err != nil {
			return translate(err, "enrollment")
		}
		err := tx.Where(model.CourseProgress{StudentID: studentID, CourseID: courseID}).
			Attrs(model.CourseProgress{DateJoined: progress.DateJoined}).
			FirstOrCreate(progress).Error
		return translate(err, "progress")
	})
}

func (r *CourseRepository) RemoveStudent(courseID, studentID uint) error {
	res := r.DB.Where("course_id = ? AND user_id = ?", courseID, studentID).Delete(&model.CourseStudent{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.NotFoundf("enrollment")
	}
	return nil
}

func (r *CourseRepository) ListStudents(courseID uint) ([]model.User, error) {
	var users []model.User
	err := r.DB.Joins("JOIN course_students ON course_students.user_id = users.id").
		Where("course_students.course_id = ?", courseID).
		Order("users.username").
		Find(&users).Error
	return users, err
}
