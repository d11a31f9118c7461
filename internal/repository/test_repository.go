package repository

import (
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

// Create 测验与题目一并写入
func (r *TestRepository) Create(test *model.Test) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(test).Error
	})
}

func (r *TestRepository) FindByID(id uint) (*model.Test, error) {
	var test model.Test
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&test, id).Error
	if err != nil {
		return nil, translate(err, "test")
	}
	return &test, nil
}

func (r *TestRepository) ListByModule(moduleID uint) ([]model.Test, error) {
	var tests []model.Test
	err := r.DB.Where("module_id = ?", moduleID).Order("start_time").Find(&tests).Error
	return tests, err
}

// SaveAnswers 整批写入；同一题的旧答案被本次提交替换
func (r *TestRepository) SaveAnswers(studentID uint, answers []model.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	questionIDs := make([]uint, len(answers))
	for i, a := range answers {
		questionIDs[i] = a.QuestionID
	}
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ? AND question_id IN ?", studentID, questionIDs).
			Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		return tx.Create(&answers).Error
	})
}

func (r *TestRepository) AnswersFor(studentID, testID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.Joins("JOIN questions ON questions.id = answers.question_id").
		Where("answers.student_id = ? AND questions.test_id = ?", studentID, testID).
		Order("answers.question_id").
		Find(&answers).Error
	return answers, err
}

func (r *TestRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return deleteTests(tx, []uint{id})
	})
}
