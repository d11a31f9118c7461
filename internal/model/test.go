package model

import (
	"time"

	"gorm.io/datatypes"
)

type TestStatus string

const (
	TestNotStarted TestStatus = "not_started"
	TestActive     TestStatus = "active"
	TestEnded      TestStatus = "ended"
)

// Test 挂在章节下的测验，状态只由当前时间决定
// swagger:model Test
type Test struct {
	BaseModel
	ModuleID   uint       `gorm:"index;not null" json:"moduleId"`
	Name       string     `gorm:"size:200;not null" json:"name"`
	StartTime  time.Time  `gorm:"not null" json:"startTime"`
	EndTime    time.Time  `gorm:"not null" json:"endTime"`
	TotalMarks int        `gorm:"not null" json:"totalMarks"`
	Questions  []Question `gorm:"foreignKey:TestID" json:"questions,omitempty"`
}

func (Test) TableName() string {
	return "tests"
}

func (t *Test) Status(now time.Time) TestStatus {
	switch {
	case now.Before(t.StartTime):
		return TestNotStarted
	case now.After(t.EndTime):
		return TestEnded
	default:
		return TestActive
	}
}

func (t *Test) IsActive(now time.Time) bool {
	return t.Status(now) == TestActive
}

type QuestionType string

const (
	QuestionMCQ  QuestionType = "MCQ"
	QuestionText QuestionType = "TEXT"
)

// OptionLetters 选择题选项字母，最多四个
var OptionLetters = []string{"A", "B", "C", "D"}

// swagger:model Question
type Question struct {
	BaseModel
	TestID        uint                        `gorm:"index;not null" json:"testId"`
	QuestionType  QuestionType                `gorm:"size:4;not null;default:'MCQ'" json:"questionType"`
	Text          string                      `gorm:"type:text;not null" json:"text"`
	Options       datatypes.JSONSlice[string] `json:"options"`
	CorrectAnswer string                      `gorm:"size:1" json:"-"`
}

func (Question) TableName() string {
	return "questions"
}

// Option 按字母取选项
func (q *Question) Option(letter string) (string, bool) {
	for i, l := range OptionLetters {
		if l == letter && i < len(q.Options) && q.Options[i] != "" {
			return q.Options[i], true
		}
	}
	return "", false
}

// swagger:model Answer
type Answer struct {
	BaseModel
	StudentID      uint   `gorm:"index;not null" json:"studentId"`
	QuestionID     uint   `gorm:"index;not null" json:"questionId"`
	SelectedOption string `gorm:"size:1" json:"selectedOption,omitempty"`
	TextAnswer     string `gorm:"type:text" json:"textAnswer,omitempty"`
	IsCorrect      bool   `gorm:"default:false" json:"isCorrect"`
}

func (Answer) TableName() string {
	return "answers"
}

// Grade 写入前重新计算是否正确；文字题不评分
func (a *Answer) Grade(q *Question) {
	if q.QuestionType == QuestionMCQ {
		a.IsCorrect = a.SelectedOption == q.CorrectAnswer
		return
	}
	a.IsCorrect = false
}
