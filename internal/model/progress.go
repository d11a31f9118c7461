package model

import "time"

// CourseProgress 每个 (学生, 课程) 一行，首次相关操作时创建
// swagger:model CourseProgress
type CourseProgress struct {
	BaseModel
	StudentID            uint       `gorm:"not null;uniqueIndex:idx_progress_student_course" json:"studentId"`
	CourseID             uint       `gorm:"not null;uniqueIndex:idx_progress_student_course" json:"courseId"`
	Course               *Course    `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	CompletedModules     []Module   `gorm:"many2many:progress_completed_modules;" json:"completedModules"`
	CompletedContents    []Content  `gorm:"many2many:progress_completed_contents;" json:"completedContents"`
	LastAccessedModuleID *uint      `json:"lastAccessedModuleId"`
	IsActive             bool       `gorm:"default:false" json:"isActive"`
	DateJoined           time.Time  `json:"dateJoined"`
	DateCompleted        *time.Time `json:"dateCompleted"`
}

func (CourseProgress) TableName() string {
	return "course_progress"
}

// Percentage 完成比例（0-100），总数为 0 时返回 0
func Percentage(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

type ProgressCompletedModule struct {
	CourseProgressID uint `gorm:"primaryKey"`
	ModuleID         uint `gorm:"primaryKey"`
}

func (ProgressCompletedModule) TableName() string {
	return "progress_completed_modules"
}

type ProgressCompletedContent struct {
	CourseProgressID uint `gorm:"primaryKey"`
	ContentID        uint `gorm:"primaryKey"`
}

func (ProgressCompletedContent) TableName() string {
	return "progress_completed_contents"
}
