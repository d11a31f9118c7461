package model

import "time"

// Subject 课程分类，按标题按需创建
// swagger:model Subject
type Subject struct {
	BaseModel
	Title string `gorm:"size:200;not null" json:"title"`
	Slug  string `gorm:"size:200;uniqueIndex;not null" json:"slug"`
}

func (Subject) TableName() string {
	return "subjects"
}

// Course 由创建它的导师独占
// swagger:model Course
type Course struct {
	BaseModel
	OwnerID   uint     `gorm:"index;not null" json:"ownerId"`
	SubjectID uint     `gorm:"index;not null" json:"subjectId"`
	Subject   *Subject `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	Title     string   `gorm:"size:200;not null" json:"title"`
	Slug      string   `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Overview  string   `gorm:"type:text;not null" json:"overview"`
	Image     string   `gorm:"size:255" json:"image"`
	Students  []User   `gorm:"many2many:course_students;" json:"-"`
	Modules   []Module `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// IsOwnedBy 课程的所有修改都以此为准
func (c *Course) IsOwnedBy(userID uint) bool {
	return c != nil && c.OwnerID == userID
}

// CourseStudent 选课关系表，复合主键保证同一学生只选一次
type CourseStudent struct {
	CourseID  uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
}

func (CourseStudent) TableName() string {
	return "course_students"
}
