package model

// Module 课程中的章节，Order 在课程内唯一且按创建顺序递增
// swagger:model Module
type Module struct {
	BaseModel
	CourseID    uint      `gorm:"not null;uniqueIndex:idx_module_course_order" json:"courseId"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Order       int       `gorm:"column:sort_order;not null;uniqueIndex:idx_module_course_order" json:"order"`
	Contents    []Content `gorm:"foreignKey:ModuleID" json:"contents,omitempty"`
}

func (Module) TableName() string {
	return "modules"
}
