package service

import (
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
)

// CanMutateCourse 只有课程所有者可以修改课程及其下属对象
func CanMutateCourse(userID uint, course *model.Course) bool {
	return course.IsOwnedBy(userID)
}

// CanViewModuleContents 所有者或已选课学生
func CanViewModuleContents(userID uint, course *model.Course, enrolled bool) bool {
	return course.IsOwnedBy(userID) || enrolled
}

// Guard 先确认对象存在（404），再校验权限（403）
type Guard struct {
	CourseRepo *repository.CourseRepository
	ModuleRepo *repository.ModuleRepository
}

func NewGuard(courseRepo *repository.CourseRepository, moduleRepo *repository.ModuleRepository) *Guard {
	return &Guard{CourseRepo: courseRepo, ModuleRepo: moduleRepo}
}

func (g *Guard) OwnedCourse(userID, courseID uint) (*model.Course, error) {
	course, err := g.CourseRepo.FindByID(courseID)
	if err != nil {
		return nil, err
	}
	if !CanMutateCourse(userID, course) {
		return nil, util.Forbiddenf("course %d is not yours", courseID)
	}
	return course, nil
}

func (g *Guard) OwnedModule(userID, moduleID uint) (*model.Module, *model.Course, error) {
	module, err := g.ModuleRepo.FindByID(moduleID)
	if err != nil {
		return nil, nil, err
	}
	course, err := g.OwnedCourse(userID, module.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return module, course, nil
}

// ViewableModule 章节内容对所有者和选课学生可见
func (g *Guard) ViewableModule(userID, moduleID uint) (*model.Module, *model.Course, error) {
	module, err := g.ModuleRepo.FindByID(moduleID)
	if err != nil {
		return nil, nil, err
	}
	course, err := g.CourseRepo.FindByID(module.CourseID)
	if err != nil {
		return nil, nil, err
	}
	if course.IsOwnedBy(userID) {
		return module, course, nil
	}
	enrolled, err := g.CourseRepo.IsEnrolled(course.ID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !CanViewModuleContents(userID, course, enrolled) {
		return nil, nil, util.Forbiddenf("not enrolled in course %d", course.ID)
	}
	return module, course, nil
}

// EnrolledCourse 学生必须已选该课程
func (g *Guard) EnrolledCourse(studentID, courseID uint) (*model.Course, error) {
	course, err := g.CourseRepo.FindByID(courseID)
	if err != nil {
		return nil, err
	}
	enrolled, err := g.CourseRepo.IsEnrolled(courseID, studentID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, util.Forbiddenf("not enrolled in course %d", courseID)
	}
	return course, nil
}
