package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
)

type ModuleInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
}

type ModuleService struct {
	ModuleRepo *repository.ModuleRepository
	CourseRepo *repository.CourseRepository
	Guard      *Guard
	Storage    *StorageService
}

func NewModuleService(moduleRepo *repository.ModuleRepository, courseRepo *repository.CourseRepository, guard *Guard, storage *StorageService) *ModuleService {
	return &ModuleService{
		ModuleRepo: moduleRepo,
		CourseRepo: courseRepo,
		Guard:      guard,
		Storage:    storage,
	}
}

// Create 序号由仓储在插入时分配，调用方传入的值被忽略
func (s *ModuleService) Create(ctx context.Context, userID, courseID uint, in ModuleInput) (*model.Module, error) {
	if _, err := s.Guard.OwnedCourse(userID, courseID); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	module := &model.Module{
		CourseID:    courseID,
		Title:       in.Title,
		Description: in.Description,
	}
	if err := s.ModuleRepo.Create(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *ModuleService) Update(userID, moduleID uint, in ModuleInput) (*model.Module, error) {
	module, _, err := s.Guard.OwnedModule(userID, moduleID)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	module.Title = in.Title
	module.Description = in.Description
	if err := s.ModuleRepo.UpdateDetails(module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *ModuleService) Delete(ctx context.Context, userID, moduleID uint) error {
	if _, _, err := s.Guard.OwnedModule(userID, moduleID); err != nil {
		return err
	}
	files, err := s.ModuleRepo.Delete(moduleID)
	if err != nil {
		return err
	}
	s.Storage.Remove(ctx, files...)
	return nil
}

// List 课程的章节列表公开可见
func (s *ModuleService) List(courseID uint) ([]model.Module, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		return nil, err
	}
	return s.ModuleRepo.ListByCourse(courseID)
}

func (s *ModuleService) Get(moduleID uint) (*model.Module, error) {
	return s.ModuleRepo.FindByID(moduleID)
}
