package service

import (
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
)

// ProgressPercentage 已完成章节占比，无章节时为 0
func ProgressPercentage(completedModules, totalModules int64) float64 {
	return model.Percentage(completedModules, totalModules)
}

// ContentProgressPercentage 章节内已完成内容占比
func ContentProgressPercentage(completedInModule, totalInModule int64) float64 {
	return model.Percentage(completedInModule, totalInModule)
}

type CourseProgressView struct {
	model.CourseProgress
	CompletedModuleIDs   []uint  `json:"completedModuleIds"`
	CompletedModuleCount int64   `json:"completedModuleCount"`
	TotalModules         int64   `json:"totalModules"`
	Percentage           float64 `json:"percentage"`
}

type StudentProgressRow struct {
	StudentID          uint    `json:"studentId"`
	Username           string  `json:"username"`
	FullName           string  `json:"fullName"`
	IsActive           bool    `json:"isActive"`
	CompletedModules   int64   `json:"completedModules"`
	TotalModules       int64   `json:"totalModules"`
	CompletedContents  int64   `json:"completedContents"`
	TotalContents      int64   `json:"totalContents"`
	ProgressPercentage float64 `json:"progressPercentage"`
}

type ModuleProgressView struct {
	ModuleID            uint    `json:"moduleId"`
	CompletedContents   int64   `json:"completedContents"`
	TotalContents       int64   `json:"totalContents"`
	Percentage          float64 `json:"percentage"`
	CompletedContentIDs []uint  `json:"completedContentIds"`
}

type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	ModuleRepo   *repository.ModuleRepository
	ContentRepo  *repository.ContentRepository
	CourseRepo   *repository.CourseRepository
	Guard        *Guard
}

func NewProgressService(
	progressRepo *repository.ProgressRepository,
	moduleRepo *repository.ModuleRepository,
	contentRepo *repository.ContentRepository,
	courseRepo *repository.CourseRepository,
	guard *Guard,
) *ProgressService {
	return &ProgressService{
		ProgressRepo: progressRepo,
		ModuleRepo:   moduleRepo,
		ContentRepo:  contentRepo,
		CourseRepo:   courseRepo,
		Guard:        guard,
	}
}

// MarkModuleComplete 幂等；不会联动内容或课程完成状态
func (s *ProgressService) MarkModuleComplete(studentID, courseID, moduleID uint) (*CourseProgressView, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		return nil, err
	}
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil {
		return nil, err
	}
	if module.CourseID != courseID {
		return nil, util.NotFoundf("module %d in course %d", moduleID, courseID)
	}
	if _, err := s.Guard.EnrolledCourse(studentID, courseID); err != nil {
		return nil, err
	}

	progress, _, err := s.ProgressRepo.GetOrCreate(studentID, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.ProgressRepo.AddCompletedModule(progress.ID, moduleID); err != nil {
		return nil, err
	}
	progress.LastAccessedModuleID = &moduleID
	return s.view(progress)
}

func (s *ProgressService) MarkContentComplete(studentID, courseID, contentID uint) (*ModuleProgressView, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		return nil, err
	}
	content, err := s.ContentRepo.FindByID(contentID)
	if err != nil {
		return nil, err
	}
	module, err := s.ModuleRepo.FindByID(content.ModuleID)
	if err != nil {
		return nil, err
	}
	if module.CourseID != courseID {
		return nil, util.NotFoundf("content %d in course %d", contentID, courseID)
	}
	if _, err := s.Guard.EnrolledCourse(studentID, courseID); err != nil {
		return nil, err
	}

	progress, _, err := s.ProgressRepo.GetOrCreate(studentID, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.ProgressRepo.AddCompletedContent(progress.ID, contentID, module.ID); err != nil {
		return nil, err
	}
	return s.moduleView(progress, module.ID)
}

func (s *ProgressService) view(progress *model.CourseProgress) (*CourseProgressView, error) {
	total, err := s.ModuleRepo.CountByCourse(progress.CourseID)
	if err != nil {
		return nil, err
	}
	ids, err := s.ProgressRepo.CompletedModuleIDs(progress.ID)
	if err != nil {
		return nil, err
	}
	done := int64(len(ids))
	return &CourseProgressView{
		CourseProgress:       *progress,
		CompletedModuleIDs:   ids,
		CompletedModuleCount: done,
		TotalModules:         total,
		Percentage:           ProgressPercentage(done, total),
	}, nil
}

func (s *ProgressService) moduleView(progress *model.CourseProgress, moduleID uint) (*ModuleProgressView, error) {
	v := &ModuleProgressView{ModuleID: moduleID, CompletedContentIDs: []uint{}}
	total, err := s.ContentRepo.CountByModule(moduleID)
	if err != nil {
		return nil, err
	}
	v.TotalContents = total
	if progress != nil {
		if v.CompletedContents, err = s.ProgressRepo.CountCompletedContentsInModule(progress.ID, moduleID); err != nil {
			return nil, err
		}
		if v.CompletedContentIDs, err = s.ProgressRepo.CompletedContentIDs(progress.ID, moduleID); err != nil {
			return nil, err
		}
	}
	v.Percentage = ContentProgressPercentage(v.CompletedContents, v.TotalContents)
	return v, nil
}

// MyProgress 学生自己的全部课程进度
func (s *ProgressService) MyProgress(studentID uint) ([]CourseProgressView, error) {
	rows, err := s.ProgressRepo.ListByStudent(studentID)
	if err != nil {
		return nil, err
	}
	out := make([]CourseProgressView, 0, len(rows))
	for i := range rows {
		v, err := s.view(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// ModuleProgress 未产生进度时各项为 0
func (s *ProgressService) ModuleProgress(studentID, moduleID uint) (*ModuleProgressView, error) {
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Guard.EnrolledCourse(studentID, module.CourseID); err != nil {
		return nil, err
	}
	progress, err := s.ProgressRepo.Find(studentID, module.CourseID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	return s.moduleView(progress, moduleID)
}

// Dashboard 已激活课程及其有序章节
func (s *ProgressService) Dashboard(studentID uint) ([]model.CourseProgress, error) {
	return s.ProgressRepo.ListActiveByStudent(studentID)
}

// StudentsProgress 课程所有者查看每个选课学生的进度
func (s *ProgressService) StudentsProgress(userID, courseID uint) ([]StudentProgressRow, error) {
	if _, err := s.Guard.OwnedCourse(userID, courseID); err != nil {
		return nil, err
	}
	students, err := s.CourseRepo.ListStudents(courseID)
	if err != nil {
		return nil, err
	}
	byStudent, err := s.ProgressRepo.ByCourse(courseID)
	if err != nil {
		return nil, err
	}
	totalModules, err := s.ModuleRepo.CountByCourse(courseID)
	if err != nil {
		return nil, err
	}
	totalContents, err := s.ContentRepo.CountByCourse(courseID)
	if err != nil {
		return nil, err
	}

	rows := make([]StudentProgressRow, 0, len(students))
	for _, st := range students {
		row := StudentProgressRow{
			StudentID:     st.ID,
			Username:      st.Username,
			FullName:      st.FullName(),
			TotalModules:  totalModules,
			TotalContents: totalContents,
		}
		if p, ok := byStudent[st.ID]; ok {
			row.IsActive = p.IsActive
			if row.CompletedModules, err = s.ProgressRepo.CountCompletedModules(p.ID); err != nil {
				return nil, err
			}
			if row.CompletedContents, err = s.ProgressRepo.CountCompletedContents(p.ID); err != nil {
				return nil, err
			}
		}
		row.ProgressPercentage = ProgressPercentage(row.CompletedModules, totalModules)
		rows = append(rows, row)
	}
	return rows, nil
}

// ActivateStudent 返回进度行是否为本次新建
func (s *ProgressService) ActivateStudent(userID, courseID, studentID uint) (bool, error) {
	if _, err := s.Guard.OwnedCourse(userID, courseID); err != nil {
		return false, err
	}
	enrolled, err := s.CourseRepo.IsEnrolled(courseID, studentID)
	if err != nil {
		return false, err
	}
	if !enrolled {
		return false, util.NotFoundf("student %d in course %d", studentID, courseID)
	}
	progress, created, err := s.ProgressRepo.GetOrCreate(studentID, courseID)
	if err != nil {
		return false, err
	}
	return created, s.ProgressRepo.SetActive(progress.ID, true)
}

func (s *ProgressService) DeactivateStudent(userID, courseID, studentID uint) error {
	if _, err := s.Guard.OwnedCourse(userID, courseID); err != nil {
		return err
	}
	progress, err := s.ProgressRepo.Find(studentID, courseID)
	if err != nil {
		return err
	}
	return s.ProgressRepo.SetActive(progress.ID, false)
}
