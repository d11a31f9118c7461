package service

import (
	"context"
	"fmt"
	"html"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/mail"
	"time"

	"go.uber.org/zap"
)

type CourseInput struct {
	Title    string `json:"title" form:"title" validate:"required,max=200"`
	Overview string `json:"overview" form:"overview" validate:"required"`
	Subject  string `json:"subject" form:"subject" validate:"required,max=200"`
}

type CourseService struct {
	CourseRepo   *repository.CourseRepository
	ModuleRepo   *repository.ModuleRepository
	ProgressRepo *repository.ProgressRepository
	UserRepo     *repository.UserRepository
	Guard        *Guard
	Storage      *StorageService
	Mailer       mail.Mailer
}

func NewCourseService(
	courseRepo *repository.CourseRepository,
	moduleRepo *repository.ModuleRepository,
	progressRepo *repository.ProgressRepository,
	userRepo *repository.UserRepository,
	guard *Guard,
	storage *StorageService,
	mailer mail.Mailer,
) *CourseService {
	return &CourseService{
		CourseRepo:   courseRepo,
		ModuleRepo:   moduleRepo,
		ProgressRepo: progressRepo,
		UserRepo:     userRepo,
		Guard:        guard,
		Storage:      storage,
		Mailer:       mailer,
	}
}

func (s *CourseService) Create(ctx context.Context, ownerID uint, in CourseInput, image *Upload) (*model.Course, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	subject, err := s.CourseRepo.GetOrCreateSubject(in.Subject)
	if err != nil {
		return nil, err
	}

	course := &model.Course{
		OwnerID:   ownerID,
		SubjectID: subject.ID,
		Title:     in.Title,
		Overview:  in.Overview,
	}
	if image != nil {
		key, err := s.Storage.StoreImage(ctx, "courses", image)
		if err != nil {
			return nil, err
		}
		course.Image = key
	}

	if err := s.CourseRepo.Create(course); err != nil {
		s.Storage.Remove(ctx, course.Image)
		return nil, err
	}
	course.Subject = subject
	return course, nil
}

func (s *CourseService) Update(ctx context.Context, userID, courseID uint, in CourseInput, image *Upload) (*model.Course, error) {
	course, err := s.Guard.OwnedCourse(userID, courseID)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	subject, err := s.CourseRepo.GetOrCreateSubject(in.Subject)
	if err != nil {
		return nil, err
	}

	titleChanged := course.Title != in.Title
	course.Title = in.Title
	course.Overview = in.Overview
	course.SubjectID = subject.ID
	course.Subject = subject

	oldImage := course.Image
	if image != nil {
		key, err := s.Storage.StoreImage(ctx, "courses", image)
		if err != nil {
			return nil, err
		}
		course.Image = key
	}

	if err := s.CourseRepo.Update(course, titleChanged); err != nil {
		if course.Image != oldImage {
			s.Storage.Remove(ctx, course.Image)
		}
		return nil, err
	}
	if course.Image != oldImage {
		s.Storage.Remove(ctx, oldImage)
	}
	return course, nil
}

// Delete 级联删除课程，存储中的文件在事务提交后清理
func (s *CourseService) Delete(ctx context.Context, userID, courseID uint) error {
	course, err := s.Guard.OwnedCourse(userID, courseID)
	if err != nil {
		return err
	}
	files, err := s.CourseRepo.Delete(course)
	if err != nil {
		return err
	}
	s.Storage.Remove(ctx, files...)
	logger.Log.Info("Course deleted",
		zap.Uint("course_id", courseID),
		zap.Int("files", len(files)))
	return nil
}

func (s *CourseService) List(subjectSlug string) ([]model.Course, error) {
	return s.CourseRepo.List(subjectSlug)
}

func (s *CourseService) Get(courseID uint) (*model.Course, error) {
	return s.CourseRepo.FindWithModules(courseID)
}

func (s *CourseService) ListOwned(ownerID uint) ([]model.Course, error) {
	return s.CourseRepo.ListByOwner(ownerID)
}

func (s *CourseService) ListSubjects() ([]model.Subject, error) {
	return s.CourseRepo.ListSubjects()
}

// Enroll 重复选课返回冲突，已学完的课程给出不同提示
func (s *CourseService) Enroll(ctx context.Context, studentID, courseID uint) (*model.CourseProgress, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.CourseRepo.IsEnrolled(courseID, studentID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		if s.completed(studentID, courseID) {
			return nil, util.Conflictf("you have already completed %q", course.Title)
		}
		return nil, util.Conflictf("you are already enrolled in %q", course.Title)
	}

	progress := &model.CourseProgress{DateJoined: time.Now()}
	if err := s.CourseRepo.Enroll(courseID, studentID, progress); err != nil {
		return nil, err
	}

	if student, err := s.UserRepo.FindByID(studentID); err == nil {
		body := fmt.Sprintf("<p>Hi %s,</p><p>You are now enrolled in <b>%s</b>. Happy learning!</p>",
			html.EscapeString(student.FullName()), html.EscapeString(course.Title))
		mail.SendAsync(s.Mailer, student.Email, "Welcome to "+course.Title, body)
	}
	return progress, nil
}

func (s *CourseService) completed(studentID, courseID uint) bool {
	progress, err := s.ProgressRepo.Find(studentID, courseID)
	if err != nil {
		return false
	}
	total, err := s.ModuleRepo.CountByCourse(courseID)
	if err != nil {
		return false
	}
	done, err := s.ProgressRepo.CountCompletedModules(progress.ID)
	if err != nil {
		return false
	}
	return total > 0 && ProgressPercentage(done, total) >= 100
}

func (s *CourseService) RemoveStudent(userID, courseID, studentID uint) error {
	if _, err := s.Guard.OwnedCourse(userID, courseID); err != nil {
		return err
	}
	return s.CourseRepo.RemoveStudent(courseID, studentID)
}

func (s *CourseService) ListStudents(userID, courseID uint) ([]model.User, error) {
	if _, err := s.Guard.OwnedCourse(userID, courseID); err != nil {
		return nil, err
	}
	return s.CourseRepo.ListStudents(courseID)
}
