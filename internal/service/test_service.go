package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/tracing"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type QuestionInput struct {
	QuestionType  string   `json:"questionType" validate:"required,oneof=MCQ TEXT"`
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"max=4"`
	CorrectAnswer string   `json:"correctAnswer"`
}

type TestInput struct {
	Name       string          `json:"name" validate:"required,max=200"`
	StartTime  time.Time       `json:"startTime" validate:"required"`
	EndTime    time.Time       `json:"endTime" validate:"required,gtfield=StartTime"`
	TotalMarks int             `json:"totalMarks" validate:"min=0"`
	Questions  []QuestionInput `json:"questions" validate:"required,min=1,dive"`
}

type AnswerInput struct {
	QuestionID     uint   `json:"questionId" validate:"required"`
	SelectedOption string `json:"selectedOption"`
	TextAnswer     string `json:"textAnswer"`
}

// TestView 测验详情，状态按当前时间计算
type TestView struct {
	model.Test
	Status model.TestStatus `json:"status"`
}

type SubmitResult struct {
	Score    int `json:"score"`
	Answered int `json:"answered"`
}

type AnswerResult struct {
	QuestionID     uint   `json:"questionId"`
	Question       string `json:"question"`
	SelectedOption string `json:"selectedOption,omitempty"`
	TextAnswer     string `json:"textAnswer,omitempty"`
	IsCorrect      bool   `json:"isCorrect"`
	CorrectAnswer  string `json:"correctAnswer,omitempty"`
}

type TestResults struct {
	Test           string         `json:"test"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"totalQuestions"`
	Answers        []AnswerResult `json:"answers"`
}

type TestService struct {
	TestRepo   *repository.TestRepository
	ModuleRepo *repository.ModuleRepository
	Guard      *Guard
	Now        func() time.Time
}

func NewTestService(testRepo *repository.TestRepository, moduleRepo *repository.ModuleRepository, guard *Guard) *TestService {
	return &TestService{
		TestRepo:   testRepo,
		ModuleRepo: moduleRepo,
		Guard:      guard,
		Now:        time.Now,
	}
}

func validateQuestion(i int, q *QuestionInput) error {
	field := "questions[" + strconv.Itoa(i) + "]"
	if model.QuestionType(q.QuestionType) != model.QuestionMCQ {
		return nil
	}
	filled := 0
	for _, o := range q.Options {
		if strings.TrimSpace(o) != "" {
			filled++
		}
	}
	if filled < 2 {
		return util.NewValidationError(field+".options", "multiple choice questions need at least two options")
	}
	probe := model.Question{Options: q.Options}
	if _, ok := probe.Option(q.CorrectAnswer); !ok {
		return util.NewValidationError(field+".correctAnswer", "%q does not refer to a non-empty option A-D", q.CorrectAnswer)
	}
	return nil
}

func (s *TestService) CreateTest(userID, moduleID uint, in TestInput) (*TestView, error) {
	if _, _, err := s.Guard.OwnedModule(userID, moduleID); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	test := &model.Test{
		ModuleID:   moduleID,
		Name:       in.Name,
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		TotalMarks: in.TotalMarks,
	}
	for i := range in.Questions {
		q := &in.Questions[i]
		if err := validateQuestion(i, q); err != nil {
			return nil, err
		}
		question := model.Question{
			QuestionType: model.QuestionType(q.QuestionType),
			Text:         q.Text,
		}
		if question.QuestionType == model.QuestionMCQ {
			question.Options = q.Options
			question.CorrectAnswer = q.CorrectAnswer
		}
		test.Questions = append(test.Questions, question)
	}

	if err := s.TestRepo.Create(test); err != nil {
		return nil, err
	}
	return &TestView{Test: *test, Status: test.Status(s.Now())}, nil
}

// viewable 测验对课程所有者和选课学生可见
func (s *TestService) viewable(userID, testID uint) (*model.Test, error) {
	test, err := s.TestRepo.FindByID(testID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.Guard.ViewableModule(userID, test.ModuleID); err != nil {
		return nil, err
	}
	return test, nil
}

func (s *TestService) GetTest(userID, testID uint) (*TestView, error) {
	test, err := s.viewable(userID, testID)
	if err != nil {
		return nil, err
	}
	return &TestView{Test: *test, Status: test.Status(s.Now())}, nil
}

func (s *TestService) ListModuleTests(userID, moduleID uint) ([]TestView, error) {
	if _, _, err := s.Guard.ViewableModule(userID, moduleID); err != nil {
		return nil, err
	}
	tests, err := s.TestRepo.ListByModule(moduleID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	out := make([]TestView, 0, len(tests))
	for _, t := range tests {
		out = append(out, TestView{Test: t, Status: t.Status(now)})
	}
	return out, nil
}

func (s *TestService) DeleteTest(userID, testID uint) error {
	test, err := s.TestRepo.FindByID(testID)
	if err != nil {
		return err
	}
	if _, _, err := s.Guard.OwnedModule(userID, test.ModuleID); err != nil {
		return err
	}
	return s.TestRepo.Delete(testID)
}

// SubmitAnswers 整批作答原子写入；测验不在作答时间内时什么都不写
func (s *TestService) SubmitAnswers(ctx context.Context, studentID, testID uint, answers []AnswerInput) (result *SubmitResult, err error) {
	_, end := tracing.Start(ctx, "TestService.SubmitAnswers",
		attribute.Int64("test.id", int64(testID)),
		attribute.Int("answers", len(answers)))
	defer func() { end(err) }()

	test, err := s.TestRepo.FindByID(testID)
	if err != nil {
		return nil, err
	}
	if !test.IsActive(s.Now()) {
		return nil, util.ErrTestInactive
	}
	module, err := s.ModuleRepo.FindByID(test.ModuleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Guard.EnrolledCourse(studentID, module.CourseID); err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, util.NewValidationError("answers", "at least one answer is required")
	}

	questions := make(map[uint]*model.Question, len(test.Questions))
	for i := range test.Questions {
		questions[test.Questions[i].ID] = &test.Questions[i]
	}

	rows := make([]model.Answer, 0, len(answers))
	seen := make(map[uint]bool, len(answers))
	score := 0
	for _, in := range answers {
		q, ok := questions[in.QuestionID]
		if !ok {
			return nil, util.NotFoundf("question %d in test %d", in.QuestionID, testID)
		}
		if seen[q.ID] {
			return nil, util.NewValidationError("answers", "question %d answered twice", q.ID)
		}
		seen[q.ID] = true

		a := model.Answer{StudentID: studentID, QuestionID: q.ID}
		switch q.QuestionType {
		case model.QuestionMCQ:
			// 选项按原值比较，不做大小写归一
			a.SelectedOption = in.SelectedOption
			if _, ok := q.Option(a.SelectedOption); !ok {
				return nil, util.NewValidationError("selectedOption", "%q is not an option of question %d", in.SelectedOption, q.ID)
			}
		default:
			a.TextAnswer = in.TextAnswer
		}
		a.Grade(q)
		if a.IsCorrect {
			score++
		}
		rows = append(rows, a)
	}

	if err := s.TestRepo.SaveAnswers(studentID, rows); err != nil {
		return nil, err
	}
	for _, a := range rows {
		monitoring.AnswersGraded.WithLabelValues(string(questions[a.QuestionID].QuestionType), strconv.FormatBool(a.IsCorrect)).Inc()
	}
	logger.Log.Info("Answers submitted",
		zap.Uint("test_id", testID),
		zap.Uint("student_id", studentID),
		zap.Int("score", score))
	return &SubmitResult{Score: score, Answered: len(rows)}, nil
}

// TestResults 当前用户的作答情况，只有选择题给出正确答案
func (s *TestService) TestResults(userID, testID uint) (*TestResults, error) {
	test, err := s.viewable(userID, testID)
	if err != nil {
		return nil, err
	}
	answers, err := s.TestRepo.AnswersFor(userID, testID)
	if err != nil {
		return nil, err
	}

	questions := make(map[uint]*model.Question, len(test.Questions))
	for i := range test.Questions {
		questions[test.Questions[i].ID] = &test.Questions[i]
	}

	res := &TestResults{
		Test:           test.Name,
		TotalQuestions: len(test.Questions),
		Answers:        make([]AnswerResult, 0, len(answers)),
	}
	for _, a := range answers {
		q := questions[a.QuestionID]
		if q == nil {
			continue
		}
		r := AnswerResult{
			QuestionID:     q.ID,
			Question:       q.Text,
			SelectedOption: a.SelectedOption,
			TextAnswer:     a.TextAnswer,
			IsCorrect:      a.IsCorrect,
		}
		if q.QuestionType == model.QuestionMCQ {
			r.CorrectAnswer = q.CorrectAnswer
		}
		if a.IsCorrect {
			res.Score++
		}
		res.Answers = append(res.Answers, r)
	}
	return res, nil
}
