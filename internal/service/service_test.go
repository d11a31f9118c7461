package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/testutil"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/lock"
	"learnhub_backend/pkg/mail"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	db       *gorm.DB
	cfg      *config.Config
	auth     *AuthService
	courses  *CourseService
	modules  *ModuleService
	contents *ContentService
	progress *ProgressService
	tests    *TestService
	audit    *IntegrityService
	tutor    *model.User
	student  *model.User
	course   *model.Course
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.DB(t)
	cfg := &config.Config{
		JWT:     config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour, ResetExpire: 30 * time.Minute},
		Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()},
	}

	assigner := repository.NewOrderAssigner(db, lock.NewLocalLocker())
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	moduleRepo := repository.NewModuleRepository(db, assigner)
	contentRepo := repository.NewContentRepository(db, assigner)
	progressRepo := repository.NewProgressRepository(db)
	testRepo := repository.NewTestRepository(db)

	guard := NewGuard(courseRepo, moduleRepo)
	storage := NewStorageService(cfg)
	mailer := mail.LogMailer{}

	e := &env{
		db:       db,
		cfg:      cfg,
		auth:     NewAuthService(userRepo, mailer, cfg),
		courses:  NewCourseService(courseRepo, moduleRepo, progressRepo, userRepo, guard, storage, mailer),
		modules:  NewModuleService(moduleRepo, courseRepo, guard, storage),
		contents: NewContentService(contentRepo, guard, storage),
		progress: NewProgressService(progressRepo, moduleRepo, contentRepo, courseRepo, guard),
		tests:    NewTestService(testRepo, moduleRepo, guard),
		audit:    NewIntegrityService(contentRepo),
	}
	e.tutor = testutil.SeedUser(t, db, "tutor", model.Tutor)
	e.student = testutil.SeedUser(t, db, "student", model.Student)
	e.course = testutil.SeedCourse(t, db, e.tutor, "Go Basics")
	return e
}

func (e *env) createModules(t *testing.T, n int) []*model.Module {
	t.Helper()
	out := make([]*model.Module, n)
	for i := range out {
		m, err := e.modules.Create(context.Background(), e.tutor.ID, e.course.ID, ModuleInput{Title: "Module"})
		require.NoError(t, err)
		out[i] = m
	}
	return out
}

func TestModuleCreateAssignsOrdersFromZero(t *testing.T) {
	e := newEnv(t)
	modules := e.createModules(t, 4)

	var got []int
	for _, m := range modules {
		got = append(got, m.Order)
	}
	sort.Ints(got)
	assert.Equal(t, []int{0, 1, 2, 3}, got)
}

func TestModuleCreateByNonOwnerIsForbidden(t *testing.T) {
	e := newEnv(t)
	_, err := e.modules.Create(context.Background(), e.student.ID, e.course.ID, ModuleInput{Title: "x"})
	assert.ErrorIs(t, err, util.ErrForbidden)

	_, err = e.modules.Create(context.Background(), e.tutor.ID, 9999, ModuleInput{Title: "x"})
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestProgressPercentage(t *testing.T) {
	assert.Equal(t, 25.0, ProgressPercentage(1, 4))
	assert.Equal(t, 0.0, ProgressPercentage(0, 0))
	assert.Equal(t, 100.0, ContentProgressPercentage(3, 3))
}

func TestMarkModuleCompleteReportsPercentage(t *testing.T) {
	e := newEnv(t)
	modules := e.createModules(t, 4)
	testutil.Enroll(t, e.db, e.course, e.student)

	view, err := e.progress.MarkModuleComplete(e.student.ID, e.course.ID, modules[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, view.Percentage)
	assert.EqualValues(t, 4, view.TotalModules)

	view, err = e.progress.MarkModuleComplete(e.student.ID, e.course.ID, modules[0].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, view.CompletedModuleCount)
}

func TestMarkModuleCompleteChecks(t *testing.T) {
	e := newEnv(t)
	modules := e.createModules(t, 1)
	other := testutil.SeedCourse(t, e.db, e.tutor, "Other")

	_, err := e.progress.MarkModuleComplete(e.student.ID, 9999, modules[0].ID)
	assert.ErrorIs(t, err, util.ErrNotFound)

	_, err = e.progress.MarkModuleComplete(e.student.ID, other.ID, modules[0].ID)
	assert.ErrorIs(t, err, util.ErrNotFound, "module from another course")

	_, err = e.progress.MarkModuleComplete(e.student.ID, e.course.ID, modules[0].ID)
	assert.ErrorIs(t, err, util.ErrForbidden, "not enrolled")
}

func TestMarkContentCompleteIsIdempotent(t *testing.T) {
	e := newEnv(t)
	module := e.createModules(t, 1)[0]
	testutil.Enroll(t, e.db, e.course, e.student)

	var contentIDs []uint
	for i := 0; i < 2; i++ {
		d, err := e.contents.Create(context.Background(), e.tutor.ID, module.ID, ContentInput{Type: "text", Title: "t", Body: "b"})
		require.NoError(t, err)
		contentIDs = append(contentIDs, d.ID)
	}

	_, err := e.progress.MarkContentComplete(e.student.ID, e.course.ID, contentIDs[0])
	require.NoError(t, err)
	view, err := e.progress.MarkContentComplete(e.student.ID, e.course.ID, contentIDs[0])
	require.NoError(t, err)

	assert.EqualValues(t, 1, view.CompletedContents)
	assert.Equal(t, 50.0, view.Percentage)
	assert.Equal(t, []uint{contentIDs[0]}, view.CompletedContentIDs)

	course, err := e.progress.MyProgress(e.student.ID)
	require.NoError(t, err)
	require.Len(t, course, 1)
	assert.Equal(t, 0.0, course[0].Percentage, "content completion does not complete modules")
}

func TestCreateContentValidation(t *testing.T) {
	e := newEnv(t)
	module := e.createModules(t, 1)[0]
	ctx := context.Background()

	_, err := e.contents.Create(ctx, e.tutor.ID, module.ID, ContentInput{Type: "text", Title: "t", Body: "  "})
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = e.contents.Create(ctx, e.tutor.ID, module.ID, ContentInput{Type: "bogus", Title: "t"})
	require.ErrorIs(t, err, util.ErrValidation)
	assert.Contains(t, err.Error(), "bogus")

	_, err = e.contents.Create(ctx, e.tutor.ID, module.ID, ContentInput{Type: "video", Title: "t", URL: "not a url"})
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = e.contents.Create(ctx, e.tutor.ID, module.ID, ContentInput{Type: "file", Title: "t"})
	assert.ErrorIs(t, err, util.ErrValidation)

	var count int64
	require.NoError(t, e.db.Model(&model.Content{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateContentByNonOwnerIsForbidden(t *testing.T) {
	e := newEnv(t)
	module := e.createModules(t, 1)[0]
	_, err := e.contents.Create(context.Background(), e.student.ID, module.ID, ContentInput{Type: "text", Title: "t", Body: "b"})
	assert.ErrorIs(t, err, util.ErrForbidden)
}

func TestCreateFileContentStoresUpload(t *testing.T) {
	e := newEnv(t)
	module := e.createModules(t, 1)[0]

	data := []byte("%PDF-1.4 lecture notes")
	d, err := e.contents.Create(context.Background(), e.tutor.ID, module.ID, ContentInput{
		Type:   "file",
		Title:  "Slides",
		Upload: &Upload{Filename: "slides.PDF", Size: int64(len(data)), Reader: bytes.NewReader(data)},
	})
	require.NoError(t, err)

	file, ok := d.Item.(*model.File)
	require.True(t, ok)
	assert.Equal(t, ".pdf", filepath.Ext(file.File))
	assert.Equal(t, "/uploads/"+file.File, d.URL)

	stored, err := os.ReadFile(filepath.Join(e.cfg.Storage.LocalPath, filepath.FromSlash(file.File)))
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	require.NoError(t, e.contents.Delete(context.Background(), e.tutor.ID, d.ID))
	_, err = os.Stat(filepath.Join(e.cfg.Storage.LocalPath, filepath.FromSlash(file.File)))
	assert.True(t, os.IsNotExist(err), "stored file removed with content")
}

func TestImageContentRejectsNonImages(t *testing.T) {
	e := newEnv(t)
	module := e.createModules(t, 1)[0]
	_, err := e.contents.Create(context.Background(), e.tutor.ID, module.ID, ContentInput{
		Type:   "image",
		Title:  "pic",
		Upload: &Upload{Filename: "a.png", Reader: bytes.NewReader([]byte("plain text"))},
	})
	assert.ErrorIs(t, err, util.ErrValidation)
}

func TestListModuleContentsResolvesItemsInOrder(t *testing.T) {
	e := newEnv(t)
	module := e.createModules(t, 1)[0]
	ctx := context.Background()

	_, err := e.contents.Create(ctx, e.tutor.ID, module.ID, ContentInput{Type: "text", Title: "intro", Body: "hello"})
	require.NoError(t, err)
	_, err = e.contents.Create(ctx, e.tutor.ID, module.ID, ContentInput{Type: "video", Title: "talk", URL: "https://example.com/v.mp4"})
	require.NoError(t, err)

	_, err = e.contents.ListModuleContents(ctx, e.student.ID, module.ID)
	assert.ErrorIs(t, err, util.ErrForbidden)

	testutil.Enroll(t, e.db, e.course, e.student)
	list, err := e.contents.ListModuleContents(ctx, e.student.ID, module.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 0, list[0].Order)
	assert.Equal(t, "hello", list[0].Item.(*model.Text).Body)
	assert.Equal(t, "https://example.com/v.mp4", list[1].Item.(*model.Video).URL)
}

func TestUpdateContentKeepsType(t *testing.T) {
	e := newEnv(t)
	module := e.createModules(t, 1)[0]
	ctx := context.Background()

	d, err := e.contents.Create(ctx, e.tutor.ID, module.ID, ContentInput{Type: "text", Title: "t", Body: "old"})
	require.NoError(t, err)

	_, err = e.contents.Update(ctx, e.tutor.ID, d.ID, ContentInput{Type: "video", Title: "t", URL: "https://x.y"})
	assert.ErrorIs(t, err, util.ErrValidation)

	updated, err := e.contents.Update(ctx, e.tutor.ID, d.ID, ContentInput{Title: "renamed", Body: "new"})
	require.NoError(t, err)
	text := updated.Item.(*model.Text)
	assert.Equal(t, "renamed", text.Title)
	assert.Equal(t, "new", text.Body)
	assert.Equal(t, d.Order, updated.Order)
}

func TestNonOwnerCannotDeleteCourse(t *testing.T) {
	e := newEnv(t)
	e.createModules(t, 2)

	err := e.courses.Delete(context.Background(), e.student.ID, e.course.ID)
	assert.ErrorIs(t, err, util.ErrForbidden)

	course, err := e.courses.Get(e.course.ID)
	require.NoError(t, err)
	assert.Equal(t, e.course.Title, course.Title)
	assert.Len(t, course.Modules, 2)

	require.NoError(t, e.courses.Delete(context.Background(), e.tutor.ID, e.course.ID))
	_, err = e.courses.Get(e.course.ID)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestCreateCourseResizesImageAndCreatesSubject(t *testing.T) {
	e := newEnv(t)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3000, 1500))))

	course, err := e.courses.Create(context.Background(), e.tutor.ID,
		CourseInput{Title: "Go Basics", Overview: "o", Subject: "Programming"},
		&Upload{Filename: "cover.png", Reader: &buf})
	require.NoError(t, err)
	assert.Equal(t, "programming", course.Subject.Slug)
	assert.NotEqual(t, e.course.Slug, course.Slug)

	f, err := os.Open(filepath.Join(e.cfg.Storage.LocalPath, filepath.FromSlash(course.Image)))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, util.ImageMaxEdge, cfg.Width)

	_, err = e.courses.Create(context.Background(), e.tutor.ID, CourseInput{Title: "", Overview: "o", Subject: "s"}, nil)
	assert.ErrorIs(t, err, util.ErrValidation)
}

func TestEnrollConflictMessages(t *testing.T) {
	e := newEnv(t)
	module := e.createModules(t, 1)[0]
	ctx := context.Background()

	_, err := e.courses.Enroll(ctx, e.student.ID, e.course.ID)
	require.NoError(t, err)

	_, err = e.courses.Enroll(ctx, e.student.ID, e.course.ID)
	require.ErrorIs(t, err, util.ErrConflict)
	assert.Contains(t, err.Error(), "already enrolled")

	_, err = e.progress.MarkModuleComplete(e.student.ID, e.course.ID, module.ID)
	require.NoError(t, err)
	_, err = e.courses.Enroll(ctx, e.student.ID, e.course.ID)
	require.ErrorIs(t, err, util.ErrConflict)
	assert.Contains(t, err.Error(), "already completed")

	_, err = e.courses.Enroll(ctx, e.student.ID, 9999)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestStudentsProgressAndActivation(t *testing.T) {
	e := newEnv(t)
	modules := e.createModules(t, 2)
	testutil.Enroll(t, e.db, e.course, e.student)
	late := testutil.SeedUser(t, e.db, "late", model.Student)
	testutil.Enroll(t, e.db, e.course, late)

	_, err := e.progress.MarkModuleComplete(e.student.ID, e.course.ID, modules[1].ID)
	require.NoError(t, err)

	rows, err := e.progress.StudentsProgress(e.tutor.ID, e.course.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	byName := map[string]StudentProgressRow{}
	for _, r := range rows {
		byName[r.Username] = r
	}
	assert.Equal(t, 50.0, byName["student"].ProgressPercentage)
	assert.Equal(t, 0.0, byName["late"].ProgressPercentage)

	_, err = e.progress.StudentsProgress(e.student.ID, e.course.ID)
	assert.ErrorIs(t, err, util.ErrForbidden)

	assert.ErrorIs(t, e.progress.DeactivateStudent(e.tutor.ID, e.course.ID, late.ID), util.ErrNotFound)

	created, err := e.progress.ActivateStudent(e.tutor.ID, e.course.ID, late.ID)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = e.progress.ActivateStudent(e.tutor.ID, e.course.ID, e.student.ID)
	require.NoError(t, err)
	assert.False(t, created)

	dash, err := e.progress.Dashboard(e.student.ID)
	require.NoError(t, err)
	require.Len(t, dash, 1)
	require.Len(t, dash[0].Course.Modules, 2)
	assert.Equal(t, 0, dash[0].Course.Modules[0].Order)

	require.NoError(t, e.progress.DeactivateStudent(e.tutor.ID, e.course.ID, e.student.ID))
	dash, err = e.progress.Dashboard(e.student.ID)
	require.NoError(t, err)
	assert.Empty(t, dash)
}

func validTestInput(start, end time.Time) TestInput {
	return TestInput{
		Name:       "Quiz 1",
		StartTime:  start,
		EndTime:    end,
		TotalMarks: 2,
		Questions: []QuestionInput{
			{QuestionType: "MCQ", Text: "2+2?", Options: []string{"3", "4", "5"}, CorrectAnswer: "B"},
			{QuestionType: "TEXT", Text: "Why?"},
		},
	}
}

func TestCreateTestValidation(t *testing.T) {
	e := newEnv(t)
	module := e.createModules(t, 1)[0]
	now := time.Now()

	in := validTestInput(now, now.Add(-time.Minute))
	_, err := e.tests.CreateTest(e.tutor.ID, module.ID, in)
	assert.ErrorIs(t, err, util.ErrValidation, "end before start")

	in = validTestInput(now, now.Add(time.Hour))
	in.Questions[0].CorrectAnswer = "D"
	_, err = e.tests.CreateTest(e.tutor.ID, module.ID, in)
	assert.ErrorIs(t, err, util.ErrValidation, "answer refers to an empty option")

	in = validTestInput(now, now.Add(time.Hour))
	in.Questions = nil
	_, err = e.tests.CreateTest(e.tutor.ID, module.ID, in)
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = e.tests.CreateTest(e.student.ID, module.ID, validTestInput(now, now.Add(time.Hour)))
	assert.ErrorIs(t, err, util.ErrForbidden)

	view, err := e.tests.CreateTest(e.tutor.ID, module.ID, validTestInput(now.Add(-time.Minute), now.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, model.TestActive, view.Status)
	assert.Len(t, view.Questions, 2)
}

func TestSubmitAnswersGradesMCQ(t *testing.T) {
	e := newEnv(t)
	module := e.createModules(t, 1)[0]
	testutil.Enroll(t, e.db, e.course, e.student)
	now := time.Now()
	view, err := e.tests.CreateTest(e.tutor.ID, module.ID, validTestInput(now.Add(-time.Minute), now.Add(time.Hour)))
	require.NoError(t, err)
	mcq, text := view.Questions[0], view.Questions[1]

	_, err = e.tests.SubmitAnswers(context.Background(), e.student.ID, view.ID, []AnswerInput{
		{QuestionID: mcq.ID, SelectedOption: "b"},
	})
	assert.ErrorIs(t, err, util.ErrValidation)

	res, err := e.tests.SubmitAnswers(context.Background(), e.student.ID, view.ID, []AnswerInput{
		{QuestionID: mcq.ID, SelectedOption: "B"},
		{QuestionID: text.ID, TextAnswer: "because"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 2, res.Answered)

	results, err := e.tests.TestResults(e.student.ID, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, results.Score)
	assert.Equal(t, 2, results.TotalQuestions)
	require.Len(t, results.Answers, 2)
	assert.True(t, results.Answers[0].IsCorrect)
	assert.Equal(t, "B", results.Answers[0].CorrectAnswer)
	assert.False(t, results.Answers[1].IsCorrect)
	assert.Empty(t, results.Answers[1].CorrectAnswer)
}

func TestSubmitAnswersOutsideWindowPersistsNothing(t *testing.T) {
	e := newEnv(t)
	module := e.createModules(t, 1)[0]
	testutil.Enroll(t, e.db, e.course, e.student)
	now := time.Now()
	view, err := e.tests.CreateTest(e.tutor.ID, module.ID, validTestInput(now.Add(time.Hour), now.Add(2*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, model.TestNotStarted, view.Status)

	_, err = e.tests.SubmitAnswers(context.Background(), e.student.ID, view.ID, []AnswerInput{
		{QuestionID: view.Questions[0].ID, SelectedOption: "B"},
	})
	assert.ErrorIs(t, err, util.ErrTestInactive)

	e.tests.Now = func() time.Time { return now.Add(3 * time.Hour) }
	_, err = e.tests.SubmitAnswers(context.Background(), e.student.ID, view.ID, []AnswerInput{
		{QuestionID: view.Questions[0].ID, SelectedOption: "B"},
	})
	assert.ErrorIs(t, err, util.ErrTestInactive)

	var count int64
	require.NoError(t, e.db.Model(&model.Answer{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitAnswersBatchIsAtomic(t *testing.T) {
	e := newEnv(t)
	module := e.createModules(t, 1)[0]
	testutil.Enroll(t, e.db, e.course, e.student)
	now := time.Now()
	view, err := e.tests.CreateTest(e.tutor.ID, module.ID, validTestInput(now.Add(-time.Minute), now.Add(time.Hour)))
	require.NoError(t, err)

	_, err = e.tests.SubmitAnswers(context.Background(), e.student.ID, view.ID, []AnswerInput{
		{QuestionID: view.Questions[0].ID, SelectedOption: "B"},
		{QuestionID: 424242, SelectedOption: "A"},
	})
	assert.ErrorIs(t, err, util.ErrNotFound)

	var count int64
	require.NoError(t, e.db.Model(&model.Answer{}).Count(&count).Error)
	assert.Zero(t, count)

	outsider := testutil.SeedUser(t, e.db, "outsider", model.Student)
	_, err = e.tests.SubmitAnswers(context.Background(), outsider.ID, view.ID, []AnswerInput{
		{QuestionID: view.Questions[0].ID, SelectedOption: "B"},
	})
	assert.ErrorIs(t, err, util.ErrForbidden)
}

func TestIntegrityAuditFindsBrokenReferences(t *testing.T) {
	e := newEnv(t)
	module := e.createModules(t, 1)[0]
	ctx := context.Background()

	_, err := e.contents.Create(ctx, e.tutor.ID, module.ID, ContentInput{Type: "text", Title: "ok", Body: "b"})
	require.NoError(t, err)
	broken, err := e.contents.Create(ctx, e.tutor.ID, module.ID, ContentInput{Type: "video", Title: "gone", URL: "https://example.com"})
	require.NoError(t, err)
	require.NoError(t, e.db.Delete(&model.Video{}, broken.ObjectID).Error)

	_, err = e.contents.Resolve(ctx, &broken.Content)
	assert.ErrorIs(t, err, util.ErrNotFound)

	report, err := e.audit.Audit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	require.Len(t, report.Broken, 1)
	assert.Equal(t, broken.ID, report.Broken[0].ContentID)
}

func TestAuthRegisterLoginAndReset(t *testing.T) {
	e := newEnv(t)

	res, err := e.auth.Register(RegisterInput{Username: "ada", Email: "ada@example.com", Password: "password1", Role: "tutor"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, model.Tutor, res.User.Role)

	_, err = e.auth.Register(RegisterInput{Username: "ada", Email: "other@example.com", Password: "password1", Role: "student"})
	assert.ErrorIs(t, err, util.ErrConflict)

	_, err = e.auth.Register(RegisterInput{Username: "bob", Email: "bob@example.com", Password: "password1", Role: "admin"})
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = e.auth.Login(LoginInput{Login: "ada", Password: "wrong-password"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	login, err := e.auth.Login(LoginInput{Login: "ada@example.com", Password: "password1"})
	require.NoError(t, err)
	claims, err := util.ParseJWT(login.Token, e.cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	assert.ErrorIs(t, e.auth.RequestPasswordReset("nobody@example.com"), util.ErrNotFound)
	require.NoError(t, e.auth.RequestPasswordReset("ada@example.com"))

	reset, err := util.GenerateResetToken(res.User, e.cfg.JWT.Secret, time.Minute)
	require.NoError(t, err)
	assert.ErrorIs(t, e.auth.ConfirmPasswordReset(login.Token, "newpassword"), util.ErrValidation)
	require.NoError(t, e.auth.ConfirmPasswordReset(reset, "newpassword"))

	// 同一令牌不能再次使用
	assert.ErrorIs(t, e.auth.ConfirmPasswordReset(reset, "otherpassword"), util.ErrValidation)

	_, err = e.auth.Login(LoginInput{Login: "ada", Password: "newpassword"})
	assert.NoError(t, err)
	_, err = e.auth.Login(LoginInput{Login: "ada", Password: "otherpassword"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

func TestGuardPredicates(t *testing.T) {
	course := &model.Course{OwnerID: 7}

	assert.True(t, CanMutateCourse(7, course))
	assert.False(t, CanMutateCourse(8, course))
	assert.True(t, CanViewModuleContents(7, course, false))
	assert.True(t, CanViewModuleContents(8, course, true))
	assert.False(t, CanViewModuleContents(8, course, false))
}

func TestStudentProgressViews(t *testing.T) {
	e := newEnv(t)
	modules := e.createModules(t, 2)
	first := testutil.SeedTextContent(t, e.db, modules[0], e.tutor, 0)
	testutil.SeedTextContent(t, e.db, modules[0], e.tutor, 1)

	_, err := e.progress.ModuleProgress(e.student.ID, modules[0].ID)
	assert.ErrorIs(t, err, util.ErrForbidden)

	testutil.Enroll(t, e.db, e.course, e.student)

	// 尚无进度行时各项为 0
	view, err := e.progress.ModuleProgress(e.student.ID, modules[0].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, view.TotalContents)
	assert.Equal(t, 0.0, view.Percentage)
	assert.Empty(t, view.CompletedContentIDs)

	_, err = e.progress.MarkContentComplete(e.student.ID, e.course.ID, first.ID)
	require.NoError(t, err)

	view, err = e.progress.ModuleProgress(e.student.ID, modules[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, view.Percentage)
	assert.Equal(t, []uint{first.ID}, view.CompletedContentIDs)

	// 另一章节的内容进度不受影响
	view, err = e.progress.ModuleProgress(e.student.ID, modules[1].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, view.CompletedContents)

	mine, err := e.progress.MyProgress(e.student.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, e.course.ID, mine[0].CourseID)
	assert.Equal(t, 0.0, mine[0].Percentage)
	assert.EqualValues(t, 2, mine[0].TotalModules)
}

func TestModuleUpdateAndDelete(t *testing.T) {
	e := newEnv(t)
	modules := e.createModules(t, 2)
	testutil.SeedTextContent(t, e.db, modules[0], e.tutor, 0)
	now := time.Now()
	testutil.SeedTest(t, e.db, modules[0], now, now.Add(time.Hour))

	_, err := e.modules.Update(e.student.ID, modules[0].ID, ModuleInput{Title: "Hijack"})
	assert.ErrorIs(t, err, util.ErrForbidden)

	_, err = e.modules.Update(e.tutor.ID, modules[0].ID, ModuleInput{})
	assert.ErrorIs(t, err, util.ErrValidation)

	updated, err := e.modules.Update(e.tutor.ID, modules[0].ID, ModuleInput{Title: "Renamed", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 0, updated.Order)

	require.NoError(t, e.modules.Delete(context.Background(), e.tutor.ID, modules[0].ID))

	_, err = e.modules.Get(modules[0].ID)
	assert.ErrorIs(t, err, util.ErrNotFound)

	var contents, tests int64
	require.NoError(t, e.db.Model(&model.Content{}).Where("module_id = ?", modules[0].ID).Count(&contents).Error)
	require.NoError(t, e.db.Model(&model.Test{}).Where("module_id = ?", modules[0].ID).Count(&tests).Error)
	assert.Zero(t, contents)
	assert.Zero(t, tests)

	rest, err := e.modules.List(e.course.ID)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, modules[1].ID, rest[0].ID)
}
