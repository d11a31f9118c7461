package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
	MaxUpload     int64
}

func NewCourseController(courseService *service.CourseService, maxUpload int64) *CourseController {
	return &CourseController{CourseService: courseService, MaxUpload: maxUpload}
}

// @Summary 课程分类列表
// @Tags 课程
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Subject}
// @Router /api/subjects [get]
func (c *CourseController) ListSubjects(ctx *gin.Context) {
	subjects, err := c.CourseService.ListSubjects()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, subjects)
}

// @Summary 课程列表
// @Description 最新创建的在前，可按分类过滤
// @Tags 课程
// @Produce json
// @Param subject query string false "分类 slug"
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	courses, err := c.CourseService.List(ctx.Query("subject"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// @Summary 课程详情
// @Description 包含按序排列的章节
// @Tags 课程
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	course, err := c.CourseService.Get(id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// @Summary 我创建的课程
// @Tags 导师-课程
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/tutor/courses [get]
func (c *CourseController) ListOwnedCourses(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courses, err := c.CourseService.ListOwned(userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// @Summary 创建课程
// @Description 分类不存在时自动创建；封面图会被缩放
// @Tags 导师-课程
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "标题"
// @Param overview formData string true "简介"
// @Param subject formData string true "分类名称"
// @Param image formData file false "封面图"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Router /api/tutor/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req service.CourseInput
	if err := ctx.ShouldBind(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	image, done, err := formUpload(ctx, "image", c.MaxUpload)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	defer done()

	course, err := c.CourseService.Create(ctx.Request.Context(), userID, req, image)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// @Summary 更新课程
// @Tags 导师-课程
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Param title formData string true "标题"
// @Param overview formData string true "简介"
// @Param subject formData string true "分类名称"
// @Param image formData file false "新封面图"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/tutor/courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.CourseInput
	if err := ctx.ShouldBind(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	image, done, err := formUpload(ctx, "image", c.MaxUpload)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	defer done()

	course, err := c.CourseService.Update(ctx.Request.Context(), userID, id, req, image)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// @Summary 删除课程
// @Description 级联删除章节、内容、测验与学习进度
// @Tags 导师-课程
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/tutor/courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := c.CourseService.Delete(ctx.Request.Context(), userID, id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "course deleted"})
}

// @Summary 选课
// @Tags 学生
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Success 201 {object} util.Response{data=model.CourseProgress}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "已选过该课程"
// @Router /api/courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	progress, err := c.CourseService.Enroll(ctx.Request.Context(), userID, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, progress)
}

// @Summary 移除学生
// @Tags 导师-学生
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Param studentId path int true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/tutor/courses/{id}/students/{studentId} [delete]
func (c *CourseController) RemoveStudent(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	studentID, ok := paramID(ctx, "studentId")
	if !ok {
		return
	}
	if err := c.CourseService.RemoveStudent(userID, id, studentID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "student removed"})
}

// @Summary 课程选课学生
// @Tags 导师-学生
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.User}
// @Router /api/tutor/courses/{id}/students [get]
func (c *CourseController) ListStudents(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	students, err := c.CourseService.ListStudents(userID, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, students)
}
