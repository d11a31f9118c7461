package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// @Summary 标记章节完成
// @Description 重复标记不会重复计数
// @Tags 学生
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Param moduleId path int true "章节ID"
// @Success 200 {object} util.Response{data=service.CourseProgressView}
// @Failure 403 {object} util.Response "未选课"
// @Failure 404 {object} util.Response
// @Router /api/courses/{id}/modules/{moduleId}/complete [post]
func (c *ProgressController) CompleteModule(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	moduleID, ok := paramID(ctx, "moduleId")
	if !ok {
		return
	}
	view, err := c.ProgressService.MarkModuleComplete(userID, courseID, moduleID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 标记内容完成
// @Tags 学生
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Param contentId path int true "内容ID"
// @Success 200 {object} util.Response{data=service.ModuleProgressView}
// @Router /api/courses/{id}/contents/{contentId}/complete [post]
func (c *ProgressController) CompleteContent(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	contentID, ok := paramID(ctx, "contentId")
	if !ok {
		return
	}
	view, err := c.ProgressService.MarkContentComplete(userID, courseID, contentID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 我的学习进度
// @Tags 学生
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.CourseProgressView}
// @Router /api/student/progress [get]
func (c *ProgressController) MyProgress(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	views, err := c.ProgressService.MyProgress(userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// @Summary 章节内容进度
// @Tags 学生
// @Produce json
// @Security BearerAuth
// @Param id path int true "章节ID"
// @Success 200 {object} util.Response{data=service.ModuleProgressView}
// @Router /api/student/modules/{id}/progress [get]
func (c *ProgressController) ModuleProgress(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	moduleID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	view, err := c.ProgressService.ModuleProgress(userID, moduleID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 学生仪表盘
// @Description 已激活的课程及其章节
// @Tags 学生
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.CourseProgress}
// @Router /api/student/dashboard [get]
func (c *ProgressController) Dashboard(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	rows, err := c.ProgressService.Dashboard(userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}

// @Summary 学生进度总览
// @Tags 导师-学生
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]service.StudentProgressRow}
// @Router /api/tutor/courses/{id}/progress [get]
func (c *ProgressController) StudentsProgress(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	rows, err := c.ProgressService.StudentsProgress(userID, courseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}

// @Summary 激活学生
// @Description 进度不存在时会创建
// @Tags 导师-学生
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Param studentId path int true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/tutor/courses/{id}/students/{studentId}/activate [post]
func (c *ProgressController) ActivateStudent(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	studentID, ok := paramID(ctx, "studentId")
	if !ok {
		return
	}
	created, err := c.ProgressService.ActivateStudent(userID, courseID, studentID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"active": true, "created": created})
}

// @Summary 停用学生
// @Tags 导师-学生
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Param studentId path int true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/tutor/courses/{id}/students/{studentId}/deactivate [post]
func (c *ProgressController) DeactivateStudent(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	studentID, ok := paramID(ctx, "studentId")
	if !ok {
		return
	}
	if err := c.ProgressService.DeactivateStudent(userID, courseID, studentID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"active": false})
}
