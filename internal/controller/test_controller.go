package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	TestService *service.TestService
}

func NewTestController(testService *service.TestService) *TestController {
	return &TestController{TestService: testService}
}

// swagger:model SubmitAnswersRequest
type SubmitAnswersRequest struct {
	Answers []service.AnswerInput `json:"answers" binding:"required"`
}

// @Summary 新建测验
// @Description 选择题最多 4 个选项，正确答案为 A-D
// @Tags 导师-测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "章节ID"
// @Param body body service.TestInput true "测验与题目"
// @Success 201 {object} util.Response{data=service.TestView}
// @Failure 400 {object} util.Response
// @Router /api/tutor/modules/{id}/tests [post]
func (c *TestController) CreateTest(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	moduleID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.TestInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	view, err := c.TestService.CreateTest(userID, moduleID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// @Summary 章节测验列表
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param id path int true "章节ID"
// @Success 200 {object} util.Response{data=[]service.TestView}
// @Router /api/modules/{id}/tests [get]
func (c *TestController) ListModuleTests(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	moduleID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	views, err := c.TestService.ListModuleTests(userID, moduleID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// @Summary 测验详情
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=service.TestView}
// @Router /api/tests/{id} [get]
func (c *TestController) GetTest(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	testID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	view, err := c.TestService.GetTest(userID, testID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 删除测验
// @Tags 导师-测验
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/tutor/tests/{id} [delete]
func (c *TestController) DeleteTest(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	testID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := c.TestService.DeleteTest(userID, testID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "test deleted"})
}

// @Summary 提交答案
// @Description 整批校验，任一答案不合法时全部不保存；重复提交覆盖同一题的旧答案
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param body body SubmitAnswersRequest true "答案"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Failure 400 {object} util.Response "测验未开放或答案不合法"
// @Failure 403 {object} util.Response "未选课"
// @Router /api/tests/{id}/answers [post]
func (c *TestController) SubmitAnswers(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	testID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req SubmitAnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.TestService.SubmitAnswers(ctx.Request.Context(), userID, testID, req.Answers)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 测验成绩
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=service.TestResults}
// @Router /api/tests/{id}/results [get]
func (c *TestController) TestResults(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	testID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	results, err := c.TestService.TestResults(userID, testID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, results)
}
