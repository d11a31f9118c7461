package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ModuleController struct {
	ModuleService *service.ModuleService
}

func NewModuleController(moduleService *service.ModuleService) *ModuleController {
	return &ModuleController{ModuleService: moduleService}
}

// @Summary 课程章节列表
// @Description 按顺序返回
// @Tags 章节
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.Module}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id}/modules [get]
func (c *ModuleController) ListModules(ctx *gin.Context) {
	courseID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	modules, err := c.ModuleService.List(courseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, modules)
}

// @Summary 章节详情
// @Tags 章节
// @Produce json
// @Param id path int true "章节ID"
// @Success 200 {object} util.Response{data=model.Module}
// @Failure 404 {object} util.Response
// @Router /api/modules/{id} [get]
func (c *ModuleController) GetModule(ctx *gin.Context) {
	moduleID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	module, err := c.ModuleService.Get(moduleID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, module)
}

// @Summary 新建章节
// @Description 顺序号自动分配为当前最大值加一
// @Tags 导师-章节
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Param body body service.ModuleInput true "章节信息"
// @Success 201 {object} util.Response{data=model.Module}
// @Failure 403 {object} util.Response
// @Failure 409 {object} util.Response "顺序号冲突"
// @Router /api/tutor/courses/{id}/modules [post]
func (c *ModuleController) CreateModule(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.ModuleInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	module, err := c.ModuleService.Create(ctx.Request.Context(), userID, courseID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, module)
}

// @Summary 更新章节
// @Tags 导师-章节
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "章节ID"
// @Param body body service.ModuleInput true "章节信息"
// @Success 200 {object} util.Response{data=model.Module}
// @Router /api/tutor/modules/{id} [put]
func (c *ModuleController) UpdateModule(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	moduleID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var req service.ModuleInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	module, err := c.ModuleService.Update(userID, moduleID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, module)
}

// @Summary 删除章节
// @Description 同时删除其内容与测验
// @Tags 导师-章节
// @Produce json
// @Security BearerAuth
// @Param id path int true "章节ID"
// @Success 200 {object} util.Response
// @Router /api/tutor/modules/{id} [delete]
func (c *ModuleController) DeleteModule(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	moduleID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := c.ModuleService.Delete(ctx.Request.Context(), userID, moduleID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "module deleted"})
}
