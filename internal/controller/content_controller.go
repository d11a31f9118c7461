package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	ContentService *service.ContentService
	MaxUpload      int64
}

func NewContentController(contentService *service.ContentService, maxUpload int64) *ContentController {
	return &ContentController{ContentService: contentService, MaxUpload: maxUpload}
}

// ContentForm 内容表单，text 使用 content，video 使用 url，image/file 上传 file
// swagger:model ContentForm
type ContentForm struct {
	Type    string `form:"type"`
	Title   string `form:"title"`
	Content string `form:"content"`
	URL     string `form:"url"`
}

func (c *ContentController) bindContent(ctx *gin.Context) (service.ContentInput, func(), bool) {
	var form ContentForm
	if err := ctx.ShouldBind(&form); err != nil {
		util.BadRequest(ctx, err.Error())
		return service.ContentInput{}, nil, false
	}
	up, done, err := formUpload(ctx, "file", c.MaxUpload)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return service.ContentInput{}, nil, false
	}
	return service.ContentInput{
		Type:   form.Type,
		Title:  form.Title,
		Body:   form.Content,
		URL:    form.URL,
		Upload: up,
	}, done, true
}

// @Summary 内容类型列表
// @Tags 内容
// @Produce json
// @Success 200 {object} util.Response{data=[]string}
// @Router /api/content-types [get]
func (c *ContentController) ContentTypes(ctx *gin.Context) {
	util.Success(ctx, c.ContentService.ContentTypes())
}

// @Summary 章节内容列表
// @Description 课程所有者或已选课学生可见，按顺序返回并附带条目详情
// @Tags 内容
// @Produce json
// @Security BearerAuth
// @Param id path int true "章节ID"
// @Success 200 {object} util.Response{data=[]service.ContentDetail}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/modules/{id}/contents [get]
func (c *ContentController) ListModuleContents(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	moduleID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	details, err := c.ContentService.ListModuleContents(ctx.Request.Context(), userID, moduleID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, details)
}

// @Summary 新建内容
// @Tags 导师-内容
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "章节ID"
// @Param type formData string true "内容类型" Enums(text, video, image, file)
// @Param title formData string true "标题"
// @Param content formData string false "文本内容"
// @Param url formData string false "视频地址"
// @Param file formData file false "图片或文件"
// @Success 201 {object} util.Response{data=service.ContentDetail}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/tutor/modules/{id}/contents [post]
func (c *ContentController) CreateContent(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	moduleID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	in, done, ok := c.bindContent(ctx)
	if !ok {
		return
	}
	defer done()

	detail, err := c.ContentService.Create(ctx.Request.Context(), userID, moduleID, in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, detail)
}

// @Summary 更新内容
// @Description 类型不可修改；图片和文件可以不重新上传
// @Tags 导师-内容
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "内容ID"
// @Param title formData string true "标题"
// @Param content formData string false "文本内容"
// @Param url formData string false "视频地址"
// @Param file formData file false "新的图片或文件"
// @Success 200 {object} util.Response{data=service.ContentDetail}
// @Router /api/tutor/contents/{id} [put]
func (c *ContentController) UpdateContent(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	contentID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	in, done, ok := c.bindContent(ctx)
	if !ok {
		return
	}
	defer done()

	detail, err := c.ContentService.Update(ctx.Request.Context(), userID, contentID, in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// @Summary 删除内容
// @Tags 导师-内容
// @Produce json
// @Security BearerAuth
// @Param id path int true "内容ID"
// @Success 200 {object} util.Response
// @Router /api/tutor/contents/{id} [delete]
func (c *ContentController) DeleteContent(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	contentID, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := c.ContentService.Delete(ctx.Request.Context(), userID, contentID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "content deleted"})
}
