package controller

import (
	"errors"
	"fmt"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// formUpload 读取 multipart 文件字段；非 multipart 请求或字段缺失时返回 nil。调用方负责 close
func formUpload(ctx *gin.Context, field string, maxBytes int64) (*service.Upload, func(), error) {
	if ctx.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil, func() {}, nil
	}
	fh, err := ctx.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, nil, fmt.Errorf("file exceeds %d MB", maxBytes>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.Upload{Filename: fh.Filename, Size: fh.Size, Reader: f}, func() { f.Close() }, nil
}

// currentUserID 未登录时已写入 401
func currentUserID(ctx *gin.Context) (uint, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return 0, false
	}
	return user.UserID, true
}

// paramID 非法 ID 时已写入 400
func paramID(ctx *gin.Context, name string) (uint, bool) {
	id, ok := util.ParamID(ctx, name)
	if !ok {
		util.BadRequest(ctx, "invalid "+name)
	}
	return id, ok
}
