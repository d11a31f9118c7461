package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/tracing"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// ContentInput 创建或更新内容条目；Body/URL/Upload 按类型取其一
type ContentInput struct {
	Type   string
	Title  string
	Body   string
	URL    string
	Upload *Upload
}

// ContentDetail 内容行连同解析出的条目和可访问地址
type ContentDetail struct {
	model.Content
	URL string `json:"url,omitempty"`
}

type ContentService struct {
	ContentRepo *repository.ContentRepository
	Guard       *Guard
	Storage     *StorageService
}

func NewContentService(contentRepo *repository.ContentRepository, guard *Guard, storage *StorageService) *ContentService {
	return &ContentService{
		ContentRepo: contentRepo,
		Guard:       guard,
		Storage:     storage,
	}
}

func (s *ContentService) ContentTypes() []model.ContentType {
	return model.ContentTypes
}

func parseContentType(raw string) (model.ContentType, error) {
	t := model.ContentType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", util.NewValidationError("type", "unknown content type %q", raw)
	}
	return t, nil
}

// validatePayload 各类型的载荷约束；update 为 true 时图片与文件可以不换
func validatePayload(t model.ContentType, in *ContentInput, update bool) error {
	if strings.TrimSpace(in.Title) == "" {
		return util.NewValidationError("title", "is required")
	}
	if len(in.Title) > 250 {
		return util.NewValidationError("title", "must be at most 250 characters")
	}
	switch t {
	case model.ContentText:
		if strings.TrimSpace(in.Body) == "" {
			return util.NewValidationError("content", "text body must not be empty")
		}
	case model.ContentVideo:
		if strings.TrimSpace(in.URL) == "" {
			return util.NewValidationError("url", "video URL must not be empty")
		}
		u, err := url.ParseRequestURI(in.URL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return util.NewValidationError("url", "%q is not a valid URL", in.URL)
		}
	case model.ContentImage, model.ContentFile:
		if in.Upload == nil && !update {
			return util.NewValidationError("file", "%s content requires an uploaded file", t)
		}
	}
	return nil
}

func (s *ContentService) store(ctx context.Context, t model.ContentType, up *Upload) (string, error) {
	if t == model.ContentImage {
		mime, reader, err := util.SniffMimeType(up.Reader)
		if err != nil {
			return "", err
		}
		if !util.IsImage(mime) {
			return "", util.NewValidationError("file", "expected an image, got %s", mime)
		}
		return s.Storage.Store(ctx, "images", &Upload{Filename: up.Filename, Size: up.Size, Reader: reader})
	}
	return s.Storage.Store(ctx, "files", up)
}

// buildItem 按类型构造条目，exhaustive switch 保证新类型不会被漏掉
func buildItem(t model.ContentType, ownerID uint, in *ContentInput, file string) model.Item {
	base := model.ItemBase{OwnerID: ownerID, Title: in.Title}
	switch t {
	case model.ContentText:
		return &model.Text{ItemBase: base, Body: in.Body}
	case model.ContentVideo:
		return &model.Video{ItemBase: base, URL: in.URL}
	case model.ContentImage:
		return &model.Image{ItemBase: base, File: file}
	case model.ContentFile:
		return &model.File{ItemBase: base, File: file}
	}
	return nil
}

// Create 上传附件后在同一事务中写入条目和内容行；写库失败时清理已上传文件
func (s *ContentService) Create(ctx context.Context, userID, moduleID uint, in ContentInput) (detail *ContentDetail, err error) {
	ctx, end := tracing.Start(ctx, "ContentService.Create",
		attribute.Int64("module.id", int64(moduleID)),
		attribute.String("content.type", in.Type))
	defer func() { end(err) }()

	if _, _, err := s.Guard.OwnedModule(userID, moduleID); err != nil {
		return nil, err
	}
	t, err := parseContentType(in.Type)
	if err != nil {
		return nil, err
	}
	if err := validatePayload(t, &in, false); err != nil {
		return nil, err
	}

	var file string
	if t.NeedsUpload() {
		if file, err = s.store(ctx, t, in.Upload); err != nil {
			return nil, err
		}
	}

	content, err := s.ContentRepo.CreateWithItem(ctx, moduleID, buildItem(t, userID, &in, file))
	if err != nil {
		s.Storage.Remove(ctx, file)
		return nil, err
	}
	monitoring.ContentCreated.WithLabelValues(string(t)).Inc()
	return s.detail(content), nil
}

// Update 类型不可变；图片与文件上传新附件时替换旧文件
func (s *ContentService) Update(ctx context.Context, userID, contentID uint, in ContentInput) (*ContentDetail, error) {
	content, err := s.ContentRepo.FindByID(contentID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.Guard.OwnedModule(userID, content.ModuleID); err != nil {
		return nil, err
	}
	if in.Type != "" && model.ContentType(strings.ToLower(in.Type)) != content.ContentType {
		return nil, util.NewValidationError("type", "content type cannot be changed")
	}
	if err := validatePayload(content.ContentType, &in, true); err != nil {
		return nil, err
	}

	item, err := s.Resolve(ctx, content)
	if err != nil {
		return nil, err
	}

	var oldFile, newFile string
	if content.ContentType.NeedsUpload() && in.Upload != nil {
		if newFile, err = s.store(ctx, content.ContentType, in.Upload); err != nil {
			return nil, err
		}
		oldFile = model.StoredFile(item)
	}

	item.Base().Title = in.Title
	switch it := item.(type) {
	case *model.Text:
		it.Body = in.Body
	case *model.Video:
		it.URL = in.URL
	case *model.Image:
		if newFile != "" {
			it.File = newFile
		}
	case *model.File:
		if newFile != "" {
			it.File = newFile
		}
	}

	if err := s.ContentRepo.SaveItem(item); err != nil {
		s.Storage.Remove(ctx, newFile)
		return nil, err
	}
	s.Storage.Remove(ctx, oldFile)

	content.Item = item
	return s.detail(content), nil
}

func (s *ContentService) Delete(ctx context.Context, userID, contentID uint) error {
	content, err := s.ContentRepo.FindByID(contentID)
	if err != nil {
		return err
	}
	if _, _, err := s.Guard.OwnedModule(userID, content.ModuleID); err != nil {
		return err
	}
	files, err := s.ContentRepo.Delete(content)
	if err != nil {
		return err
	}
	s.Storage.Remove(ctx, files...)
	return nil
}

// Resolve 通过 (类型, object_id) 加载具体条目，条目缺失时返回 ErrNotFound
func (s *ContentService) Resolve(ctx context.Context, content *model.Content) (model.Item, error) {
	if !content.ContentType.Valid() {
		return nil, util.NewValidationError("type", "unknown content type %q", content.ContentType)
	}
	return s.ContentRepo.FindItem(ctx, content.ContentType, content.ObjectID)
}

// ListModuleContents 所有者或选课学生可见，按序号排列并解析条目
func (s *ContentService) ListModuleContents(ctx context.Context, userID, moduleID uint) (details []ContentDetail, err error) {
	ctx, end := tracing.Start(ctx, "ContentService.ListModuleContents",
		attribute.Int64("module.id", int64(moduleID)))
	defer func() { end(err) }()

	if _, _, err := s.Guard.ViewableModule(userID, moduleID); err != nil {
		return nil, err
	}
	contents, err := s.ContentRepo.ListByModule(moduleID)
	if err != nil {
		return nil, err
	}

	details = make([]ContentDetail, 0, len(contents))
	for i := range contents {
		item, err := s.Resolve(ctx, &contents[i])
		if err != nil {
			return nil, err
		}
		contents[i].Item = item
		details = append(details, *s.detail(&contents[i]))
	}
	return details, nil
}

func (s *ContentService) detail(content *model.Content) *ContentDetail {
	d := &ContentDetail{Content: *content}
	if content.Item != nil {
		d.URL = s.Storage.GetURL(model.StoredFile(content.Item))
	}
	return d
}
