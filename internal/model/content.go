package model

// ContentType 内容条目的类型标签，取值封闭
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentVideo ContentType = "video"
	ContentImage ContentType = "image"
	ContentFile  ContentType = "file"
)

// ContentTypes 全部合法标签，顺序即对外展示顺序
var ContentTypes = []ContentType{ContentText, ContentVideo, ContentImage, ContentFile}

func (t ContentType) Valid() bool {
	switch t {
	case ContentText, ContentVideo, ContentImage, ContentFile:
		return true
	}
	return false
}

// NeedsUpload 图片和文件类型需要附件
func (t ContentType) NeedsUpload() bool {
	return t == ContentImage || t == ContentFile
}

// Content 通过 (ContentType, ObjectID) 指向一条具体的条目记录
// swagger:model Content
type Content struct {
	BaseModel
	ModuleID    uint        `gorm:"not null;uniqueIndex:idx_content_module_order" json:"moduleId"`
	ContentType ContentType `gorm:"size:10;not null;index:idx_content_item" json:"contentType"`
	ObjectID    uint        `gorm:"not null;index:idx_content_item" json:"objectId"`
	Order       int         `gorm:"column:sort_order;not null;uniqueIndex:idx_content_module_order" json:"order"`
	Item        Item        `gorm:"-" json:"item,omitempty"`
}

func (Content) TableName() string {
	return "contents"
}

// Item 四种条目的公共行为
type Item interface {
	ItemID() uint
	ItemOwnerID() uint
	ItemTitle() string
	ItemType() ContentType
	Base() *ItemBase
}

type ItemBase struct {
	BaseModel
	OwnerID uint   `gorm:"index;not null" json:"ownerId"`
	Title   string `gorm:"size:250;not null" json:"title"`
}

func (b *ItemBase) ItemID() uint      { return b.ID }
func (b *ItemBase) ItemOwnerID() uint { return b.OwnerID }
func (b *ItemBase) ItemTitle() string { return b.Title }
func (b *ItemBase) Base() *ItemBase   { return b }

// swagger:model Text
type Text struct {
	ItemBase
	Body string `gorm:"type:text;not null" json:"content"`
}

func (Text) TableName() string      { return "content_texts" }
func (*Text) ItemType() ContentType { return ContentText }

// swagger:model Video
type Video struct {
	ItemBase
	URL string `gorm:"size:500;not null" json:"url"`
}

func (Video) TableName() string      { return "content_videos" }
func (*Video) ItemType() ContentType { return ContentVideo }

// swagger:model Image
type Image struct {
	ItemBase
	File string `gorm:"size:500;not null" json:"file"`
}

func (Image) TableName() string      { return "content_images" }
func (*Image) ItemType() ContentType { return ContentImage }

// swagger:model File
type File struct {
	ItemBase
	File string `gorm:"size:500;not null" json:"file"`
}

func (File) TableName() string      { return "content_files" }
func (*File) ItemType() ContentType { return ContentFile }

// NewItem 按标签返回空条目，供解析和删除时确定表
func NewItem(t ContentType) Item {
	switch t {
	case ContentText:
		return &Text{}
	case ContentVideo:
		return &Video{}
	case ContentImage:
		return &Image{}
	case ContentFile:
		return &File{}
	}
	return nil
}

// StoredFile 返回条目在存储中的位置，非文件类条目为空
func StoredFile(item Item) string {
	switch it := item.(type) {
	case *Image:
		return it.File
	case *File:
		return it.File
	}
	return ""
}
