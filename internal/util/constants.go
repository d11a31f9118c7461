package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 上传相关常量
const (
	MimeImage       = "image/"
	MimePDF         = "application/pdf"
	MimeOctetStream = "application/octet-stream"

	// ImageMaxEdge 课程封面与图片内容的最长边
	ImageMaxEdge = 1280
)

const (
	OrderLockPrefixCourse = "order:course:"
	OrderLockPrefixModule = "order:module:"
)
