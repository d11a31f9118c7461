package util

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

var ErrInvalidImage = errors.New("file is not a valid image")

// SniffMimeType 读取前 512 字节判断 MIME 类型，返回的 reader 仍包含完整内容
func SniffMimeType(reader io.Reader) (string, io.Reader, error) {
	buffer := make([]byte, 512)
	n, err := io.ReadFull(reader, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	buffer = buffer[:n]
	return http.DetectContentType(buffer), io.MultiReader(bytes.NewReader(buffer), reader), nil
}

// ValidateMimeType 校验 MIME 类型是否在允许列表中（前缀或完整匹配）
func ValidateMimeType(mimeType string, allowedTypes []string) error {
	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return nil
		}
	}
	return errors.New("invalid file type: " + mimeType)
}

func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeImage)
}

// NormalizeImage 解码图片并缩放到最长边不超过 maxEdge，统一编码为 JPEG
func NormalizeImage(reader io.Reader, maxEdge int) ([]byte, error) {
	img, err := imaging.Decode(reader, imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImage
	}

	b := img.Bounds()
	if b.Dx() > maxEdge || b.Dy() > maxEdge {
		img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// flatten 去掉透明通道，JPEG 不支持 alpha
func flatten(img image.Image) image.Image {
	bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), image.White.C)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
