package utils

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// ExtensionFromMime 将图片 MIME 类型映射为文件扩展名，未知类型返回空串。
func ExtensionFromMime(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}

	switch strings.ToLower(mimeType) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/tiff":
		return "tiff"
	case "image/svg+xml":
		return "svg"
	case "image/heic":
		return "heic"
	case "image/heif":
		return "heif"
	default:
		return ""
	}
}

// ExtensionFromFilename 提取文件名扩展名，小写、不含前导点。
func ExtensionFromFilename(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	return strings.ToLower(strings.TrimSpace(ext))
}

// MimeFromExtension 由扩展名推断 MIME 类型，未知时回退 application/octet-stream。
func MimeFromExtension(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return "application/octet-stream"
	}
	if typeName := mime.TypeByExtension("." + strings.ToLower(ext)); typeName != "" {
		return typeName
	}
	return "application/octet-stream"
}

// DetectImageMime 按字节嗅探 MIME 类型。
func DetectImageMime(data []byte) string {
	return http.DetectContentType(data)
}
