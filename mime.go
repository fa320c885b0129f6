package shortstack

import "strings"

// mimeTypes maps file extensions to content types, following the table the
// site hosting surface has always served.
var mimeTypes = map[string]string{
	// HTML
	"html": "text/html",
	"htm":  "text/html",

	// CSS
	"css": "text/css",

	// JavaScript
	"js":  "application/javascript",
	"mjs": "application/javascript",
	"cjs": "application/javascript",

	// JSON
	"json": "application/json",

	// XML
	"xml": "application/xml",

	// Text
	"txt": "text/plain",
	"md":  "text/markdown",
	"csv": "text/csv",

	// Images
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"ico":  "image/x-icon",
	"bmp":  "image/bmp",
	"avif": "image/avif",

	// Fonts
	"woff":  "font/woff",
	"woff2": "font/woff2",
	"ttf":   "font/ttf",
	"otf":   "font/otf",
	"eot":   "application/vnd.ms-fontobject",

	// Audio
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
	"flac": "audio/flac",

	// Video
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"ogv":  "video/ogg",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",

	// Documents
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",

	// Archives
	"zip": "application/zip",
	"tar": "application/x-tar",
	"gz":  "application/gzip",
	"rar": "application/vnd.rar",
	"7z":  "application/x-7z-compressed",

	// WebAssembly
	"wasm": "application/wasm",

	// Manifests
	"webmanifest": "application/manifest+json",
	"manifest":    "text/cache-manifest",

	// Source maps
	"map": "application/json",

	// TypeScript served raw
	"ts":  "application/typescript",
	"tsx": "application/typescript",

	// YAML
	"yaml": "application/x-yaml",
	"yml":  "application/x-yaml",
}

// Cache-control buckets. Scripts, styles, and fonts are fingerprinted in
// practice and cached hard; HTML must always revalidate.
const (
	cacheImmutable = "public, max-age=31536000, immutable"
	cacheWeek      = "public, max-age=604800"
	cacheHour      = "public, max-age=3600"
	cacheNone      = "no-store"
)

var immutableExts = map[string]bool{
	"js": true, "mjs": true, "cjs": true,
	"css":  true,
	"woff": true, "woff2": true, "ttf": true, "otf": true, "eot": true,
}

var imageExts = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true,
	"svg": true, "ico": true, "bmp": true, "avif": true,
}

func extOf(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// MIMEType returns the content type for a filename based on its extension.
// Unknown extensions map to application/octet-stream.
func MIMEType(filename string) string {
	if ct, ok := mimeTypes[extOf(filename)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// CacheControl returns the cache-control policy for a filename. Pure
// function of the extension; no I/O.
func CacheControl(filename string) string {
	ext := extOf(filename)
	switch {
	case immutableExts[ext]:
		return cacheImmutable
	case imageExts[ext]:
		return cacheWeek
	case ext == "html" || ext == "htm":
		return cacheNone
	default:
		return cacheHour
	}
}
