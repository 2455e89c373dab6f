package dispatch

import "strings"

// mediaTypes maps a filename extension (including the leading dot) to the
// Content-type value the static handler reports for it. Unknown
// extensions fall back to a generic octet stream.
var mediaTypes = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".txt":  "text/plain",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".ico":  "image/x-icon",
	".wasm": "application/wasm",
}

const defaultMediaType = "application/octet-stream"

// mediaTypeFromFilename returns the Content-type pstore reports for path
// based on its extension.
func mediaTypeFromFilename(path string) string {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return defaultMediaType
	}
	ext := strings.ToLower(path[dot:])
	if mt, ok := mediaTypes[ext]; ok {
		return mt
	}
	return defaultMediaType
}
