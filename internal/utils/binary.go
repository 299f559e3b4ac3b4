package utils

import (
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// sniffLength defines the maximum number of bytes inspected when detecting binary content.
const sniffLength = 8000

// knownBinaryExtensions lists file extensions that are classified as binary
// without inspecting content.
var knownBinaryExtensions = map[string]struct{}{
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".a": {}, ".lib": {},
	".o": {}, ".obj": {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".ico": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {},
	".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".7z": {}, ".rar": {},
	".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {}, ".wav": {},
}

// HasBinaryExtension reports whether the path carries a known binary file extension.
func HasBinaryExtension(path string) bool {
	extension := strings.ToLower(filepath.Ext(path))
	if extension == "" {
		return false
	}
	_, isKnownBinary := knownBinaryExtensions[extension]
	return isKnownBinary
}

// IsBinary reports whether the provided byte slice appears to contain binary
// data. Only the first sniffLength bytes are inspected.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if len(data) > sniffLength {
		data = data[:sniffLength]
	}
	return enry.IsBinary(data)
}

// DetectLanguage returns the programming language for a file based on its
// name and content, or an empty string when detection fails.
func DetectLanguage(filename string, data []byte) string {
	if len(data) > sniffLength {
		data = data[:sniffLength]
	}
	return enry.GetLanguage(filepath.Base(filename), data)
}
