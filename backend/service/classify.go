package service

import "strings"

const (
	FileTypeImage      = "image"
	FileTypeCompressed = "compressed"
	FileTypeDocument   = "document"
)

// Lookups are case-sensitive; only "TXT" has an upper-case entry.
var extensionTypes = map[string]string{
	"jpeg": FileTypeImage,
	"jpg":  FileTypeImage,
	"png":  FileTypeImage,
	"rar":  FileTypeCompressed,
	"zip":  FileTypeCompressed,
	"7z":   FileTypeCompressed,
	"pdf":  FileTypeDocument,
	"doc":  FileTypeDocument,
	"docx": FileTypeDocument,
	"txt":  FileTypeDocument,
	"TXT":  FileTypeDocument,
}

// ClassifyExtension returns the file type for ext, or "" when unknown.
func ClassifyExtension(ext string) string {
	return extensionTypes[ext]
}

// SplitFilename splits on the last dot. "a.b.txt" gives ("a.b", "txt");
// a name without a dot has an empty extension.
func SplitFilename(filename string) (name, ext string) {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return filename, ""
	}
	return filename[:i], filename[i+1:]
}

// JoinFilename is the inverse of SplitFilename.
func JoinFilename(name, ext string) string {
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// ValidFilename rejects names that cannot be stored as a single path
// segment. A trailing dot is refused because it would split into an empty
// extension and collide with the dotless name.
func ValidFilename(filename string) bool {
	if filename == "" || filename == "." || filename == ".." {
		return false
	}
	if strings.ContainsAny(filename, "/\\\x00") {
		return false
	}
	return !strings.HasSuffix(filename, ".")
}
