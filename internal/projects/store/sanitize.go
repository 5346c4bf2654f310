package store

import (
	"path"
	"path/filepath"
	"strings"
)

// allowedExtensions is the sample type allow-list, matched case-insensitively.
var allowedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".ogg":  true,
	".flac": true,
}

// AllowedExtension reports whether the filename carries an accepted audio
// extension.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// SanitizeFilename reduces an untrusted upload filename to a safe storage
// key: path components are stripped, anything outside [A-Za-z0-9._-] becomes
// an underscore, and leading dots are dropped so the result can never shadow
// metadata or temp files. Returns "" when nothing usable remains.
func SanitizeFilename(filename string) string {
	// handle both slash styles; browsers on Windows send backslashes
	name := strings.ReplaceAll(filename, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if strings.Trim(out, "._-") == "" {
		return ""
	}
	return out
}
