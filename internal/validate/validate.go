// Package validate enforces upload policy on incoming payloads before any
// storage write happens. It performs no I/O.
package validate

import (
	"fmt"
	"strings"

	"planvault/internal/apperr"
)

// MaxUploadBytes is the hard ceiling on a single upload.
const MaxUploadBytes = 5 << 20

var allowedMIMEs = map[string]struct{}{
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.ms-excel":                                                  {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {},
	"application/vnd.ms-powerpoint":                                             {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"application/pdf":              {},
	"text/plain":                   {},
	"text/csv":                     {},
	"image/png":                    {},
	"image/jpeg":                   {},
	"image/gif":                    {},
	"application/zip":              {},
	"application/x-zip-compressed": {},
	"application/x-rar-compressed": {},
	"application/octet-stream":     {},
}

// Check rejects payloads whose declared MIME type is outside the allow-list
// or whose declared size exceeds MaxUploadBytes.
func Check(contentType string, size int64) error {
	if size < 0 {
		return apperr.Validation("file size is unknown")
	}
	if size > MaxUploadBytes {
		return apperr.Validation(fmt.Sprintf("file exceeds the %d MiB limit", MaxUploadBytes>>20))
	}
	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if _, ok := allowedMIMEs[mime]; !ok {
		return apperr.Validation("unsupported file type: " + mime)
	}
	return nil
}
