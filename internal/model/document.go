package model

import (
	"path/filepath"
	"strings"
	"time"
)

// Roles understood by the access gate.
const (
	RoleStaff    = "staff"
	RoleReviewer = "reviewer" // may read any document in their own department
)

// Identity describes the authenticated caller as asserted by the upstream
// auth gateway. It is never persisted; ownership fields on Document are.
type Identity struct {
	ID         string
	Name       string
	Role       string
	Department string
}

// Normalized file types. Anything outside the closed set maps to TypeOther,
// which is stored and listed but not previewable.
const (
	TypeCSV   = "csv"
	TypeXLSX  = "xlsx"
	TypeXLS   = "xls"
	TypeDOC   = "doc"
	TypeDOCX  = "docx"
	TypePDF   = "pdf"
	TypeOther = "other"
)

// Document represents one uploaded teaching-plan file and its storage
// locations. This is a pure domain model with no database-specific tags;
// the JSON tags define the sidecar file format for legacy entries.
type Document struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	StoredName   string    `json:"stored_name"`
	ObjectKey    string    `json:"object_key"` // empty until the remote write succeeded
	ObjectURL    string    `json:"object_url"`
	LocalPath    string    `json:"local_path"` // empty when no mirror copy exists
	FileType     string    `json:"file_type"`
	Size         int64     `json:"size"`
	OwnerID      string    `json:"owner_id"`
	OwnerName    string    `json:"owner_name"`
	Department   string    `json:"department"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasRemote reports whether the record references a remote object.
func (d *Document) HasRemote() bool { return d.ObjectKey != "" }

// HasLocal reports whether a local mirror copy is recorded.
func (d *Document) HasLocal() bool { return d.LocalPath != "" }

// Tabular reports whether the document can be parsed into sheets and
// therefore edited through the save path.
func (d *Document) Tabular() bool {
	return d.FileType == TypeCSV || d.FileType == TypeXLSX || d.FileType == TypeXLS
}

// Sheet is one tabular sheet in a preview or edit payload. Cells are plain
// strings; empty cells are empty strings.
type Sheet struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// Summary is the wire representation of a document returned to the UI.
type Summary struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	OriginalName string      `json:"originalName"`
	URL          string      `json:"url"`
	Size         int64       `json:"size"`
	UploadedAt   time.Time   `json:"uploadedAt"`
	Meta         SummaryMeta `json:"meta"`
}

// SummaryMeta carries uploader identity on the wire.
type SummaryMeta struct {
	UploaderID         string `json:"uploaderId"`
	UploaderName       string `json:"uploaderName"`
	UploaderDepartment string `json:"uploaderDepartment"`
}

// Summary converts the record into its wire form.
func (d *Document) Summary() Summary {
	return Summary{
		ID:           d.ID,
		Name:         d.StoredName,
		OriginalName: d.OriginalName,
		URL:          d.ObjectURL,
		Size:         d.Size,
		UploadedAt:   d.CreatedAt,
		Meta: SummaryMeta{
			UploaderID:         d.OwnerID,
			UploaderName:       d.OwnerName,
			UploaderDepartment: d.Department,
		},
	}
}

// FileTypeOf normalizes a filename's extension into the closed type set.
func FileTypeOf(name string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "csv":
		return TypeCSV
	case "xlsx":
		return TypeXLSX
	case "xls":
		return TypeXLS
	case "doc":
		return TypeDOC
	case "docx":
		return TypeDOCX
	case "pdf":
		return TypePDF
	default:
		return TypeOther
	}
}
