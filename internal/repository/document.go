package repository

import (
	"context"

	"planvault/internal/model"
)

// DocumentRepository is the metadata index for document records. The
// structured store is canonical; the sidecar index in the sidecar subpackage
// only feeds legacy entries into it. No business logic here — strictly
// persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID. Missing rows surface as
	// sql.ErrNoRows for the service to translate.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByStoredName returns a document by its system-generated filename.
	FindByStoredName(ctx context.Context, storedName string) (*model.Document, error)

	// ListByOwner returns all documents owned by the given user, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Document, error)

	// ListByDepartment returns all documents in a department, newest first.
	ListByDepartment(ctx context.Context, department string) ([]model.Document, error)

	// Update persists mutable fields (names, locations, size, updated_at) of
	// an existing record. OwnerID is never updated.
	Update(ctx context.Context, doc *model.Document) error

	// Delete removes a document by ID. It returns nil if the row was deleted
	// or did not exist.
	Delete(ctx context.Context, id string) error
}
