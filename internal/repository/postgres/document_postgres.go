package postgres

import (
	"context"
	"database/sql"

	"planvault/internal/model"
	"planvault/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, original_name, stored_name, object_key, object_url, local_path,
		file_type, size, owner_id, owner_name, department, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.OriginalName,
		&d.StoredName,
		&d.ObjectKey,
		&d.ObjectURL,
		&d.LocalPath,
		&d.FileType,
		&d.Size,
		&d.OwnerID,
		&d.OwnerName,
		&d.Department,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.OriginalName,
		doc.StoredName,
		doc.ObjectKey,
		doc.ObjectURL,
		doc.LocalPath,
		doc.FileType,
		doc.Size,
		doc.OwnerID,
		doc.OwnerName,
		doc.Department,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// FindByStoredName fetches a single document by its stored filename.
func (r *DocumentPostgres) FindByStoredName(ctx context.Context, storedName string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE stored_name = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, storedName))
}

func (r *DocumentPostgres) list(ctx context.Context, q string, arg any) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListByOwner returns the owner's documents, newest first.
func (r *DocumentPostgres) ListByOwner(ctx context.Context, ownerID string) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, ownerID)
}

// ListByDepartment returns a department's documents, newest first.
func (r *DocumentPostgres) ListByDepartment(ctx context.Context, department string) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE department = $1
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, department)
}

// Update persists the mutable fields of an existing record. owner_id and
// created_at are deliberately not part of the statement.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document) error {
	const q = `
		UPDATE documents
		SET original_name = $2,
		    stored_name   = $3,
		    object_key    = $4,
		    object_url    = $5,
		    local_path    = $6,
		    size          = $7,
		    updated_at    = $8
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q,
		doc.ID,
		doc.OriginalName,
		doc.StoredName,
		doc.ObjectKey,
		doc.ObjectURL,
		doc.LocalPath,
		doc.Size,
		doc.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
