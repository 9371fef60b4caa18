package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"planvault/internal/access"
	"planvault/internal/apperr"
	"planvault/internal/mirror"
	"planvault/internal/model"
	"planvault/internal/preview"
	"planvault/internal/repository"
	"planvault/internal/repository/sidecar"
	"planvault/internal/storage"
	"planvault/internal/validate"
)

// storeTimeout bounds every object-store call; expiry surfaces as a storage error.
const storeTimeout = 30 * time.Second

// objectPrefix namespaces document blobs inside the bucket.
const objectPrefix = "documents"

// DocumentService orchestrates the document lifecycle across the object
// store, the local mirror and the metadata index.
type DocumentService interface {
	// Upload validates and ingests a new document owned by the caller. The
	// remote write must succeed before a record is created; the local mirror
	// write is best-effort.
	Upload(ctx context.Context, caller model.Identity, r io.Reader, originalName, contentType string, size int64) (*model.Document, error)

	// List returns every document the caller may read, newest first.
	List(ctx context.Context, caller model.Identity) ([]model.Document, error)

	// Preview authorizes the caller and extracts a viewable representation
	// of the document's current bytes.
	Preview(ctx context.Context, caller model.Identity, id string) (*preview.Preview, *model.Document, error)

	// Save replaces a tabular document's content with the given sheets,
	// persisting to both backends and retiring the superseded remote object.
	Save(ctx context.Context, caller model.Identity, storedName string, sheets []model.Sheet) (*model.Document, error)

	// Rename gives the document a new display name and a new collision-free
	// stored name on the mirror.
	Rename(ctx context.Context, caller model.Identity, storedName, newName string) (*model.Document, error)

	// Delete destroys the remote object, the local file and the index entry.
	// The three deletions are independent; the operation succeeds once the
	// index entry is gone.
	Delete(ctx context.Context, caller model.Identity, id string) error
}

type documentService struct {
	store   storage.Storage
	repo    repository.DocumentRepository
	legacy  *sidecar.Index
	mirror  *mirror.Mirror
	locks   *keyLock
	cleanup *CleanupQueue
	now     func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, legacy *sidecar.Index, m *mirror.Mirror, cleanup *CleanupQueue) DocumentService {
	return &documentService{
		store:   store,
		repo:    repo,
		legacy:  legacy,
		mirror:  m,
		locks:   newKeyLock(),
		cleanup: cleanup,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// storedFileName builds a collision-free filename from a timestamp, a random
// suffix and the original extension.
func (s *documentService) storedFileName(originalName string) string {
	ext := filepath.Ext(originalName)
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString()[:8], ext)
}

func objectKeyFor(name string) string {
	return path.Join(objectPrefix, name)
}

func (s *documentService) Upload(ctx context.Context, caller model.Identity, r io.Reader, originalName, contentType string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, apperr.Validation("file content is required")
	}
	if err := validate.Check(contentType, size); err != nil {
		return nil, err
	}

	// Read fully so the declared size cannot lie past the ceiling.
	data, err := io.ReadAll(io.LimitReader(r, validate.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > validate.MaxUploadBytes {
		return nil, apperr.Validation("file exceeds the 5 MiB limit")
	}

	storedName := s.storedFileName(originalName)
	key := objectKeyFor(storedName)

	callCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	objInfo, err := s.store.Put(callCtx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": originalName},
	})
	if err != nil {
		return nil, apperr.Storage("upload to object store failed", err)
	}

	now := s.now()
	doc := &model.Document{
		ID:           uuid.NewString(),
		OriginalName: originalName,
		StoredName:   storedName,
		ObjectKey:    objInfo.Key,
		ObjectURL:    s.store.PublicURL(objInfo.Key),
		FileType:     model.FileTypeOf(originalName),
		Size:         int64(len(data)),
		OwnerID:      caller.ID,
		OwnerName:    caller.Name,
		Department:   caller.Department,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Roll the blob back so no orphan outlives a failed ingest.
		rbCtx, rbCancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
		defer rbCancel()
		if delErr := s.store.Delete(rbCtx, key); delErr != nil {
			s.cleanup.Enqueue(key)
			return nil, fmt.Errorf("create record failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("create record failed: %w", err)
	}

	// Best-effort local mirror. A failed write leaves the record remote-only.
	if p, merr := s.mirror.Write(storedName, data); merr != nil {
		logEvent("mirror_write_failed", map[string]any{"document_id": stored.ID, "error": merr.Error()})
	} else {
		stored.LocalPath = p
		if uerr := s.repo.Update(ctx, stored); uerr != nil {
			logEvent("mirror_path_update_failed", map[string]any{"document_id": stored.ID, "error": uerr.Error()})
			stored.LocalPath = ""
		}
	}

	return stored, nil
}

func (s *documentService) List(ctx context.Context, caller model.Identity) ([]model.Document, error) {
	seen := make(map[string]struct{})
	docs := make([]model.Document, 0)

	add := func(items []model.Document) {
		for _, d := range items {
			if _, ok := seen[d.ID]; ok {
				continue
			}
			seen[d.ID] = struct{}{}
			docs = append(docs, d)
		}
	}

	own, err := s.repo.ListByOwner(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	add(own)

	if caller.Role == model.RoleReviewer && caller.Department != "" {
		dept, err := s.repo.ListByDepartment(ctx, caller.Department)
		if err != nil {
			return nil, fmt.Errorf("list department documents: %w", err)
		}
		add(dept)
	}

	// Legacy sidecar entries that were never migrated still show up in
	// listings, subject to the same gate.
	if legacy, err := s.legacy.List(); err == nil {
		readable := legacy[:0]
		for i := range legacy {
			if access.CanRead(&legacy[i], caller) {
				readable = append(readable, legacy[i])
			}
		}
		add(readable)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

func (s *documentService) Preview(ctx context.Context, caller model.Identity, id string) (*preview.Preview, *model.Document, error) {
	doc, err := s.findByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !access.CanRead(doc, caller) {
		return nil, nil, apperr.Permission("you may not view this document")
	}

	data, err := s.loadBytes(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	pv, err := preview.Extract(doc.FileType, data)
	if err != nil {
		return nil, nil, err
	}
	return pv, doc, nil
}

func (s *documentService) Save(ctx context.Context, caller model.Identity, storedName string, sheets []model.Sheet) (*model.Document, error) {
	if len(sheets) == 0 {
		return nil, apperr.Validation("sheets are required")
	}

	doc, err := s.findByStoredName(ctx, storedName)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(doc.ID)
	defer s.locks.Unlock(doc.ID)

	// The lookup raced ahead of the lock; re-resolve so a concurrent rename
	// or delete cannot be overwritten from a stale snapshot.
	doc, err = s.findByID(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	if !access.CanModify(doc, caller) {
		return nil, apperr.Permission("only the owner may edit this document")
	}
	if !doc.Tabular() {
		return nil, apperr.Validation("only spreadsheet documents are editable")
	}

	data, err := preview.Serialize(doc.FileType, sheets)
	if err != nil {
		return nil, err
	}

	// The mirror copy becomes the working byte source: mutated in place when
	// present, created fresh otherwise.
	localPath, localErr := s.mirror.Write(doc.StoredName, data)
	if localErr != nil {
		logEvent("mirror_write_failed", map[string]any{"document_id": doc.ID, "error": localErr.Error()})
	}

	newKey := objectKeyFor(s.storedFileName(doc.StoredName))
	callCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	_, err = s.store.Put(callCtx, newKey, bytes.NewReader(data), storage.PutObjectOptions{
		Size: int64(len(data)),
	})
	if err != nil {
		if localErr == nil {
			// Degraded success: the edit lives in the local copy, the remote
			// mirror is stale, the prior object location stays on the record.
			doc.LocalPath = localPath
			doc.Size = int64(len(data))
			doc.UpdatedAt = s.now()
			if uerr := s.update(ctx, doc); uerr != nil {
				return nil, fmt.Errorf("update record after degraded save: %w", uerr)
			}
			logEvent("save_degraded", map[string]any{"document_id": doc.ID, "error": err.Error()})
			return doc, nil
		}
		return nil, apperr.Storage("save upload failed", err)
	}

	oldKey := doc.ObjectKey
	doc.ObjectKey = newKey
	doc.ObjectURL = s.store.PublicURL(newKey)
	doc.Size = int64(len(data))
	doc.UpdatedAt = s.now()
	if localErr == nil {
		doc.LocalPath = localPath
	}
	if err := s.update(ctx, doc); err != nil {
		// The new blob is unreferenced; retire it and keep the old record.
		s.destroyOrEnqueue(ctx, newKey)
		return nil, fmt.Errorf("update record: %w", err)
	}

	if oldKey != "" && oldKey != newKey {
		s.destroyOrEnqueue(ctx, oldKey)
	}
	return doc, nil
}

func (s *documentService) Rename(ctx context.Context, caller model.Identity, storedName, newName string) (*model.Document, error) {
	if newName == "" {
		return nil, apperr.Validation("new name is required")
	}

	doc, err := s.findByStoredName(ctx, storedName)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(doc.ID)
	defer s.locks.Unlock(doc.ID)

	doc, err = s.findByID(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	if !access.CanModify(doc, caller) {
		return nil, apperr.Permission("only the owner may rename this document")
	}

	// The stored extension is preserved; the new name only contributes the base.
	ext := filepath.Ext(doc.StoredName)
	base := filepath.Base(newName)
	base = base[:len(base)-len(filepath.Ext(base))]
	candidate := base + ext

	var finalName string
	if doc.HasLocal() {
		name, p, rerr := s.mirror.Rename(doc.StoredName, candidate)
		if rerr != nil {
			return nil, apperr.Storage("rename mirror file failed", rerr)
		}
		finalName = name
		doc.LocalPath = p
	} else {
		finalName = s.mirror.Disambiguate(candidate)
	}

	if serr := s.legacy.Rename(doc.StoredName, finalName); serr != nil {
		logEvent("sidecar_move_failed", map[string]any{"document_id": doc.ID, "error": serr.Error()})
	}

	doc.StoredName = finalName
	doc.OriginalName = newName
	doc.UpdatedAt = s.now()
	if err := s.update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, caller model.Identity, id string) error {
	doc, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}

	s.locks.Lock(doc.ID)
	defer s.locks.Unlock(doc.ID)

	doc, err = s.findByID(ctx, id)
	if err != nil {
		return err
	}

	if !access.CanModify(doc, caller) {
		return apperr.Permission("only the owner may delete this document")
	}

	// Remote, local and index deletions are attempted independently.
	if doc.HasRemote() {
		s.destroyOrEnqueue(ctx, doc.ObjectKey)
	}
	if doc.HasLocal() {
		if merr := s.mirror.Remove(doc.StoredName); merr != nil {
			logEvent("mirror_remove_failed", map[string]any{"document_id": doc.ID, "error": merr.Error()})
		}
	}
	if serr := s.legacy.Remove(doc.StoredName); serr != nil {
		logEvent("sidecar_remove_failed", map[string]any{"document_id": doc.ID, "error": serr.Error()})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// findByID resolves a record from the structured store, falling back to a
// legacy sidecar scan before reporting not-found.
func (s *documentService) findByID(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, apperr.Validation("id is required")
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find document: %w", err)
	}
	if legacy, lerr := s.legacy.List(); lerr == nil {
		for i := range legacy {
			if legacy[i].ID == id {
				return s.backfill(ctx, &legacy[i]), nil
			}
		}
	}
	return nil, apperr.NotFound("document not found")
}

// findByStoredName resolves a record by filename, migrating a legacy sidecar
// entry into the structured store on first hit.
func (s *documentService) findByStoredName(ctx context.Context, storedName string) (*model.Document, error) {
	if storedName == "" {
		return nil, apperr.Validation("name is required")
	}
	doc, err := s.repo.FindByStoredName(ctx, storedName)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find document: %w", err)
	}
	legacy, lerr := s.legacy.Read(storedName)
	if lerr != nil || legacy == nil {
		return nil, apperr.NotFound("document not found")
	}
	return s.backfill(ctx, legacy), nil
}

// backfill copies a sidecar record into the structured store. Failure keeps
// the request readable from the sidecar alone.
func (s *documentService) backfill(ctx context.Context, doc *model.Document) *model.Document {
	if stored, err := s.repo.Create(ctx, doc); err == nil {
		logEvent("sidecar_backfilled", map[string]any{"document_id": doc.ID})
		return stored
	}
	return doc
}

// update writes the record to the structured store and refreshes the sidecar
// when one exists for this document.
func (s *documentService) update(ctx context.Context, doc *model.Document) error {
	if err := s.repo.Update(ctx, doc); err != nil {
		return err
	}
	if existing, err := s.legacy.Read(doc.StoredName); err == nil && existing != nil {
		if werr := s.legacy.Write(doc); werr != nil {
			logEvent("sidecar_update_failed", map[string]any{"document_id": doc.ID, "error": werr.Error()})
		}
	}
	return nil
}

// loadBytes prefers the local mirror and falls back to a transient download
// from the object store.
func (s *documentService) loadBytes(ctx context.Context, doc *model.Document) ([]byte, error) {
	if doc.HasLocal() {
		if data, err := os.ReadFile(doc.LocalPath); err == nil {
			return data, nil
		}
		// The mirror copy is gone or unreadable; the remote object still
		// satisfies the never-zero-sources invariant.
	}
	if !doc.HasRemote() {
		return nil, apperr.Storage("document has no readable byte source", nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	rc, _, err := s.store.Get(callCtx, doc.ObjectKey)
	if err != nil {
		return nil, apperr.Storage("download from object store failed", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperr.Storage("download from object store failed", err)
	}
	return data, nil
}

// destroyOrEnqueue attempts a bounded remote destroy and parks the key on
// the cleanup queue when it fails.
func (s *documentService) destroyOrEnqueue(ctx context.Context, key string) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := s.store.Delete(callCtx, key); err != nil {
		logEvent("object_destroy_failed", map[string]any{"object_key": key, "error": err.Error()})
		s.cleanup.Enqueue(key)
	}
}
