package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"planvault/internal/apperr"
	"planvault/internal/mirror"
	"planvault/internal/model"
	"planvault/internal/preview"
	repoMocks "planvault/internal/repository/mocks"
	"planvault/internal/repository/sidecar"
	"planvault/internal/storage"
	storeMocks "planvault/internal/storage/mocks"
)

var (
	owner    = model.Identity{ID: "u1", Name: "Ada", Role: model.RoleStaff, Department: "CS"}
	stranger = model.Identity{ID: "u2", Name: "Bob", Role: model.RoleStaff, Department: "EE"}
	reviewer = model.Identity{ID: "u3", Name: "Eve", Role: model.RoleReviewer, Department: "CS"}
)

type fixture struct {
	store  *storeMocks.MockStorage
	repo   *repoMocks.MockDocumentRepository
	mirror *mirror.Mirror
	legacy *sidecar.Index
	queue  *CleanupQueue
	svc    DocumentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	m, err := mirror.New(root)
	require.NoError(t, err)

	f := &fixture{
		store:  new(storeMocks.MockStorage),
		repo:   new(repoMocks.MockDocumentRepository),
		mirror: m,
		legacy: sidecar.New(root),
		queue:  NewCleanupQueue(),
	}
	f.svc = NewDocumentService(f.store, f.repo, f.legacy, f.mirror, f.queue)
	return f
}

func ownedDoc(f *fixture, storedName, fileType string) *model.Document {
	now := time.Now().UTC().Add(-time.Hour)
	return &model.Document{
		ID:           "doc-1",
		OriginalName: "plan." + fileType,
		StoredName:   storedName,
		ObjectKey:    "documents/" + storedName,
		ObjectURL:    "http://minio/plans/documents/" + storedName,
		FileType:     fileType,
		Size:         10,
		OwnerID:      owner.ID,
		OwnerName:    owner.Name,
		Department:   owner.Department,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "documents/") && strings.HasSuffix(key, ".csv")
		}), mock.Anything, mock.Anything).
			Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
				return storage.ObjectInfo{Key: key, Size: opt.Size}
			}, nil)
		f.store.On("PublicURL", mock.Anything).Return("http://minio/plans/documents/x.csv")
		f.repo.On("Create", mock.Anything, mock.MatchedBy(func(doc *model.Document) bool {
			return doc.OwnerID == owner.ID && doc.HasRemote() && doc.FileType == model.TypeCSV
		})).Return(func(ctx context.Context, doc *model.Document) *model.Document { return doc }, nil)
		f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

		doc, err := f.svc.Upload(ctx, owner, strings.NewReader("a,b\n"), "plan.csv", "text/csv", 4)

		require.NoError(t, err)
		assert.True(t, doc.HasRemote())
		assert.True(t, doc.HasLocal())
		assert.Equal(t, int64(4), doc.Size)
		assert.True(t, f.mirror.Exists(doc.StoredName))
		f.store.AssertExpectations(t)
		f.repo.AssertExpectations(t)
	})

	t.Run("rejected payload performs zero storage writes", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Upload(ctx, owner, strings.NewReader("x"), "app.exe", "application/x-msdownload", 1)

		assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindValidation}))
		f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("oversize payload rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Upload(ctx, owner, strings.NewReader("x"), "plan.csv", "text/csv", 6<<20)

		assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindValidation}))
		f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("storage failure aborts without index entry", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("connection refused"))

		_, err := f.svc.Upload(ctx, owner, strings.NewReader("a,b\n"), "plan.csv", "text/csv", 4)

		assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindStorage}))
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("index failure rolls back the blob", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
				return storage.ObjectInfo{Key: key}
			}, nil)
		f.store.On("PublicURL", mock.Anything).Return("http://minio/plans/x")
		f.repo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
		f.store.On("Delete", mock.Anything, mock.Anything).Return(nil)

		_, err := f.svc.Upload(ctx, owner, strings.NewReader("a,b\n"), "plan.csv", "text/csv", 4)

		require.Error(t, err)
		f.store.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("failed rollback queues the orphan", func(t *testing.T) {
		f := newFixture(t)
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
				return storage.ObjectInfo{Key: key}
			}, nil)
		f.store.On("PublicURL", mock.Anything).Return("http://minio/plans/x")
		f.repo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
		f.store.On("Delete", mock.Anything, mock.Anything).Return(errors.New("still down"))

		_, err := f.svc.Upload(ctx, owner, strings.NewReader("a,b\n"), "plan.csv", "text/csv", 4)

		require.Error(t, err)
		assert.Equal(t, 1, f.queue.Len())
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("staff sees only their own documents", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("ListByOwner", mock.Anything, owner.ID).
			Return([]model.Document{*ownedDoc(f, "a.csv", model.TypeCSV)}, nil)

		docs, err := f.svc.List(ctx, owner)

		require.NoError(t, err)
		assert.Len(t, docs, 1)
		f.repo.AssertNotCalled(t, "ListByDepartment", mock.Anything, mock.Anything)
	})

	t.Run("reviewer sees department documents once", func(t *testing.T) {
		f := newFixture(t)
		shared := *ownedDoc(f, "a.csv", model.TypeCSV)
		own := shared
		own.ID = "doc-2"
		own.OwnerID = reviewer.ID
		own.CreatedAt = shared.CreatedAt.Add(time.Minute)

		f.repo.On("ListByOwner", mock.Anything, reviewer.ID).Return([]model.Document{own}, nil)
		f.repo.On("ListByDepartment", mock.Anything, "CS").Return([]model.Document{shared, own}, nil)

		docs, err := f.svc.List(ctx, reviewer)

		require.NoError(t, err)
		require.Len(t, docs, 2)
		// newest first
		assert.Equal(t, "doc-2", docs[0].ID)
	})

	t.Run("legacy sidecar entries appear when readable", func(t *testing.T) {
		f := newFixture(t)
		legacy := ownedDoc(f, "legacy.xls", model.TypeXLS)
		legacy.ID = "legacy-1"
		require.NoError(t, f.legacy.Write(legacy))

		foreign := ownedDoc(f, "foreign.xls", model.TypeXLS)
		foreign.ID = "legacy-2"
		foreign.OwnerID = stranger.ID
		foreign.Department = "EE"
		require.NoError(t, f.legacy.Write(foreign))

		f.repo.On("ListByOwner", mock.Anything, owner.ID).Return([]model.Document{}, nil)

		docs, err := f.svc.List(ctx, owner)

		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "legacy-1", docs[0].ID)
	})
}

func TestPreview(t *testing.T) {
	ctx := context.Background()

	t.Run("cross-department read denied", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.csv", model.TypeCSV)
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)

		_, _, err := f.svc.Preview(ctx, stranger, doc.ID)

		assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindPermission}))
		f.store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("reviewer may read department document", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.csv", model.TypeCSV)
		p, err := f.mirror.Write(doc.StoredName, []byte("a,b\n\"c, d\",e\n"))
		require.NoError(t, err)
		doc.LocalPath = p
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)

		pv, got, err := f.svc.Preview(ctx, reviewer, doc.ID)

		require.NoError(t, err)
		assert.Equal(t, doc.ID, got.ID)
		require.Len(t, pv.Sheets, 1)
		assert.Equal(t, [][]string{{"a", "b"}, {"c, d", "e"}}, pv.Sheets[0].Rows)
		// local mirror served the bytes
		f.store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("falls back to object store download", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.csv", model.TypeCSV)
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
		f.store.On("Get", mock.Anything, doc.ObjectKey).
			Return(io.NopCloser(strings.NewReader("x,y\n")), storage.ObjectInfo{Key: doc.ObjectKey}, nil)

		pv, _, err := f.svc.Preview(ctx, owner, doc.ID)

		require.NoError(t, err)
		assert.Equal(t, [][]string{{"x", "y"}}, pv.Sheets[0].Rows)
	})

	t.Run("download failure is a storage error", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.csv", model.TypeCSV)
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
		f.store.On("Get", mock.Anything, doc.ObjectKey).
			Return(nil, storage.ObjectInfo{}, errors.New("timeout"))

		_, _, err := f.svc.Preview(ctx, owner, doc.ID)

		assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindStorage}))
	})

	t.Run("unsupported type yields unavailable preview", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.pdf", model.TypePDF)
		p, err := f.mirror.Write(doc.StoredName, []byte("%PDF-1.4"))
		require.NoError(t, err)
		doc.LocalPath = p
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)

		pv, got, err := f.svc.Preview(ctx, owner, doc.ID)

		require.NoError(t, err)
		assert.Equal(t, preview.KindUnavailable, pv.Kind)
		assert.Equal(t, doc.OwnerID, got.OwnerID)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByID", mock.Anything, "nope").Return(nil, sql.ErrNoRows)

		_, _, err := f.svc.Preview(ctx, owner, "nope")

		assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindNotFound}))
	})
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	rows := [][]string{{"a", "b"}, {"c, d", "e"}}
	sheets := []model.Sheet{{Name: "Sheet1", Rows: rows}}

	t.Run("missing sheets rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Save(ctx, owner, "a.csv", nil)

		assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindValidation}))
	})

	t.Run("non-owner denied without side effects", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.csv", model.TypeCSV)
		f.repo.On("FindByStoredName", mock.Anything, doc.StoredName).Return(doc, nil)
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)

		_, err := f.svc.Save(ctx, reviewer, doc.StoredName, sheets)

		assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindPermission}))
		f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		assert.False(t, f.mirror.Exists(doc.StoredName))
	})

	t.Run("document types are not editable", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.docx", model.TypeDOCX)
		f.repo.On("FindByStoredName", mock.Anything, doc.StoredName).Return(doc, nil)
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)

		_, err := f.svc.Save(ctx, owner, doc.StoredName, sheets)

		assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindValidation}))
	})

	t.Run("happy path swaps the remote object", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.csv", model.TypeCSV)
		oldKey := doc.ObjectKey
		f.repo.On("FindByStoredName", mock.Anything, doc.StoredName).Return(doc, nil)
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
		f.store.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
			return key != oldKey && strings.HasPrefix(key, "documents/")
		}), mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)
		f.store.On("PublicURL", mock.Anything).Return("http://minio/plans/new")
		f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)
		f.store.On("Delete", mock.Anything, oldKey).Return(nil)

		saved, err := f.svc.Save(ctx, owner, doc.StoredName, sheets)

		require.NoError(t, err)
		assert.NotEqual(t, oldKey, saved.ObjectKey)
		assert.True(t, saved.HasLocal())
		f.store.AssertExpectations(t)

		// round trip: the mirrored bytes parse back to the same rows
		data, err := f.mirror.Read(doc.StoredName)
		require.NoError(t, err)
		pv, err := preview.Extract(model.TypeCSV, data)
		require.NoError(t, err)
		assert.Equal(t, rows, pv.Sheets[0].Rows)
	})

	t.Run("old object destroy failure does not fail the edit", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.csv", model.TypeCSV)
		oldKey := doc.ObjectKey
		f.repo.On("FindByStoredName", mock.Anything, doc.StoredName).Return(doc, nil)
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)
		f.store.On("PublicURL", mock.Anything).Return("http://minio/plans/new")
		f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)
		f.store.On("Delete", mock.Anything, oldKey).Return(errors.New("unreachable"))

		_, err := f.svc.Save(ctx, owner, doc.StoredName, sheets)

		require.NoError(t, err)
		assert.Equal(t, 1, f.queue.Len())
	})

	t.Run("upload failure degrades to local-only success", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.csv", model.TypeCSV)
		oldKey := doc.ObjectKey
		oldURL := doc.ObjectURL
		f.repo.On("FindByStoredName", mock.Anything, doc.StoredName).Return(doc, nil)
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("unreachable"))
		f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

		saved, err := f.svc.Save(ctx, owner, doc.StoredName, sheets)

		require.NoError(t, err)
		// prior remote location kept, local copy carries the edit
		assert.Equal(t, oldKey, saved.ObjectKey)
		assert.Equal(t, oldURL, saved.ObjectURL)
		assert.True(t, saved.HasLocal())
		data, rerr := f.mirror.Read(doc.StoredName)
		require.NoError(t, rerr)
		assert.NotEmpty(t, data)
	})

	t.Run("concurrent rename is honored under the lock", func(t *testing.T) {
		f := newFixture(t)
		// The lookup sees the old stored name; by the time the lock is held a
		// rename has moved the record to b.csv. The save must follow it.
		stale := ownedDoc(f, "a.csv", model.TypeCSV)
		fresh := ownedDoc(f, "b.csv", model.TypeCSV)
		f.repo.On("FindByStoredName", mock.Anything, "a.csv").Return(stale, nil)
		f.repo.On("FindByID", mock.Anything, fresh.ID).Return(fresh, nil)
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)
		f.store.On("PublicURL", mock.Anything).Return("http://minio/plans/new")
		f.repo.On("Update", mock.Anything, mock.MatchedBy(func(d *model.Document) bool {
			return d.StoredName == "b.csv"
		})).Return(nil)
		f.store.On("Delete", mock.Anything, mock.Anything).Return(nil)

		saved, err := f.svc.Save(ctx, owner, "a.csv", sheets)

		require.NoError(t, err)
		assert.Equal(t, "b.csv", saved.StoredName)
		assert.True(t, f.mirror.Exists("b.csv"))
		assert.False(t, f.mirror.Exists("a.csv"))
		f.repo.AssertExpectations(t)
	})

	t.Run("concurrent delete surfaces not found", func(t *testing.T) {
		f := newFixture(t)
		stale := ownedDoc(f, "a.csv", model.TypeCSV)
		f.repo.On("FindByStoredName", mock.Anything, "a.csv").Return(stale, nil)
		f.repo.On("FindByID", mock.Anything, stale.ID).Return(nil, sql.ErrNoRows)

		_, err := f.svc.Save(ctx, owner, "a.csv", sheets)

		assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindNotFound}))
		assert.False(t, f.mirror.Exists("a.csv"), "no orphan mirror file may be written")
		f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRename(t *testing.T) {
	ctx := context.Background()

	t.Run("non-owner denied", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.csv", model.TypeCSV)
		f.repo.On("FindByStoredName", mock.Anything, doc.StoredName).Return(doc, nil)
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)

		_, err := f.svc.Rename(ctx, stranger, doc.StoredName, "mine")

		assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindPermission}))
	})

	t.Run("renames file and record", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.csv", model.TypeCSV)
		p, err := f.mirror.Write(doc.StoredName, []byte("a,b\n"))
		require.NoError(t, err)
		doc.LocalPath = p
		f.repo.On("FindByStoredName", mock.Anything, doc.StoredName).Return(doc, nil)
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
		f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

		renamed, err := f.svc.Rename(ctx, owner, doc.StoredName, "final-plan")

		require.NoError(t, err)
		assert.Equal(t, "final-plan.csv", renamed.StoredName)
		assert.Equal(t, "final-plan", renamed.OriginalName)
		assert.True(t, f.mirror.Exists("final-plan.csv"))
		assert.False(t, f.mirror.Exists("a.csv"))
	})

	t.Run("collision appends a suffix and preserves the other file", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.csv", model.TypeCSV)
		p, err := f.mirror.Write(doc.StoredName, []byte("mine"))
		require.NoError(t, err)
		doc.LocalPath = p
		_, err = f.mirror.Write("taken.csv", []byte("other"))
		require.NoError(t, err)

		f.repo.On("FindByStoredName", mock.Anything, doc.StoredName).Return(doc, nil)
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
		f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)

		renamed, err := f.svc.Rename(ctx, owner, doc.StoredName, "taken")

		require.NoError(t, err)
		assert.NotEqual(t, "taken.csv", renamed.StoredName)
		other, rerr := f.mirror.Read("taken.csv")
		require.NoError(t, rerr)
		assert.Equal(t, []byte("other"), other)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("non-owner denied with zero io", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.csv", model.TypeCSV)
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)

		err := f.svc.Delete(ctx, reviewer, doc.ID)

		assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindPermission}))
		f.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("destroys remote, local and index entry", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.csv", model.TypeCSV)
		p, err := f.mirror.Write(doc.StoredName, []byte("a,b\n"))
		require.NoError(t, err)
		doc.LocalPath = p
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
		f.store.On("Delete", mock.Anything, doc.ObjectKey).Return(nil)
		f.repo.On("Delete", mock.Anything, doc.ID).Return(nil)

		require.NoError(t, f.svc.Delete(ctx, owner, doc.ID))
		assert.False(t, f.mirror.Exists(doc.StoredName))
		f.store.AssertExpectations(t)
		f.repo.AssertExpectations(t)
	})

	t.Run("remote failure still removes the index entry", func(t *testing.T) {
		f := newFixture(t)
		doc := ownedDoc(f, "a.csv", model.TypeCSV)
		f.repo.On("FindByID", mock.Anything, doc.ID).Return(doc, nil)
		f.store.On("Delete", mock.Anything, doc.ObjectKey).Return(errors.New("unreachable"))
		f.repo.On("Delete", mock.Anything, doc.ID).Return(nil)

		require.NoError(t, f.svc.Delete(ctx, owner, doc.ID))
		assert.Equal(t, 1, f.queue.Len())
	})
}

func TestLegacyBackfill(t *testing.T) {
	ctx := context.Background()

	t.Run("by stored name migrates into the structured store", func(t *testing.T) {
		f := newFixture(t)
		legacy := ownedDoc(f, "legacy.csv", model.TypeCSV)
		legacy.ID = "legacy-1"
		require.NoError(t, f.legacy.Write(legacy))
		p, err := f.mirror.Write("legacy.csv", []byte("a\n"))
		require.NoError(t, err)
		legacy.LocalPath = p
		require.NoError(t, f.legacy.Write(legacy))

		f.repo.On("FindByStoredName", mock.Anything, "legacy.csv").Return(nil, sql.ErrNoRows)
		f.repo.On("FindByID", mock.Anything, "legacy-1").Return(legacy, nil)
		f.repo.On("Create", mock.Anything, mock.MatchedBy(func(doc *model.Document) bool {
			return doc.ID == "legacy-1"
		})).Return(func(ctx context.Context, doc *model.Document) *model.Document { return doc }, nil)
		f.repo.On("Update", mock.Anything, mock.Anything).Return(nil)
		f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)
		f.store.On("PublicURL", mock.Anything).Return("http://minio/plans/new")
		f.store.On("Delete", mock.Anything, mock.Anything).Return(nil)

		_, err = f.svc.Save(ctx, owner, "legacy.csv", []model.Sheet{{Name: "Sheet1", Rows: [][]string{{"z"}}}})

		require.NoError(t, err)
		f.repo.AssertCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown name is not found", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("FindByStoredName", mock.Anything, "ghost.csv").Return(nil, sql.ErrNoRows)

		_, err := f.svc.Save(ctx, owner, "ghost.csv", []model.Sheet{{Rows: [][]string{{"z"}}}})

		assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindNotFound}))
	})
}
