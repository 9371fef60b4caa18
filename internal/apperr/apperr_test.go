package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "file too large", Validation("file too large").Error())

	wrapped := Storage("upload failed", errors.New("connection refused"))
	assert.Equal(t, "upload failed: connection refused", wrapped.Error())
	assert.Equal(t, "upload failed", wrapped.Message)
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("save document: %w", Permission("only the owner may edit"))

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindPermission, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("preview: %w", Parse("malformed workbook", errors.New("bad zip")))

	assert.True(t, errors.Is(err, &Error{Kind: KindParse}))
	assert.False(t, errors.Is(err, &Error{Kind: KindStorage}))
}

func TestMessageOf(t *testing.T) {
	err := Storage("upload failed", errors.New("internal detail"))
	assert.Equal(t, "upload failed", MessageOf(fmt.Errorf("ingest: %w", err)))
	assert.Equal(t, "", MessageOf(errors.New("plain")))
}
