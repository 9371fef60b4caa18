package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"planvault/internal/model"
	"planvault/internal/preview"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, caller model.Identity, r io.Reader, originalName, contentType string, size int64) (*model.Document, error) {
	args := m.Called(ctx, caller, r, originalName, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, caller model.Identity) ([]model.Document, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Preview(ctx context.Context, caller model.Identity, id string) (*preview.Preview, *model.Document, error) {
	args := m.Called(ctx, caller, id)
	var pv *preview.Preview
	if v := args.Get(0); v != nil {
		pv = v.(*preview.Preview)
	}
	var doc *model.Document
	if v := args.Get(1); v != nil {
		doc = v.(*model.Document)
	}
	return pv, doc, args.Error(2)
}

func (m *MockDocumentService) Save(ctx context.Context, caller model.Identity, storedName string, sheets []model.Sheet) (*model.Document, error) {
	args := m.Called(ctx, caller, storedName, sheets)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Rename(ctx context.Context, caller model.Identity, storedName, newName string) (*model.Document, error) {
	args := m.Called(ctx, caller, storedName, newName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, caller model.Identity, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}
