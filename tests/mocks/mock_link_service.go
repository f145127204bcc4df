package mocks

import (
	"context"

	"github.com/Batmad01/url-shortener/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockLinkService struct {
	mock.Mock
}

func (m *MockLinkService) Create(ctx context.Context, req *domain.CreateLinkRequest, ownerID *uuid.UUID) (*domain.ShortLink, error) {
	args := m.Called(ctx, req, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShortLink), args.Error(1)
}

func (m *MockLinkService) Resolve(ctx context.Context, shortCode string) (*domain.ShortLink, error) {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShortLink), args.Error(1)
}

func (m *MockLinkService) Stats(ctx context.Context, shortCode string) (*domain.LinkView, error) {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkView), args.Error(1)
}

func (m *MockLinkService) Update(ctx context.Context, shortCode string, req *domain.UpdateLinkRequest, requesterID uuid.UUID) (*domain.ShortLink, error) {
	args := m.Called(ctx, shortCode, req, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShortLink), args.Error(1)
}

func (m *MockLinkService) Delete(ctx context.Context, shortCode string, requesterID uuid.UUID) (*domain.ShortLink, error) {
	args := m.Called(ctx, shortCode, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShortLink), args.Error(1)
}

func (m *MockLinkService) Search(ctx context.Context, originalURL string) (*domain.LinkView, error) {
	args := m.Called(ctx, originalURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkView), args.Error(1)
}

func (m *MockLinkService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.ShortLink, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ShortLink), args.Error(1)
}
