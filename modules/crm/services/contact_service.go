package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/crm/domain/aggregates/contact"
)

type ContactService struct {
	repo contact.Repository
}

func NewContactService(repo contact.Repository) *ContactService {
	return &ContactService{repo: repo}
}

func (s *ContactService) GetByID(ctx context.Context, id uuid.UUID) (contact.Contact, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ContactService) All(ctx context.Context) ([]contact.Contact, error) {
	return s.repo.All(ctx)
}

func (s *ContactService) Create(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	return s.repo.Create(ctx, c)
}
