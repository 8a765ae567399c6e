package service

import (
	"context"
	"fmt"

	"github.com/mvogel/vogelwedding/internal/model"
	"github.com/mvogel/vogelwedding/internal/repository"
)

// ContentService serves static page content: section images and the invoice.
type ContentService struct {
	repo repository.ContentRepository
}

// NewContentService constructs a content service.
func NewContentService(repo repository.ContentRepository) *ContentService {
	return &ContentService{repo: repo}
}

// AboutImages returns the about-page illustrations.
func (s *ContentService) AboutImages(ctx context.Context) ([]model.SectionImage, error) {
	return s.repo.SectionImages(ctx, "about")
}

// InformationImages returns the information-page illustrations.
func (s *ContentService) InformationImages(ctx context.Context) ([]model.SectionImage, error) {
	return s.repo.SectionImages(ctx, "information")
}

// Invoice returns the hosted invoice document for the admin view.
func (s *ContentService) Invoice(ctx context.Context) (*model.Invoice, error) {
	inv, err := s.repo.Invoice(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch invoice: %w", err)
	}
	return inv, nil
}
