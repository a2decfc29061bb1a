package orders

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/elida-shop/storefront-backend/pkg/db/models"
	pkgerrors "github.com/elida-shop/storefront-backend/pkg/errors"
	"github.com/elida-shop/storefront-backend/pkg/logger"
)

// Service exposes order reads to the API layer.
type Service struct {
	repo   Repository
	logger *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("orders repository is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{repo: repo, logger: logg}, nil
}

// Find loads an order with its items by reference.
func (s *Service) Find(ctx context.Context, reference string) (*models.Order, error) {
	order, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find order by reference")
	}
	return order, nil
}
