package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopscript/apiserver/internal/store"
	"github.com/shopscript/apiserver/types"
)

// Column widths of the products table.
const (
	maxDescriptionLength = 1000
	maxDetailsLength     = 2000
)

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	List(ctx context.Context, filter types.ProductFilter) ([]types.Product, int, error)
	Get(ctx context.Context, id int) (types.Product, error)
	Create(ctx context.Context, product types.Product) (types.Product, error)
	Update(ctx context.Context, product types.Product) (types.Product, error)
	SoftDelete(ctx context.Context, id int) error
}

// ProductService encapsulates catalog use-cases.
type ProductService struct {
	repo ProductRepository
}

func NewProductService(repo ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) List(ctx context.Context, filter types.ProductFilter) ([]types.Product, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

// Get returns a visible product. Soft-deleted products are reported as missing.
func (s *ProductService) Get(ctx context.Context, id int) (types.Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Product{}, ErrNotFound
		}
		return types.Product{}, err
	}
	if product.Deleted {
		return types.Product{}, ErrNotFound
	}
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, product types.Product) (types.Product, error) {
	if err := validateProduct(&product); err != nil {
		return types.Product{}, err
	}
	return s.repo.Create(ctx, product)
}

func (s *ProductService) Update(ctx context.Context, product types.Product) (types.Product, error) {
	if err := validateProduct(&product); err != nil {
		return types.Product{}, err
	}
	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Product{}, ErrNotFound
		}
		return types.Product{}, err
	}
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id int) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func validateProduct(product *types.Product) error {
	product.Name = strings.TrimSpace(product.Name)
	product.Category = strings.TrimSpace(product.Category)
	product.Subcategory = strings.TrimSpace(product.Subcategory)
	if product.Name == "" {
		return ErrMissingFields
	}
	if product.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if product.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}
	if utf8.RuneCountInString(product.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, maxDescriptionLength)
	}
	if utf8.RuneCountInString(product.Details) > maxDetailsLength {
		return fmt.Errorf("%w: details must be at most %d characters", ErrInvalidInput, maxDetailsLength)
	}

	sizes := make([]string, 0, len(product.Sizes))
	for _, size := range product.Sizes {
		if size = strings.TrimSpace(size); size != "" {
			sizes = append(sizes, size)
		}
	}
	product.Sizes = sizes

	for size, price := range product.SizePrices {
		if price < 0 {
			return fmt.Errorf("%w: price for size %s must not be negative", ErrInvalidInput, size)
		}
	}
	return nil
}
