package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/cache"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/domain"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/logger"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/repository"
)

var validate = validator.New()

type CatalogStore interface {
	repository.CatalogRepository
	repository.ProductWriter
}

type ProductInput struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=5000"`
	CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
}

func (in ProductInput) validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	if !domain.ValidMoney(in.Price) {
		return fmt.Errorf("%w: price must be between 0 and 9999999999.99 with at most 2 decimal places", domain.ErrInvalidArgument)
	}
	if !domain.ValidMoney(in.Discount) {
		return fmt.Errorf("%w: discount must have at most 2 decimal places", domain.ErrInvalidArgument)
	}
	if in.Discount.GreaterThan(in.Price) {
		return fmt.Errorf("%w: discount must be between 0 and price", domain.ErrInvalidArgument)
	}
	return nil
}

// CatalogService serves product lookups for browsing through the product
// cache. Cart and checkout never read through it.
type CatalogService struct {
	repo    CatalogStore
	cache   cache.ProductCache
	sfg     singleflight.Group // Prevents cache stampede
	timeout time.Duration
	log     *zap.Logger

	// fillMu orders cache fills against invalidations. writes counts the
	// invalidations per product; a fill that raced with one is dropped.
	fillMu sync.Mutex
	writes map[int64]uint64
}

func NewCatalogService(repo CatalogStore, productCache cache.ProductCache, timeout time.Duration, log *zap.Logger) *CatalogService {
	return &CatalogService{
		repo:    repo,
		cache:   productCache,
		timeout: timeout,
		log:     log,
		writes:  make(map[int64]uint64),
	}
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	log := logger.FromContext(ctx, s.log)

	v, err, _ := s.sfg.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		product, err := s.cache.Get(ctx, id)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn("cache get error", zap.Int64("product_id", id), zap.Error(err))
		}

		gen := s.generation(id)
		product, err = s.repo.GetProduct(ctx, id)
		if err != nil {
			return nil, classify("get product", notFound(err, repository.ErrProductNotFound, "product", id))
		}

		s.fill(ctx, product, gen)
		return product, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Product), nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, classify("list categories", err)
	}
	return categories, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, classify("list products", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, sellerID int64, in ProductInput) (*domain.Product, error) {
	if sellerID <= 0 {
		return nil, domain.ErrUnauthenticated
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p := &domain.Product{
		Title:       in.Title,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Price:       in.Price,
		Discount:    in.Discount,
		SellerID:    sellerID,
		ImageURL:    in.ImageURL,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, classify("create product", notFound(err, repository.ErrCategoryNotFound, "category", in.CategoryID))
	}

	created, err := s.repo.GetProduct(ctx, p.ID)
	if err != nil {
		return nil, classify("create product", err)
	}
	return created, nil
}

// UpdateProduct changes a listing owned by sellerID. Carts are priced at read
// time, so the new price applies to every cart holding the product.
func (s *CatalogService) UpdateProduct(ctx context.Context, sellerID, productID int64, in ProductInput) (*domain.Product, error) {
	if sellerID <= 0 {
		return nil, domain.ErrUnauthenticated
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.ensureOwner(ctx, sellerID, productID); err != nil {
		return nil, err
	}

	p := &domain.Product{
		ID:          productID,
		Title:       in.Title,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Price:       in.Price,
		Discount:    in.Discount,
		ImageURL:    in.ImageURL,
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		err = notFound(err, repository.ErrProductNotFound, "product", productID)
		return nil, classify("update product", notFound(err, repository.ErrCategoryNotFound, "category", in.CategoryID))
	}
	s.invalidate(ctx, productID)

	updated, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, classify("update product", err)
	}
	return updated, nil
}

// DeleteProduct retires a listing owned by sellerID. Carts still holding it
// will fail checkout until the entry is removed.
func (s *CatalogService) DeleteProduct(ctx context.Context, sellerID, productID int64) error {
	if sellerID <= 0 {
		return domain.ErrUnauthenticated
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.ensureOwner(ctx, sellerID, productID); err != nil {
		return err
	}
	if err := s.repo.RetireProduct(ctx, productID); err != nil {
		return classify("delete product", notFound(err, repository.ErrProductNotFound, "product", productID))
	}
	s.invalidate(ctx, productID)
	return nil
}

func (s *CatalogService) ensureOwner(ctx context.Context, sellerID, productID int64) error {
	current, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return classify("load product", notFound(err, repository.ErrProductNotFound, "product", productID))
	}
	if current.SellerID != sellerID {
		return domain.ErrForbidden
	}
	return nil
}

func (s *CatalogService) generation(productID int64) uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	return s.writes[productID]
}

// fill caches product unless the product was written after gen was taken.
func (s *CatalogService) fill(ctx context.Context, product *domain.Product, gen uint64) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if s.writes[product.ID] != gen {
		return
	}

	cacheCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(cacheCtx, product); err != nil {
		logger.FromContext(ctx, s.log).Warn("cache set error", zap.Int64("product_id", product.ID), zap.Error(err))
	}
}

func (s *CatalogService) invalidate(ctx context.Context, productID int64) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	s.writes[productID]++

	cacheCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(cacheCtx, productID); err != nil {
		logger.FromContext(ctx, s.log).Warn("cache invalidate error", zap.Int64("product_id", productID), zap.Error(err))
	}
}
