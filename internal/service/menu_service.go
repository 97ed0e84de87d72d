package service

import (
	"context"
	"errors"
	"strings"

	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/repository"
)

// MenuService manages categories and products and serves the public menu.
type MenuService struct {
	restaurants repository.RestaurantRepository
	categories  repository.CategoryRepository
	products    repository.ProductRepository
	cache       repository.Cache
	logger      *logging.Logger
}

// NewMenuService wires the service. cache may be nil, in which case the
// menu is assembled from the database on every request.
func NewMenuService(
	restaurants repository.RestaurantRepository,
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	cache repository.Cache,
	logger *logging.Logger,
) *MenuService {
	return &MenuService{
		restaurants: restaurants,
		categories:  categories,
		products:    products,
		cache:       cache,
		logger:      logger.Component("menu-service"),
	}
}

// GetMenu returns the restaurant's categories with their available products.
func (s *MenuService) GetMenu(ctx context.Context, restaurantID string) (*models.Menu, error) {
	if s.cache != nil {
		menu, err := s.cache.GetMenu(ctx, restaurantID)
		if err != nil {
			s.logger.Warn("Menu cache read failed", logging.Fields{"restaurant_id": restaurantID, "error": err.Error()})
		} else if menu != nil {
			return menu, nil
		}
	}

	if _, err := s.restaurants.GetByID(ctx, restaurantID); err != nil {
		return nil, err
	}

	scope := repository.ForRestaurant(restaurantID)
	categories, err := s.categories.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx, scope, "")
	if err != nil {
		return nil, err
	}

	menu := buildMenu(restaurantID, categories, products)

	if s.cache != nil {
		if err := s.cache.SetMenu(ctx, menu); err != nil {
			s.logger.Warn("Failed to cache menu", logging.Fields{"restaurant_id": restaurantID, "error": err.Error()})
		}
	}
	return menu, nil
}

func buildMenu(restaurantID string, categories []*models.Category, products []*models.Product) *models.Menu {
	byCategory := make(map[string][]*models.Product, len(categories))
	for _, p := range products {
		if !p.IsAvailable {
			continue
		}
		byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
	}

	menu := &models.Menu{RestaurantID: restaurantID, Categories: make([]*models.MenuCategory, 0, len(categories))}
	for _, c := range categories {
		items := byCategory[c.ID]
		if items == nil {
			items = []*models.Product{}
		}
		menu.Categories = append(menu.Categories, &models.MenuCategory{Category: *c, Products: items})
	}
	return menu
}

func (s *MenuService) invalidate(ctx context.Context, restaurantID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateMenu(ctx, restaurantID); err != nil {
		s.logger.Warn("Failed to invalidate menu cache", logging.Fields{"restaurant_id": restaurantID, "error": err.Error()})
	}
}

func (s *MenuService) CreateCategory(ctx context.Context, req *models.CategoryRequest) (*models.Category, error) {
	if err := ValidateCategoryRequest(req); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}

	category := &models.Category{
		RestaurantID: scope.RestaurantID,
		Name:         strings.TrimSpace(req.Name),
		Price:        req.Price,
		ImageURL:     req.ImageURL,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	s.invalidate(ctx, scope.RestaurantID)
	return category, nil
}

func (s *MenuService) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.categories.GetByID(ctx, scope, id)
}

func (s *MenuService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.categories.List(ctx, scope)
}

func (s *MenuService) UpdateCategory(ctx context.Context, id string, req *models.CategoryRequest) (*models.Category, error) {
	if err := ValidateCategoryRequest(req); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}

	category, err := s.categories.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	category.Name = strings.TrimSpace(req.Name)
	category.Price = req.Price
	category.ImageURL = req.ImageURL

	if err := s.categories.Update(ctx, scope, category); err != nil {
		return nil, err
	}

	s.invalidate(ctx, scope.RestaurantID)
	return category, nil
}

// DeleteCategory removes the category together with its products.
func (s *MenuService) DeleteCategory(ctx context.Context, id string) error {
	scope, err := requireScope(ctx)
	if err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, scope, id); err != nil {
		return err
	}
	s.invalidate(ctx, scope.RestaurantID)
	return nil
}

func (s *MenuService) CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, error) {
	if err := ValidateProductRequest(req); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, scope, req.CategoryID); err != nil {
		return nil, err
	}

	product := &models.Product{RestaurantID: scope.RestaurantID, IsAvailable: true}
	applyProductRequest(product, req)

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.invalidate(ctx, scope.RestaurantID)
	return product, nil
}

func (s *MenuService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.products.GetByID(ctx, scope, id)
}

func (s *MenuService) ListProducts(ctx context.Context, categoryID string) ([]*models.Product, error) {
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}
	return s.products.List(ctx, scope, categoryID)
}

func (s *MenuService) UpdateProduct(ctx context.Context, id string, req *models.ProductRequest) (*models.Product, error) {
	if err := ValidateProductRequest(req); err != nil {
		return nil, err
	}
	scope, err := requireScope(ctx)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if req.CategoryID != product.CategoryID {
		if err := s.checkCategory(ctx, scope, req.CategoryID); err != nil {
			return nil, err
		}
	}
	applyProductRequest(product, req)

	if err := s.products.Update(ctx, scope, product); err != nil {
		return nil, err
	}

	s.invalidate(ctx, scope.RestaurantID)
	return product, nil
}

func (s *MenuService) DeleteProduct(ctx context.Context, id string) error {
	scope, err := requireScope(ctx)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, scope, id); err != nil {
		return err
	}
	s.invalidate(ctx, scope.RestaurantID)
	return nil
}

// checkCategory rejects a category the restaurant does not own as a bad
// request rather than a missing resource.
func (s *MenuService) checkCategory(ctx context.Context, scope repository.Scope, categoryID string) error {
	_, err := s.categories.GetByID(ctx, scope, categoryID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewValidationError("category_id", "category does not exist")
	}
	return err
}

func applyProductRequest(p *models.Product, req *models.ProductRequest) {
	p.CategoryID = req.CategoryID
	p.Name = strings.TrimSpace(req.Name)
	p.Price = req.Price
	p.TaxRate = req.TaxRate
	p.Description = strings.TrimSpace(req.Description)
	p.ImageURL = req.ImageURL
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}
}
