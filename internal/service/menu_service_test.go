package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/repository"
)

func TestBuildMenu_GroupsAvailableProducts(t *testing.T) {
	categories := []*models.Category{{ID: "c-1", Name: "Mains"}, {ID: "c-2", Name: "Drinks"}}
	products := []*models.Product{
		{ID: "p-1", CategoryID: "c-1", Name: "Burger", IsAvailable: true},
		{ID: "p-2", CategoryID: "c-1", Name: "Sold out", IsAvailable: false},
		{ID: "p-3", CategoryID: "c-1", Name: "Wrap", IsAvailable: true},
	}

	menu := buildMenu("r-1", categories, products)

	require.Len(t, menu.Categories, 2)
	assert.Equal(t, "Mains", menu.Categories[0].Name)
	require.Len(t, menu.Categories[0].Products, 2)
	assert.Equal(t, "p-1", menu.Categories[0].Products[0].ID)
	assert.Equal(t, "p-3", menu.Categories[0].Products[1].ID)
	assert.NotNil(t, menu.Categories[1].Products)
	assert.Empty(t, menu.Categories[1].Products)
}

func TestMenuService_GetMenu_CachesAndInvalidates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache := repository.NewRedisCache(client, time.Minute, logging.Nop())

	restaurants := new(mockRestaurantRepo)
	categories := new(mockCategoryRepo)
	products := new(mockProductRepo)
	svc := NewMenuService(restaurants, categories, products, cache, logging.Nop())

	restaurants.On("GetByID", mock.Anything, "r-1").Return(&models.Restaurant{ID: "r-1"}, nil).Twice()
	categories.On("List", mock.Anything, scopeR1).Return([]*models.Category{{ID: "c-1", Name: "Mains"}}, nil).Twice()
	products.On("List", mock.Anything, scopeR1, "").Return([]*models.Product{burger()}, nil).Twice()

	_, err := svc.GetMenu(context.Background(), "r-1")
	require.NoError(t, err)
	menu, err := svc.GetMenu(context.Background(), "r-1")
	require.NoError(t, err)
	require.Len(t, menu.Categories, 1)
	assert.Len(t, menu.Categories[0].Products, 1)

	// a write drops the cached menu, so the next read hits the database again
	categories.On("Delete", mock.Anything, scopeR1, "c-1").Return(nil).Once()
	require.NoError(t, svc.DeleteCategory(merchantCtx("r-1"), "c-1"))

	_, err = svc.GetMenu(context.Background(), "r-1")
	require.NoError(t, err)

	restaurants.AssertExpectations(t)
	categories.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestMenuService_GetMenu_UnknownRestaurant(t *testing.T) {
	restaurants := new(mockRestaurantRepo)
	svc := NewMenuService(restaurants, new(mockCategoryRepo), new(mockProductRepo), nil, logging.Nop())
	restaurants.On("GetByID", mock.Anything, "ghost").Return(nil, apperrors.ErrNotFound).Once()

	_, err := svc.GetMenu(context.Background(), "ghost")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMenuService_CreateProduct(t *testing.T) {
	categories := new(mockCategoryRepo)
	products := new(mockProductRepo)
	svc := NewMenuService(new(mockRestaurantRepo), categories, products, nil, logging.Nop())

	rate := 5.0
	categories.On("GetByID", mock.Anything, scopeR1, "c-1").Return(&models.Category{ID: "c-1"}, nil).Once()
	products.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
		return p.RestaurantID == "r-1" && p.IsAvailable && p.TaxRate != nil && *p.TaxRate == 5
	})).Return(nil).Once()

	p, err := svc.CreateProduct(merchantCtx("r-1"), &models.ProductRequest{
		CategoryID: "c-1", Name: " Burger ", Price: 120, TaxRate: &rate,
	})

	require.NoError(t, err)
	assert.Equal(t, "Burger", p.Name)
	products.AssertExpectations(t)
}

func TestMenuService_CreateProduct_ForeignCategory(t *testing.T) {
	categories := new(mockCategoryRepo)
	svc := NewMenuService(new(mockRestaurantRepo), categories, new(mockProductRepo), nil, logging.Nop())
	categories.On("GetByID", mock.Anything, scopeR1, "c-other").Return(nil, apperrors.ErrNotFound).Once()

	_, err := svc.CreateProduct(merchantCtx("r-1"), &models.ProductRequest{CategoryID: "c-other", Name: "Burger", Price: 1})

	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "category_id", ve.Field)
}
