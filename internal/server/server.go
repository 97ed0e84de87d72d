package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/middleware"
)

type Server struct {
	config   *config.Config
	router   *gin.Engine
	http     *http.Server
	handlers *handlers.Handlers
	verifier middleware.TokenVerifier
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

// New builds the router. m may be nil, in which case /metrics is not
// served and requests are not measured.
func New(
	cfg *config.Config,
	h *handlers.Handlers,
	verifier middleware.TokenVerifier,
	m *metrics.Metrics,
	logger *logging.Logger,
) (*Server, error) {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		verifier: verifier,
		metrics:  m,
		logger:   logger.Component("server"),
	}

	router.Use(middleware.Recovery(logger), middleware.RequestID())
	if m != nil {
		router.Use(middleware.Metrics(m))
	}
	router.Use(middleware.Logger(logger), cors.New(corsConfig(cfg.CORS)))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s, nil
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.AllowedOrigins
	c.AllowCredentials = true
	return c
}

func (s *Server) setupRoutes() error {
	h := s.handlers

	s.router.GET("/health", h.Health)
	s.router.GET("/ready", h.Ready)
	s.router.GET("/live", h.Live)
	s.router.GET("/version", h.Version)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	orderLimit, err := middleware.RateLimit(s.config.RateLimit.PublicOrders)
	if err != nil {
		return err
	}

	v1 := s.router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/me", middleware.Auth(s.verifier), h.Me)
	}

	public := v1.Group("/public")
	{
		public.GET("/restaurants/:restaurantId", h.GetPublicRestaurant)
		public.GET("/restaurants/:restaurantId/menu", h.GetMenu)
		public.GET("/restaurants/:restaurantId/qrcode", h.GetQRCode)
		public.GET("/restaurants/:restaurantId/offers", h.GetActiveOffers)
		public.GET("/restaurants/:restaurantId/combos", h.GetActiveCombos)
		public.GET("/restaurants/:restaurantId/popup", h.GetActivePopup)
		public.GET("/restaurants/:restaurantId/sliders", h.GetActiveSliders)
		public.POST("/restaurants/:restaurantId/coupons/validate", h.ValidateCoupon)
		public.POST("/restaurants/:restaurantId/orders", orderLimit, h.PlaceOrder)
		public.GET("/orders/:orderId", h.TrackOrder)
		public.POST("/users", h.RegisterUser)
	}

	v1.GET("/ws", middleware.WebsocketAuth(s.verifier), h.Websocket)

	merchant := v1.Group("", middleware.Auth(s.verifier))
	{
		merchant.GET("/restaurant", h.GetRestaurant)
		merchant.PUT("/restaurant", h.UpdateRestaurant)
		merchant.DELETE("/restaurant", h.DeleteRestaurant)
		merchant.PUT("/restaurant/tax", h.UpdateTax)

		merchant.GET("/categories", h.ListCategories)
		merchant.POST("/categories", h.CreateCategory)
		merchant.GET("/categories/:id", h.GetCategory)
		merchant.PUT("/categories/:id", h.UpdateCategory)
		merchant.DELETE("/categories/:id", h.DeleteCategory)

		merchant.GET("/products", h.ListProducts)
		merchant.POST("/products", h.CreateProduct)
		merchant.GET("/products/:id", h.GetProduct)
		merchant.PUT("/products/:id", h.UpdateProduct)
		merchant.DELETE("/products/:id", h.DeleteProduct)

		merchant.GET("/orders", h.ListOrders)
		merchant.GET("/orders/:id", h.GetOrder)
		merchant.DELETE("/orders/:id", h.DeleteOrder)
		merchant.PATCH("/orders/:id/status", h.UpdateOrderStatus)
		merchant.PATCH("/orders/:id/payment", h.UpdatePayment)

		merchant.GET("/users", h.ListUsers)
		merchant.GET("/users/:id", h.GetUser)
		merchant.DELETE("/users/:id", h.RemoveUser)

		mount(merchant, "/offers", h.Offers())
		mount(merchant, "/coupons", h.Coupons())
		mount(merchant, "/combos", h.Combos())
		mount(merchant, "/popups", h.Popups())
		mount(merchant, "/sliders", h.Sliders())
		merchant.POST("/popups/:id/activate", h.ActivatePopup)

		merchant.POST("/uploads", h.Upload)
	}

	return nil
}

func mount(g *gin.RouterGroup, path string, r handlers.Resource) {
	g.GET(path, r.List)
	g.POST(path, r.Create)
	g.GET(path+"/:id", r.Get)
	g.PUT(path+"/:id", r.Update)
	g.DELETE(path+"/:id", r.Delete)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Run() error {
	s.logger.Info("Starting server", logging.Fields{"addr": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.http.Shutdown(ctx)
}
