package handlers

import (
	"context"

	"github.com/gorilla/websocket"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/service"
)

// Pinger is a dependency probed by the readiness check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Services bundles the business services the handlers delegate to.
type Services struct {
	Auth       *service.AuthService
	Restaurant *service.RestaurantService
	Menu       *service.MenuService
	Orders     *service.OrderService
	Users      *service.UserService
	Loyalty    *service.LoyaltyService
	QRCode     *service.QRCodeService
}

// Handlers holds all HTTP handlers for the restaurant service.
type Handlers struct {
	auth       *service.AuthService
	restaurant *service.RestaurantService
	menu       *service.MenuService
	orders     *service.OrderService
	users      *service.UserService
	loyalty    *service.LoyaltyService
	qrcode     *service.QRCodeService

	hub      *events.Hub
	media    clients.MediaUploader
	checks   map[string]Pinger
	upgrader websocket.Upgrader
	mapper   *ErrorMapper
	logger   *logging.Logger
}

// NewHandlers creates a new handlers instance. media may be nil, in which
// case uploads answer 503.
func NewHandlers(svc Services, hub *events.Hub, media clients.MediaUploader, logger *logging.Logger) *Handlers {
	log := logger.Component("handlers")
	return &Handlers{
		auth:       svc.Auth,
		restaurant: svc.Restaurant,
		menu:       svc.Menu,
		orders:     svc.Orders,
		users:      svc.Users,
		loyalty:    svc.Loyalty,
		qrcode:     svc.QRCode,
		hub:        hub,
		media:      media,
		checks:     make(map[string]Pinger),
		mapper:     NewErrorMapper(log),
		logger:     log,
	}
}

// WithReadinessCheck registers a dependency probed by GET /ready.
func (h *Handlers) WithReadinessCheck(name string, p Pinger) *Handlers {
	h.checks[name] = p
	return h
}

// WithAllowedOrigins restricts websocket handshakes to the given origins.
// An empty list or "*" allows any origin.
func (h *Handlers) WithAllowedOrigins(origins []string) *Handlers {
	h.upgrader.CheckOrigin = originChecker(origins)
	return h
}
