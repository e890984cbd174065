// Package adminapi serves the admin console JSON API. Every route requires a
// session whose current role is admin.
package adminapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/platform/id"
	"github.com/louisbranch/storefront/internal/platform/objectstore"
	"github.com/louisbranch/storefront/internal/platform/requestctx"
	"github.com/louisbranch/storefront/internal/platform/timeouts"
	"github.com/louisbranch/storefront/internal/services/shop/api/jsonview"
	"github.com/louisbranch/storefront/internal/services/shop/auth"
	"github.com/louisbranch/storefront/internal/services/shop/media"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
	"go.uber.org/zap"
)

// ServiceName labels spans and logs for this API.
const ServiceName = "admin"

// Store is the persistence the admin console reads and writes.
type Store interface {
	storage.UserStore
	storage.ProfileStore
	storage.ProductStore
	storage.OrderStore
	storage.StatisticsStore
}

// Dependencies wires the API to its collaborators.
type Dependencies struct {
	Store  Store
	Auth   *auth.Service
	Media  objectstore.Store
	Policy httpx.SchemePolicy
	Logger *zap.Logger
	Clock  func() time.Time
	NewID  func() (string, error)
}

// Handler serves admin routes.
type Handler struct {
	store    Store
	auth     *auth.Service
	media    objectstore.Store
	uploader *media.Uploader
	policy   httpx.SchemePolicy
	logger   *zap.Logger
	clock    func() time.Time
	newID    func() (string, error)
}

// NewHandler builds the routed, middleware-wrapped admin API.
func NewHandler(deps Dependencies) (http.Handler, error) {
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Auth == nil {
		return nil, errors.New("auth service is required")
	}
	if deps.Media == nil {
		return nil, errors.New("media store is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = id.NewID
	}
	h := &Handler{
		store:    deps.Store,
		auth:     deps.Auth,
		media:    deps.Media,
		uploader: media.NewUploader(deps.Media, deps.Logger),
		policy:   deps.Policy,
		logger:   deps.Logger,
		clock:    deps.Clock,
		newID:    deps.NewID,
	}

	mux := http.NewServeMux()
	h.registerRoutes(mux)

	return httpx.Chain(mux,
		httpx.RequestID(),
		httpx.AccessLog(h.logger),
		httpx.RecoverPanic(h.logger),
		httpx.Trace(ServiceName),
		requestTimeout(),
		httpx.RequireSameOrigin(h.policy, auth.CookieName, h.logger),
		h.auth.Authenticate(h.policy),
	), nil
}

func (h *Handler) registerRoutes(mux *http.ServeMux) {
	admin := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, auth.RequireAdmin(h.logger))
	}

	mux.Handle("GET /admin/api/dashboard", admin(h.handleDashboard))

	mux.Handle("GET /admin/api/products", admin(h.handleListProducts))
	mux.Handle("POST /admin/api/products", admin(h.handleCreateProduct))
	mux.Handle("GET /admin/api/products/{id}", admin(h.handleGetProduct))
	mux.Handle("PUT /admin/api/products/{id}", admin(h.handleUpdateProduct))
	mux.Handle("DELETE /admin/api/products/{id}", admin(h.handleDeleteProduct))
	mux.Handle("POST /admin/api/products/{id}/image", admin(h.handleUploadProductImage))

	mux.Handle("GET /admin/api/orders", admin(h.handleListOrders))
	mux.Handle("GET /admin/api/orders/{id}", admin(h.handleGetOrder))
	mux.Handle("POST /admin/api/orders/{id}/status", admin(h.handleSetOrderStatus))

	mux.Handle("GET /admin/api/users", admin(h.handleListUsers))
	mux.Handle("GET /admin/api/users/{id}", admin(h.handleGetUser))
	mux.Handle("POST /admin/api/users/{id}/role", admin(h.handleSetUserRole))

	mux.Handle("GET /media/{key...}", media.Handler(h.media, h.logger))
	mux.HandleFunc("GET /up", handleUp)
	mux.Handle("/", httpx.NotFound(h.logger))
}

// requestTimeout bounds handler contexts, allowing multipart uploads longer.
func requestTimeout() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timeout := timeouts.Request
			if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				timeout = timeouts.Upload
			}
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func handleUp(w http.ResponseWriter, _ *http.Request) {
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	if err := httpx.WriteJSON(w, status, payload); err != nil {
		h.logger.Warn("write json response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteError(w, r, h.logger, err)
}

func (h *Handler) formatter(r *http.Request) jsonview.Formatter {
	return jsonview.NewFormatter(r, h.uploader.URL)
}

// adminID returns the acting admin.
func adminID(r *http.Request) string {
	return requestctx.UserIDFromContext(r.Context())
}
