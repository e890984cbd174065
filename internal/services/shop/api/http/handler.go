// Package httpapi serves the storefront JSON API.
package httpapi

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
const ServiceName = "shop"

// Store is the persistence the storefront API reads and writes.
type Store interface {
	storage.UserStore
	storage.ProfileStore
	storage.ProductStore
	storage.CartStore
	storage.OrderStore
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

// Handler serves storefront routes.
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

// NewHandler builds the routed, middleware-wrapped storefront API.
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
	signedIn := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, auth.RequireUser(h.logger))
	}

	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", h.handleLogout)
	mux.HandleFunc("GET /api/auth/session", h.handleSession)
	mux.Handle("POST /api/auth/passkeys/register/begin", signedIn(h.handlePasskeyRegisterBegin))
	mux.Handle("POST /api/auth/passkeys/register/finish", signedIn(h.handlePasskeyRegisterFinish))
	mux.HandleFunc("POST /api/auth/passkeys/login/begin", h.handlePasskeyLoginBegin)
	mux.HandleFunc("POST /api/auth/passkeys/login/finish", h.handlePasskeyLoginFinish)

	mux.Handle("GET /api/profile", signedIn(h.handleGetProfile))
	mux.Handle("PUT /api/profile", signedIn(h.handlePutProfile))
	mux.Handle("POST /api/profile/avatar", signedIn(h.handleUploadAvatar))

	mux.HandleFunc("GET /api/products", h.handleListProducts)
	mux.HandleFunc("GET /api/products/{slug}", h.handleGetProduct)
	mux.HandleFunc("GET /api/categories", h.handleListCategories)

	mux.Handle("GET /api/cart", signedIn(h.handleGetCart))
	mux.Handle("POST /api/cart/items", signedIn(h.handleAddCartItem))
	mux.Handle("PUT /api/cart/items/{product_id}", signedIn(h.handleSetCartItem))
	mux.Handle("DELETE /api/cart/items/{product_id}", signedIn(h.handleRemoveCartItem))
	mux.Handle("DELETE /api/cart", signedIn(h.handleClearCart))

	mux.Handle("POST /api/orders", signedIn(h.handleCheckout))
	mux.Handle("GET /api/orders", signedIn(h.handleListOrders))
	mux.Handle("GET /api/orders/{id}", signedIn(h.handleGetOrder))
	mux.Handle("POST /api/orders/{id}/cancel", signedIn(h.handleCancelOrder))

	mux.HandleFunc("GET /api/i18n/languages", h.handleLanguages)
	mux.HandleFunc("GET /api/i18n/{locale}/{namespace}", h.handleCatalog)

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

// userID returns the signed-in user. Routes behind RequireUser always have one.
func userID(r *http.Request) string {
	return requestctx.UserIDFromContext(r.Context())
}
