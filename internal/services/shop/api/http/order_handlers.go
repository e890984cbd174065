package httpapi

import (
	"errors"
	"net/http"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/platform/pagination"
	"github.com/louisbranch/storefront/internal/services/shop/account"
	"github.com/louisbranch/storefront/internal/services/shop/api/jsonview"
	"github.com/louisbranch/storefront/internal/services/shop/order"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
	"go.uber.org/zap"
)

const (
	defaultOrderPageSize = 20
	maxOrderPageSize     = 100
)

var errOrderNotFound = apperrors.New(apperrors.CodeNotFound, "order not found")

type checkoutRequest struct {
	ShippingAddress *account.Address `json:"shipping_address,omitempty"`
}

// handleCheckout places an order from the cart. The shipping address comes
// from the request when present, else from the profile.
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	ctx := r.Context()
	owner := userID(r)
	profile, err := h.loadProfile(ctx, owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	address, err := order.ResolveAddress(req.ShippingAddress, profile.Address)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	placed, err := h.store.Checkout(ctx, storage.CheckoutInput{
		UserID:      owner,
		Address:     address,
		Now:         h.clock,
		IDGenerator: h.newID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("order placed",
		zap.String("order_id", placed.ID),
		zap.String("user_id", owner),
		zap.Int64("subtotal_cents", placed.SubtotalCents),
		zap.String("currency", placed.Currency),
	)
	h.writeJSON(w, http.StatusCreated, h.formatter(r).Order(placed))
}

// OrderPage fetches one page of orders for query using an offset page token
// bound to tokenQuery.
func OrderPage(r *http.Request, store storage.OrderStore, query storage.OrderQuery, tokenQuery string) ([]order.Order, string, error) {
	params := r.URL.Query()
	pageSize := pagination.ParsePageSize(params.Get("page_size"), pagination.PageSizeConfig{Default: defaultOrderPageSize, Max: maxOrderPageSize})
	cursor, err := pagination.DecodeToken(params.Get("page_token"), tokenQuery)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeInvalidPageToken, "invalid page token", err)
	}
	query.Limit = pageSize + 1
	query.Offset = cursor.Offset
	orders, err := store.ListOrders(r.Context(), query)
	if err != nil {
		return nil, "", err
	}
	next := pagination.NextToken(cursor.Offset, pageSize, len(orders), tokenQuery)
	if len(orders) > pageSize {
		orders = orders[:pageSize]
	}
	return orders, next, nil
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, next, err := OrderPage(r, h.store, storage.OrderQuery{UserID: userID(r)}, "orders")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, jsonview.OrderPage{
		Orders:        h.formatter(r).Orders(orders),
		NextPageToken: next,
	})
}

// ownOrder loads an order placed by the caller. Other users' orders are
// reported as missing.
func (h *Handler) ownOrder(r *http.Request) (order.Order, error) {
	o, err := h.store.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		return order.Order{}, err
	}
	if o.UserID != userID(r) {
		return order.Order{}, errOrderNotFound
	}
	return o, nil
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.ownOrder(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.formatter(r).Order(o))
}

// handleCancelOrder lets a customer cancel an order that has not been paid.
func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.ownOrder(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cancelled, err := h.store.TransitionOrder(r.Context(), o.ID, o.UserID, order.StatusCancelled, h.clock())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = errOrderNotFound
		}
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("order cancelled", zap.String("order_id", o.ID), zap.String("user_id", o.UserID))
	h.writeJSON(w, http.StatusOK, h.formatter(r).Order(cancelled))
}
