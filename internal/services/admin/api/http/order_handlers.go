package adminapi

import (
	"net/http"
	"strings"

	"github.com/louisbranch/storefront/internal/platform/httpx"
	httpapi "github.com/louisbranch/storefront/internal/services/shop/api/http"
	"github.com/louisbranch/storefront/internal/services/shop/api/jsonview"
	"github.com/louisbranch/storefront/internal/services/shop/order"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
	"go.uber.org/zap"
)

type orderStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := storage.OrderQuery{UserID: strings.TrimSpace(params.Get("user_id"))}
	if raw := params.Get("status"); raw != "" {
		status, err := order.ParseStatus(raw)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		query.Status = status
	}
	orders, next, err := httpapi.OrderPage(r, h.store, query, "orders|"+string(query.Status)+"|"+query.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, jsonview.OrderPage{
		Orders:        h.formatter(r).Orders(orders),
		NextPageToken: next,
	})
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.store.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.formatter(r).Order(o))
}

// handleSetOrderStatus moves any order along its lifecycle. Cancelling
// restocks the order lines.
func (h *Handler) handleSetOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req orderStatusRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	updated, err := h.store.TransitionOrder(r.Context(), r.PathValue("id"), "", status, h.clock())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("order status changed",
		zap.String("order_id", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.String("admin_id", adminID(r)),
	)
	h.writeJSON(w, http.StatusOK, h.formatter(r).Order(updated))
}
