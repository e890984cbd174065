package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/services/shop/cart"
	"github.com/louisbranch/storefront/internal/services/shop/catalog"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
)

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type setCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

func (h *Handler) loadCart(ctx context.Context, userID string) (cart.Cart, []cart.Item, map[string]catalog.Product, error) {
	items, err := h.store.ListCartItems(ctx, userID)
	if err != nil {
		return cart.Cart{}, nil, nil, err
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := h.store.GetProducts(ctx, ids)
	if err != nil {
		return cart.Cart{}, nil, nil, err
	}
	return cart.Build(userID, items, products), items, products, nil
}

func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request) {
	c, _, _, err := h.loadCart(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.formatter(r).Cart(c))
}

// activeProduct loads a product that may be added to a cart.
func (h *Handler) activeProduct(ctx context.Context, productID string) (catalog.Product, error) {
	product, err := h.store.GetProduct(ctx, productID)
	if err != nil {
		return catalog.Product{}, err
	}
	if !product.Active {
		return catalog.Product{}, errProductNotFound
	}
	return product, nil
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r)
}

// handleAddCartItem merges quantity into an existing line for the product.
func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := cart.ValidateQuantity(req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	owner := userID(r)
	product, err := h.activeProduct(ctx, req.ProductID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_, items, products, err := h.loadCart(ctx, owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := cart.CheckCurrency(items, products, product); err != nil {
		h.writeError(w, r, err)
		return
	}
	var existing int64
	for _, item := range items {
		if item.ProductID == product.ID {
			existing = item.Quantity
		}
	}
	quantity, err := cart.Merge(existing, req.Quantity, product)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.store.PutCartItem(ctx, owner, cart.Item{ProductID: product.ID, Quantity: quantity, AddedAt: h.clock()}); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCart(w, r)
}

// handleSetCartItem sets an absolute quantity; zero removes the line.
func (h *Handler) handleSetCartItem(w http.ResponseWriter, r *http.Request) {
	var req setCartItemRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	owner := userID(r)
	productID := r.PathValue("product_id")
	if req.Quantity == 0 {
		if err := h.removeCartItem(ctx, owner, productID); err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeCart(w, r)
		return
	}

	product, err := h.activeProduct(ctx, productID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	quantity, err := cart.SetQuantity(req.Quantity, product)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_, items, products, err := h.loadCart(ctx, owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := cart.CheckCurrency(items, products, product); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.store.PutCartItem(ctx, owner, cart.Item{ProductID: product.ID, Quantity: quantity, AddedAt: h.clock()}); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCart(w, r)
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	if err := h.removeCartItem(r.Context(), userID(r), r.PathValue("product_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCart(w, r)
}

// removeCartItem treats a line that is already gone as removed.
func (h *Handler) removeCartItem(ctx context.Context, userID, productID string) error {
	err := h.store.DeleteCartItem(ctx, userID, productID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearCart(r.Context(), userID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCart(w, r)
}
