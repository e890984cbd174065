package adminapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/louisbranch/storefront/internal/platform/httpx"
	httpapi "github.com/louisbranch/storefront/internal/services/shop/api/http"
	"github.com/louisbranch/storefront/internal/services/shop/api/jsonview"
	"github.com/louisbranch/storefront/internal/services/shop/catalog"
	"github.com/louisbranch/storefront/internal/services/shop/media"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
	"go.uber.org/zap"
)

// productRequest carries the editable product fields. A missing active flag
// means true on create and unchanged on update.
type productRequest struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
	Stock       int64  `json:"stock"`
	Category    string `json:"category"`
	Active      *bool  `json:"active"`
}

func (req productRequest) input(active bool) catalog.ProductInput {
	if req.Active != nil {
		active = *req.Active
	}
	return catalog.ProductInput{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
		Stock:       req.Stock,
		Category:    req.Category,
		Active:      active,
	}
}

type deleteProductResponse struct {
	ID   string `json:"id"`
	Soft bool   `json:"soft"`
}

func slugConflict(err error, slug string) error {
	if errors.Is(err, storage.ErrDuplicate) {
		return catalog.ErrSlugTaken(slug)
	}
	return err
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	req := httpapi.ListRequestFromQuery(r)
	req.IncludeInactive = true
	q, err := catalog.ParseListQuery(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	products, err := h.store.ListProducts(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page := q.Page(products)
	h.writeJSON(w, http.StatusOK, jsonview.ProductPage{
		Products:      h.formatter(r).Products(page.Products),
		NextPageToken: page.NextPageToken,
	})
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	product, err := catalog.NewProduct(req.input(true), h.clock, h.newID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.store.CreateProduct(r.Context(), product); err != nil {
		h.writeError(w, r, slugConflict(err, product.Slug))
		return
	}
	h.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("slug", product.Slug),
		zap.String("admin_id", adminID(r)),
	)
	h.writeJSON(w, http.StatusCreated, h.formatter(r).Product(product))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.store.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.formatter(r).Product(product))
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	product, err := h.store.GetProduct(ctx, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	input, err := catalog.NormalizeProductInput(req.input(product.Active))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	product = product.Apply(input, h.clock())
	if err := h.store.UpdateProduct(ctx, product); err != nil {
		h.writeError(w, r, slugConflict(err, product.Slug))
		return
	}
	h.logger.Info("product updated", zap.String("product_id", product.ID), zap.String("admin_id", adminID(r)))
	h.writeJSON(w, http.StatusOK, h.formatter(r).Product(product))
}

// handleDeleteProduct removes a product, or deactivates it when orders still
// reference it.
func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	product, err := h.store.GetProduct(ctx, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	soft, err := h.store.DeleteProduct(ctx, product.ID, h.clock())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !soft && product.ImageKey != "" {
		h.uploader.Discard(context.WithoutCancel(ctx), product.ImageKey)
	}
	h.logger.Info("product deleted",
		zap.String("product_id", product.ID),
		zap.Bool("soft", soft),
		zap.String("admin_id", adminID(r)),
	)
	h.writeJSON(w, http.StatusOK, deleteProductResponse{ID: product.ID, Soft: soft})
}

// handleUploadProductImage stores the new image before swapping the product
// key, so a failed upload leaves the old image in place.
func (h *Handler) handleUploadProductImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	product, err := h.store.GetProduct(ctx, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	upload, err := media.ReadUpload(w, r, media.KindProduct)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer upload.Close()

	object, err := h.uploader.Put(ctx, media.KindProduct, product.ID, upload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	previous, err := h.store.SetProductImage(ctx, product.ID, object.Key, h.clock())
	if err != nil {
		h.uploader.Discard(context.WithoutCancel(ctx), object.Key)
		h.writeError(w, r, err)
		return
	}
	if previous != "" && previous != object.Key {
		h.uploader.Discard(context.WithoutCancel(ctx), previous)
	}
	h.logger.Info("product image updated", zap.String("product_id", product.ID), zap.String("key", object.Key))

	product, err = h.store.GetProduct(ctx, product.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.formatter(r).Product(product))
}
