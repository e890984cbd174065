package httpapi

import (
	"net/http"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/pagination"
	"github.com/louisbranch/storefront/internal/services/shop/api/jsonview"
	"github.com/louisbranch/storefront/internal/services/shop/catalog"
)

var errProductNotFound = apperrors.New(apperrors.CodeNotFound, "product not found")

// ListRequestFromQuery reads product listing parameters from the URL.
func ListRequestFromQuery(r *http.Request) catalog.ListRequest {
	query := r.URL.Query()
	return catalog.ListRequest{
		Filter:    query.Get("filter"),
		OrderBy:   query.Get("order_by"),
		PageSize:  pagination.ParsePageSize(query.Get("page_size"), pagination.PageSizeConfig{Default: catalog.DefaultPageSize, Max: catalog.MaxPageSize}),
		PageToken: query.Get("page_token"),
	}
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := catalog.ParseListQuery(ListRequestFromQuery(r))
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
	f := h.formatter(r)
	h.writeJSON(w, http.StatusOK, jsonview.ProductPage{
		Products:      f.Products(page.Products),
		NextPageToken: page.NextPageToken,
	})
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.store.GetProductBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !product.Active {
		h.writeError(w, r, errProductNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, h.formatter(r).Product(product))
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"categories": jsonview.NewCategories(categories)})
}
