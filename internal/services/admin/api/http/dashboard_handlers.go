package adminapi

import (
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/services/shop/order"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
	"golang.org/x/sync/errgroup"
)

// Revenue is the paid total for one currency.
type Revenue struct {
	Currency     string `json:"currency"`
	TotalCents   int64  `json:"total_cents"`
	TotalDisplay string `json:"total_display"`
}

// Dashboard summarizes the store.
type Dashboard struct {
	Since          *time.Time       `json:"since,omitempty"`
	Users          int64            `json:"users"`
	ActiveProducts int64            `json:"active_products"`
	TotalProducts  int64            `json:"total_products"`
	Orders         map[string]int64 `json:"orders"`
	Revenue        []Revenue        `json:"revenue"`
}

func parseSince(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidFilter, "since must be an RFC 3339 timestamp", err)
	}
	since = since.UTC()
	return &since, nil
}

// handleDashboard loads the statistics concurrently; any failure fails the
// whole response.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	since, err := parseSince(r.URL.Query().Get("since"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var (
		users    int64
		products storage.ProductCounts
		orders   map[order.Status]int64
		revenue  map[string]int64
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		users, err = h.store.CountUsers(ctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = h.store.CountProducts(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = h.store.CountOrdersByStatus(ctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		revenue, err = h.store.RevenueByCurrency(ctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		h.writeError(w, r, err)
		return
	}

	f := h.formatter(r)
	view := Dashboard{
		Since:          since,
		Users:          users,
		ActiveProducts: products.Active,
		TotalProducts:  products.Total,
		Orders:         make(map[string]int64, len(order.Statuses)),
		Revenue:        make([]Revenue, 0, len(revenue)),
	}
	for _, status := range order.Statuses {
		view.Orders[string(status)] = orders[status]
	}
	for _, code := range slices.Sorted(maps.Keys(revenue)) {
		view.Revenue = append(view.Revenue, Revenue{
			Currency:     code,
			TotalCents:   revenue[code],
			TotalDisplay: f.Price(revenue[code], code),
		})
	}
	h.writeJSON(w, http.StatusOK, view)
}
