package adminapi

import (
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/platform/pagination"
	"github.com/louisbranch/storefront/internal/services/shop/account"
	"github.com/louisbranch/storefront/internal/services/shop/api/jsonview"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
	"go.uber.org/zap"
)

const (
	defaultUserPageSize = 50
	maxUserPageSize     = 200
)

var errSelfDemotion = apperrors.New(apperrors.CodeUserSelfDemotion, "admins cannot demote themselves")

// UserPage is one page of users.
type UserPage struct {
	Users         []jsonview.User `json:"users"`
	NextPageToken string          `json:"next_page_token,omitempty"`
}

// UserDetail is a user with their profile and order count.
type UserDetail struct {
	User       jsonview.User    `json:"user"`
	Profile    jsonview.Profile `json:"profile"`
	OrderCount int64            `json:"order_count"`
}

type userRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := storage.UserQuery{Email: strings.ToLower(strings.TrimSpace(params.Get("email")))}
	if raw := params.Get("role"); raw != "" {
		role, err := account.ParseRole(raw)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		query.Role = role
	}
	pageSize := pagination.ParsePageSize(params.Get("page_size"), pagination.PageSizeConfig{Default: defaultUserPageSize, Max: maxUserPageSize})
	tokenQuery := "users|" + string(query.Role) + "|" + query.Email
	cursor, err := pagination.DecodeToken(params.Get("page_token"), tokenQuery)
	if err != nil {
		h.writeError(w, r, apperrors.Wrap(apperrors.CodeInvalidPageToken, "invalid page token", err))
		return
	}
	query.Limit = pageSize + 1
	query.Offset = cursor.Offset
	users, err := h.store.ListUsers(r.Context(), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	next := pagination.NextToken(cursor.Offset, pageSize, len(users), tokenQuery)
	if len(users) > pageSize {
		users = users[:pageSize]
	}
	page := UserPage{Users: make([]jsonview.User, 0, len(users)), NextPageToken: next}
	for _, u := range users {
		page.Users = append(page.Users, jsonview.NewUser(u))
	}
	h.writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := h.store.GetUser(ctx, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	profile, err := h.store.GetProfile(ctx, u.ID)
	if errors.Is(err, storage.ErrNotFound) {
		profile, err = account.Profile{UserID: u.ID}, nil
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	count, err := h.store.CountOrdersByUser(ctx, u.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, UserDetail{
		User:       jsonview.NewUser(u),
		Profile:    h.formatter(r).Profile(profile),
		OrderCount: count,
	})
}

// handleSetUserRole grants or revokes admin access. Sessions pick up the new
// role on their next request.
func (h *Handler) handleSetUserRole(w http.ResponseWriter, r *http.Request) {
	var req userRoleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	role, err := account.ParseRole(req.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	targetID := r.PathValue("id")
	actor := adminID(r)
	if targetID == actor && role != account.RoleAdmin {
		h.writeError(w, r, errSelfDemotion)
		return
	}
	ctx := r.Context()
	if err := h.store.UpdateUserRole(ctx, targetID, role, h.clock()); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.store.GetUser(ctx, targetID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("user role changed",
		zap.String("user_id", u.ID),
		zap.String("role", string(u.Role)),
		zap.String("admin_id", actor),
	)
	h.writeJSON(w, http.StatusOK, jsonview.NewUser(u))
}
