package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/services/shop/account"
	"github.com/louisbranch/storefront/internal/services/shop/api/jsonview"
	"github.com/louisbranch/storefront/internal/services/shop/media"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
	"go.uber.org/zap"
)

type profileRequest struct {
	DisplayName string          `json:"display_name"`
	Phone       string          `json:"phone"`
	Address     account.Address `json:"address"`
}

type profileResponse struct {
	User    jsonview.User    `json:"user"`
	Profile jsonview.Profile `json:"profile"`
}

// loadProfile returns the stored profile, or an empty one for users created
// before profiles existed.
func (h *Handler) loadProfile(ctx context.Context, userID string) (account.Profile, error) {
	profile, err := h.store.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return account.Profile{UserID: userID}, nil
	}
	return profile, err
}

func (h *Handler) writeProfile(w http.ResponseWriter, r *http.Request, profile account.Profile) {
	u, err := h.store.GetUser(r.Context(), profile.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	f := h.formatter(r)
	h.writeJSON(w, http.StatusOK, profileResponse{User: jsonview.NewUser(u), Profile: f.Profile(profile)})
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.loadProfile(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeProfile(w, r, profile)
}

func (h *Handler) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	input, err := account.NormalizeProfile(account.ProfileInput{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Address:     req.Address,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	profile, err := h.loadProfile(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	profile = profile.Apply(input, h.clock())
	if err := h.store.PutProfile(r.Context(), profile); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeProfile(w, r, profile)
}

// handleUploadAvatar stores the new image before swapping the profile key, so
// a failed upload leaves the old avatar in place.
func (h *Handler) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	upload, err := media.ReadUpload(w, r, media.KindAvatar)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer upload.Close()

	ctx := r.Context()
	owner := userID(r)
	object, err := h.uploader.Put(ctx, media.KindAvatar, owner, upload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	previous, err := h.store.SetAvatarKey(ctx, owner, object.Key, h.clock())
	if err != nil {
		h.uploader.Discard(context.WithoutCancel(ctx), object.Key)
		h.writeError(w, r, err)
		return
	}
	if previous != "" && previous != object.Key {
		h.uploader.Discard(context.WithoutCancel(ctx), previous)
	}
	h.logger.Info("avatar updated", zap.String("user_id", owner), zap.String("key", object.Key))

	profile, err := h.loadProfile(ctx, owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeProfile(w, r, profile)
}
