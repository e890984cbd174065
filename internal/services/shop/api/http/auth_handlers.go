package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/platform/i18n"
	"github.com/louisbranch/storefront/internal/platform/requestctx"
	"github.com/louisbranch/storefront/internal/services/shop/account"
	"github.com/louisbranch/storefront/internal/services/shop/api/jsonview"
	"github.com/louisbranch/storefront/internal/services/shop/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Locale   string `json:"locale,omitempty"`
}

type sessionResponse struct {
	User      *jsonview.User `json:"user"`
	Token     string         `json:"token,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

type passkeyFinishRequest struct {
	SessionID  string          `json:"session_id"`
	Credential json.RawMessage `json:"credential"`
}

type passkeyChallengeResponse struct {
	SessionID string          `json:"session_id"`
	Options   json.RawMessage `json:"options"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Locale == "" {
		tag, _ := i18n.ResolveTag(r)
		req.Locale = i18n.LocaleString(tag)
	}
	u, session, err := h.auth.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Locale:   req.Locale,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.startSession(w, r, http.StatusCreated, u, session)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.startSession(w, r, http.StatusOK, u, session)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, status int, u account.User, session auth.Session) {
	auth.WriteCookie(w, r, session, h.policy)
	view := jsonview.NewUser(u)
	expiresAt := session.Claims.ExpiresAt
	h.writeJSON(w, status, sessionResponse{User: &view, Token: session.Token, ExpiresAt: &expiresAt})
}

// handleLogout revokes the current session if there is one and always clears
// the cookie.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		if err := h.auth.Logout(r.Context(), claims); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	auth.ClearCookie(w, r, h.policy)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	principal, ok := requestctx.PrincipalFromContext(r.Context())
	claims, hasClaims := auth.ClaimsFromContext(r.Context())
	if !ok || !hasClaims {
		h.writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	u, err := h.store.GetUser(r.Context(), principal.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	view := jsonview.NewUser(u)
	expiresAt := claims.ExpiresAt
	h.writeJSON(w, http.StatusOK, sessionResponse{User: &view, ExpiresAt: &expiresAt})
}

func (h *Handler) handlePasskeyRegisterBegin(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.auth.BeginPasskeyRegistration(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, passkeyChallengeResponse(challenge))
}

func (h *Handler) handlePasskeyRegisterFinish(w http.ResponseWriter, r *http.Request) {
	var req passkeyFinishRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	credentialID, err := h.auth.FinishPasskeyRegistration(r.Context(), userID(r), req.SessionID, req.Credential)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"credential_id": credentialID})
}

func (h *Handler) handlePasskeyLoginBegin(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.auth.BeginPasskeyLogin(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, passkeyChallengeResponse(challenge))
}

func (h *Handler) handlePasskeyLoginFinish(w http.ResponseWriter, r *http.Request) {
	var req passkeyFinishRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, session, err := h.auth.FinishPasskeyLogin(r.Context(), req.SessionID, req.Credential)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.startSession(w, r, http.StatusOK, u, session)
}
