package media

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/platform/objectstore"
	"go.uber.org/zap"
)

type redirector interface {
	Redirects() bool
}

var errMediaNotFound = apperrors.New(apperrors.CodeNotFound, "media not found")

// Handler serves GET /media/{key...}. Stores that publish objects elsewhere
// answer with a redirect.
func Handler(store objectstore.Store, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		if err := objectstore.ValidateKey(key); err != nil {
			httpx.WriteError(w, r, logger, errMediaNotFound)
			return
		}
		if remote, ok := store.(redirector); ok && remote.Redirects() {
			http.Redirect(w, r, store.URL(key), http.StatusFound)
			return
		}

		body, object, err := store.Get(r.Context(), key)
		if err != nil {
			if errors.Is(err, objectstore.ErrNotFound) {
				httpx.WriteError(w, r, logger, errMediaNotFound)
				return
			}
			httpx.WriteError(w, r, logger, err)
			return
		}
		defer body.Close()

		w.Header().Set("Content-Type", object.ContentType)
		if object.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(object.Size, 10))
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := io.Copy(w, body); err != nil {
			logger.Debug("stream media", zap.String("key", key), zap.Error(err))
		}
	})
}
