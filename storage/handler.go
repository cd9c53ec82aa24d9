package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/DARK-V-98/oshadividarshana-api/api/web"
	"github.com/DARK-V-98/oshadividarshana-api/api/weberr"
)

// HandleServe streams an object referenced by a signed URL. Verification
// needs no database: the signature alone proves a grant was issued while
// the caller's access window was still open.
func HandleServe(store Storage, signer *Signer) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		path, err := cleanPath(web.Param(r, "path"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		q := r.URL.Query()
		if err := signer.Verify(path, q.Get("exp"), q.Get("sig")); err != nil {
			return weberr.Forbidden(fmt.Errorf("rejecting download of %s: %w", path, err))
		}

		obj, err := store.Open(ctx, path)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}
		defer obj.Close()

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Cache-Control", "private, no-store")
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, obj); err != nil {
			return fmt.Errorf("streaming %s: %w", path, err)
		}

		return nil
	}
}
