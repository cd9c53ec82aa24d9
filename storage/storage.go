// Package storage is the blob store behind the gated file gateway. The
// master copy of every sellable PDF lives under a content-addressed path
// and per-user copies are materialized next to it; downloads go through
// short-lived signed URLs so no blob path is ever served unauthenticated.
package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound reports a missing object. Callers decide whether that is
// fatal: materialization skips the item, deletion treats it as success.
var ErrNotFound = errors.New("object not found")

type Storage interface {
	// Copy duplicates the object at src under dst, creating any
	// intermediate directories. Missing src yields ErrNotFound.
	Copy(ctx context.Context, src, dst string) error

	// Delete removes the object. Missing objects yield ErrNotFound.
	Delete(ctx context.Context, path string) error

	// Exists reports whether the object is present.
	Exists(ctx context.Context, path string) (bool, error)

	// Open returns the object contents for serving.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Signer mints and checks the signed download URLs. The signature covers
// the object path and the expiry instant, so neither can be swapped.
type Signer struct {
	secret  []byte
	baseURL string
}

func NewSigner(secret string, baseURL string) *Signer {
	return &Signer{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *Signer) mac(path string, exp int64) string {
	m := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(m, "%s|%d", path, exp)
	return hex.EncodeToString(m.Sum(nil))
}

// Sign returns a URL granting access to path until expiry.
func (s *Signer) Sign(path string, expiry time.Time) string {
	exp := expiry.Unix()

	q := url.Values{}
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", s.mac(path, exp))

	return s.baseURL + "/files/" + path + "?" + q.Encode()
}

// Verify checks the signature and expiry carried by a download request.
func (s *Signer) Verify(path string, expStr string, sig string) error {
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return errors.New("malformed expiry")
	}

	if !hmac.Equal([]byte(s.mac(path, exp)), []byte(sig)) {
		return errors.New("signature mismatch")
	}

	if !time.Now().Before(time.Unix(exp, 0)) {
		return errors.New("grant expired")
	}

	return nil
}

// cleanPath rejects anything that could escape the storage root.
func cleanPath(path string) (string, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" || strings.Contains(path, "..") || strings.Contains(path, "\\") {
		return "", fmt.Errorf("illegal object path %q", path)
	}
	return path, nil
}
