// Package chi provides a chi-compatible mount for the engine's request layer.
// This package is a thin adapter that bridges chi routing to the stdlib
// handler in the parent package; all request translation lives there.
package chi

import (
	"github.com/go-chi/chi/v5"

	"github.com/plagtech/spraay-x402-gateway/httpapi"
)

// Mount registers the engine routes on a chi router.
func Mount(r chi.Router, h *httpapi.Handler) {
	r.Mount("/", h.Routes())
}
