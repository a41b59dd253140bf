// Package gin provides a Gin-compatible mount for the engine's request layer.
// This package is a thin adapter that bridges gin routing to the stdlib
// handler in the parent package; all request translation lives there.
package gin

import (
	"github.com/gin-gonic/gin"

	"github.com/plagtech/spraay-x402-gateway/httpapi"
)

// Mount registers the engine routes on a gin engine under /v1.
func Mount(r *gin.Engine, h *httpapi.Handler) {
	routes := h.Routes()
	r.Any("/v1/*path", gin.WrapH(routes))
}
