package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/lumenhq/lumen/core"
)

// StatusCoder is implemented by errors that know which HTTP status they map to,
// such as the structured errors of the oauth package.
type StatusCoder interface {
	error
	HTTPStatus() int
}

func DefaultErrorHandler(lumen *Lumen, err error) {
	lumen.Error("Server error", "error", err)
	code, msg := func() (int, string) {
		var statusErr StatusCoder
		switch {
		case errors.As(err, &statusErr):
			return statusErr.HTTPStatus(), http.StatusText(statusErr.HTTPStatus())
		case errors.Is(err, core.ErrUnauthenticated):
			return http.StatusUnauthorized, "unauthorized"
		case errors.Is(err, core.ErrForbidden):
			return http.StatusForbidden, "forbidden"
		case errors.Is(err, core.ErrConflict):
			return http.StatusConflict, "conflict"
		case errors.Is(err, core.ErrNotFound):
			return http.StatusNotFound, "not found"
		}
		return http.StatusInternalServerError, "internal server error"
	}()
	lumen.Writer.WriteHeader(code)
	render.PlainText(lumen.Writer, lumen.Request, msg)
}
