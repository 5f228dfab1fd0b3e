// Package response writes the JSON envelope shared by every handler.
package response

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"chantier-backend/internal/errs"
)

type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func OK() Response {
	return Response{Status: strconv.Itoa(http.StatusOK)}
}

func StatusOf(kind errs.Kind) int {
	switch kind {
	case errs.InvalidInput:
		return http.StatusBadRequest
	case errs.Unauthenticated:
		return http.StatusUnauthorized
	case errs.NotFound:
		return http.StatusNotFound
	case errs.PreconditionFailed:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err with the status of its kind. Internal errors are logged
// at error level with their details; the caller only sees a generic message.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	kind := errs.KindOf(err)
	status := StatusOf(kind)

	if kind == errs.Internal {
		log.Error("request failed", slog.String("error", err.Error()))
	} else {
		log.Info("request rejected", slog.String("kind", kind.String()), slog.String("error", err.Error()))
	}

	render.Status(r, status)
	render.JSON(w, r, Response{Status: strconv.Itoa(status), Error: errs.Message(err)})
}

func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Response{Status: strconv.Itoa(http.StatusBadRequest), Error: msg})
}

// ID reads a positive integer URL parameter.
func ID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.E(errs.InvalidInput, "invalid %s %q", name, chi.URLParam(r, name))
	}
	return id, nil
}
