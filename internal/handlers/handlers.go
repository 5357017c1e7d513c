// Package handlers serves the inventory over HTML forms.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/ttani03/goth-dcim/internal/apperr"
	"github.com/ttani03/goth-dcim/internal/inventory"
	"github.com/ttani03/goth-dcim/internal/logging"
	"github.com/ttani03/goth-dcim/internal/templates"
)

type Handler struct {
	inv      *inventory.Service
	log      *slog.Logger
	diskPath string
}

func New(inv *inventory.Service, logger *slog.Logger, diskPath string) *Handler {
	return &Handler{inv: inv, log: logging.For(logger, "http"), diskPath: diskPath}
}

// Routes registers every page and action on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// "GET /{$}" matches ONLY the root path.
	mux.HandleFunc("GET /{$}", h.HandleDashboard)
	mux.HandleFunc("GET /monitoring", h.HandleMonitoring)

	mux.HandleFunc("GET /pools", h.HandlePoolList)
	mux.HandleFunc("POST /pools", h.HandleCreatePool)
	mux.HandleFunc("GET /pools/{id}", h.HandlePoolDetail)
	mux.HandleFunc("POST /pools/{id}", h.HandleUpdatePool)
	mux.HandleFunc("DELETE /pools/{id}", h.HandleDeletePool)
	mux.HandleFunc("POST /pools/{id}/block", h.HandleBlockAddresses)
	mux.HandleFunc("POST /pools/{id}/unblock", h.HandleUnblockAddresses)

	mux.HandleFunc("POST /addresses/{id}/assign", h.HandleAssignAddress)
	mux.HandleFunc("POST /addresses/{id}/release", h.HandleReleaseAddress)
	mux.HandleFunc("POST /addresses/{id}/reserve", h.HandleReserveAddress)

	mux.HandleFunc("GET /racks", h.HandleRackList)
	mux.HandleFunc("POST /racks", h.HandleCreateRack)
	mux.HandleFunc("GET /racks/{id}", h.HandleRackDetail)
	mux.HandleFunc("POST /racks/{id}", h.HandleUpdateRack)
	mux.HandleFunc("DELETE /racks/{id}", h.HandleDeleteRack)
	mux.HandleFunc("POST /racks/{id}/assets", h.HandlePlaceAsset)

	mux.HandleFunc("GET /assets", h.HandleAssetList)
	mux.HandleFunc("POST /assets", h.HandleCreateAsset)
	mux.HandleFunc("GET /assets/{id}", h.HandleAssetDetail)
	mux.HandleFunc("POST /assets/{id}", h.HandleUpdateAsset)
	mux.HandleFunc("DELETE /assets/{id}", h.HandleDeleteAsset)
	mux.HandleFunc("DELETE /assets/{id}/rack", h.HandleRemoveAssetFromRack)

	mux.HandleFunc("GET /datacenters", h.HandleDataCenterList)
	mux.HandleFunc("POST /datacenters", h.HandleCreateDataCenter)
	mux.HandleFunc("GET /datacenters/{id}", h.HandleDataCenterDetail)
	mux.HandleFunc("POST /datacenters/{id}", h.HandleUpdateDataCenter)
	mux.HandleFunc("GET /customers", h.HandleCustomerList)
	mux.HandleFunc("POST /customers", h.HandleCreateCustomer)
	mux.HandleFunc("GET /customers/{id}", h.HandleCustomerDetail)
	mux.HandleFunc("GET /projects", h.HandleProjectList)
	mux.HandleFunc("POST /projects", h.HandleCreateProject)
	mux.HandleFunc("GET /changes", h.HandleChangeList)

	return mux
}

// WithTimeout bounds every request's context by d.
func WithTimeout(d time.Duration, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		h.log.Error("render page", "path", r.URL.Path, "error", err)
	}
}

// fail maps err to a status code and renders the error page.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		h.log.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorPage(status, apperr.Message(err)).Render(r.Context(), w); err != nil {
		h.log.Error("render error page", "error", err)
	}
}

// deleted answers an htmx delete by sending the browser to target.
func deleted(w http.ResponseWriter, target string) {
	w.Header().Set("HX-Redirect", target)
	w.WriteHeader(http.StatusOK)
}

func parseForm(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return apperr.Validation("invalid form data")
	}
	return nil
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// formInt reads an integer field. A blank field yields def.
func formInt(r *http.Request, key string, def int) (int, error) {
	v := formValue(r, key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Validation("%s must be a whole number, got %q", key, v)
	}
	return n, nil
}

// formOptInt reads an optional integer field.
func formOptInt(r *http.Request, key string) (*int, error) {
	if formValue(r, key) == "" {
		return nil, nil
	}
	n, err := formInt(r, key, 0)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func formOptFloat(r *http.Request, key string) (*float64, error) {
	v := formValue(r, key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, apperr.Validation("%s must be a number, got %q", key, v)
	}
	return &f, nil
}
