package handlers

import (
	"net/http"
	"regexp"

	"github.com/ttani03/goth-dcim/internal/apperr"
	"github.com/ttani03/goth-dcim/internal/inventory"
)

// hostnameRegex accepts RFC 1123 hostnames: dot separated labels of letters,
// digits and inner hyphens, at most 63 characters each.
var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

const maxHostnameLen = 253

func (h *Handler) HandleAssignAddress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := parseForm(r); err != nil {
		h.fail(w, r, err)
		return
	}

	hostname := formValue(r, "hostname")
	if hostname != "" && (len(hostname) > maxHostnameLen || !hostnameRegex.MatchString(hostname)) {
		h.fail(w, r, apperr.Validation("invalid hostname %q", hostname))
		return
	}

	rec, err := h.inv.AssignAddress(r.Context(), id, inventory.AssignRequest{
		AssetID:  formValue(r, "asset_id"),
		Hostname: hostname,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/pools/"+rec.PoolID, http.StatusSeeOther)
}

func (h *Handler) HandleReleaseAddress(w http.ResponseWriter, r *http.Request) {
	rec, err := h.inv.ReleaseAddress(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/pools/"+rec.PoolID, http.StatusSeeOther)
}

func (h *Handler) HandleReserveAddress(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.inv.ReserveAddress(r.Context(), r.PathValue("id"), r.FormValue("reason"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/pools/"+rec.PoolID, http.StatusSeeOther)
}
