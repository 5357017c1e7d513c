package handlers

import (
	"net/http"

	"github.com/ttani03/goth-dcim/internal/apperr"
	"github.com/ttani03/goth-dcim/internal/inventory"
	"github.com/ttani03/goth-dcim/internal/ipam"
	"github.com/ttani03/goth-dcim/internal/models"
	"github.com/ttani03/goth-dcim/internal/templates"
)

func (h *Handler) HandlePoolList(w http.ResponseWriter, r *http.Request) {
	pools, err := h.inv.ListPools(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, templates.PoolList(pools))
}

func (h *Handler) HandleCreatePool(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		h.fail(w, r, err)
		return
	}

	network := formValue(r, "network_address")
	if network == "" || formValue(r, "subnet_mask") == "" {
		h.fail(w, r, apperr.Config("network address and subnet mask are required"))
		return
	}
	prefix, err := formInt(r, "subnet_mask", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	vlan, err := formOptInt(r, "vlan_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	pool, err := h.inv.CreatePool(r.Context(), inventory.PoolParams{
		Name:           formValue(r, "name"),
		NetworkAddress: network,
		PrefixLength:   prefix,
		Gateway:        formValue(r, "gateway"),
		VLANID:         vlan,
		DNSServers:     inventory.ParseDNSServers(r.FormValue("dns_servers")),
		Description:    formValue(r, "description"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/pools/"+pool.ID, http.StatusSeeOther)
}

func (h *Handler) HandlePoolDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := r.Context()

	pool, err := h.inv.GetPool(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rng, err := ipam.Describe(pool.NetworkAddress, pool.PrefixLength)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	filter := models.AddressStatus(r.URL.Query().Get("status"))
	offset, err := formInt(r, "offset", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := templates.Page{Offset: offset, Limit: addressPageSize, Total: statusCount(pool.Stats, filter)}
	addrs, err := h.inv.ListAddresses(ctx, id, inventory.AddressQuery{Status: filter, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Active assets for the assign dropdown
	assets, err := h.inv.ListAssets(ctx, inventory.AssetFilter{Status: models.AssetActive})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, templates.PoolDetail(*pool, rng, addrs, filter, assets, page))
}

// addressPageSize is the number of address records on one pool page.
const addressPageSize = 256

func statusCount(st models.PoolStats, status models.AddressStatus) int {
	switch status {
	case models.AddressAvailable:
		return st.Available
	case models.AddressAssigned:
		return st.Assigned
	case models.AddressReserved:
		return st.Reserved
	case models.AddressBlocked:
		return st.Blocked
	}
	return st.Total
}

func (h *Handler) HandleUpdatePool(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := parseForm(r); err != nil {
		h.fail(w, r, err)
		return
	}
	vlan, err := formOptInt(r, "vlan_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	_, err = h.inv.UpdatePool(r.Context(), id, inventory.PoolUpdate{
		Name:        formValue(r, "name"),
		Gateway:     formValue(r, "gateway"),
		VLANID:      vlan,
		DNSServers:  inventory.ParseDNSServers(r.FormValue("dns_servers")),
		Description: formValue(r, "description"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/pools/"+id, http.StatusSeeOther)
}

func (h *Handler) HandleDeletePool(w http.ResponseWriter, r *http.Request) {
	if err := h.inv.DeletePool(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	deleted(w, "/pools")
}

func (h *Handler) HandleBlockAddresses(w http.ResponseWriter, r *http.Request) {
	poolID := r.PathValue("id")
	if err := parseForm(r); err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.inv.BlockAddresses(r.Context(), poolID, r.Form["ids"], formValue(r, "reason"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Debug("addresses blocked", "pool_id", poolID, "count", n)
	http.Redirect(w, r, "/pools/"+poolID, http.StatusSeeOther)
}

func (h *Handler) HandleUnblockAddresses(w http.ResponseWriter, r *http.Request) {
	poolID := r.PathValue("id")
	if err := parseForm(r); err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.inv.UnblockAddresses(r.Context(), poolID, r.Form["ids"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Debug("addresses unblocked", "pool_id", poolID, "count", n)
	http.Redirect(w, r, "/pools/"+poolID, http.StatusSeeOther)
}
