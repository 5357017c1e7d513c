package handlers

import (
	"net/http"

	"github.com/ttani03/goth-dcim/internal/apperr"
	"github.com/ttani03/goth-dcim/internal/inventory"
	"github.com/ttani03/goth-dcim/internal/models"
	"github.com/ttani03/goth-dcim/internal/templates"
)

func (h *Handler) HandleRackList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	racks, err := h.inv.ListRacks(ctx, r.URL.Query().Get("data_center_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dcs, err := h.inv.ListDataCenters(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, templates.RackList(racks, dcs))
}

// rackParams reads the fields shared by the new-rack and edit forms.
func rackParams(r *http.Request) (inventory.RackParams, error) {
	if err := parseForm(r); err != nil {
		return inventory.RackParams{}, err
	}
	height, err := formInt(r, "height_units", inventory.DefaultRackHeight)
	if err != nil {
		return inventory.RackParams{}, err
	}
	power, err := formOptInt(r, "power_capacity_watts")
	if err != nil {
		return inventory.RackParams{}, err
	}
	weight, err := formOptFloat(r, "weight_capacity_kg")
	if err != nil {
		return inventory.RackParams{}, err
	}
	return inventory.RackParams{
		Name:               formValue(r, "name"),
		DataCenterID:       formValue(r, "data_center_id"),
		RowPosition:        formValue(r, "row_position"),
		ColumnPosition:     formValue(r, "column_position"),
		HeightUnits:        height,
		PowerCapacityWatts: power,
		WeightCapacityKG:   weight,
		Status:             models.RackStatus(formValue(r, "status")),
	}, nil
}

func (h *Handler) HandleCreateRack(w http.ResponseWriter, r *http.Request) {
	params, err := rackParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rack, err := h.inv.CreateRack(r.Context(), params)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/racks/"+rack.ID, http.StatusSeeOther)
}

func (h *Handler) HandleUpdateRack(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	params, err := rackParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.inv.UpdateRack(r.Context(), id, params); err != nil {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/racks/"+id, http.StatusSeeOther)
}

func (h *Handler) HandleRackDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.inv.GetRack(ctx, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	unracked, err := h.inv.ListUnrackedAssets(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dcs, err := h.inv.ListDataCenters(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, templates.RackDetail(view, unracked, dcs))
}

func (h *Handler) HandleDeleteRack(w http.ResponseWriter, r *http.Request) {
	if err := h.inv.DeleteRack(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	deleted(w, "/racks")
}

func (h *Handler) HandlePlaceAsset(w http.ResponseWriter, r *http.Request) {
	rackID := r.PathValue("id")
	if err := parseForm(r); err != nil {
		h.fail(w, r, err)
		return
	}
	assetID := formValue(r, "asset_id")
	if assetID == "" {
		h.fail(w, r, apperr.Validation("asset_id is required"))
		return
	}
	if formValue(r, "start_unit") == "" {
		h.fail(w, r, apperr.Validation("start_unit is required"))
		return
	}
	start, err := formInt(r, "start_unit", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.inv.PlaceAsset(r.Context(), assetID, rackID, start); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/racks/"+rackID, http.StatusSeeOther)
}

func (h *Handler) HandleRemoveAssetFromRack(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.inv.RemoveAssetFromRack(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	deleted(w, "/assets/"+id)
}
