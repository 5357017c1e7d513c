package handlers

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/ttani03/goth-dcim/internal/inventory"
	"github.com/ttani03/goth-dcim/internal/models"
	"github.com/ttani03/goth-dcim/internal/templates"
)

func (h *Handler) HandleAssetList(w http.ResponseWriter, r *http.Request) {
	filter := models.AssetStatus(r.URL.Query().Get("status"))

	var (
		assets []models.Asset
		form   templates.AssetForm
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		assets, err = h.inv.ListAssets(ctx, inventory.AssetFilter{Status: filter, RackID: r.URL.Query().Get("rack_id")})
		return err
	})
	g.Go(func() (err error) {
		form.Racks, err = h.inv.ListRacks(ctx, "")
		return err
	})
	g.Go(func() (err error) {
		form.Customers, err = h.inv.ListCustomers(ctx)
		return err
	})
	g.Go(func() (err error) {
		form.Projects, err = h.inv.ListProjects(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, templates.AssetList(assets, filter, form))
}

// assetParams reads the fields shared by the new-asset and edit forms.
func assetParams(r *http.Request) (inventory.AssetParams, error) {
	if err := parseForm(r); err != nil {
		return inventory.AssetParams{}, err
	}
	height, err := formInt(r, "height_units", 1)
	if err != nil {
		return inventory.AssetParams{}, err
	}
	power, err := formOptInt(r, "power_consumption_watts")
	if err != nil {
		return inventory.AssetParams{}, err
	}
	position, err := formInt(r, "rack_position", 0)
	if err != nil {
		return inventory.AssetParams{}, err
	}
	return inventory.AssetParams{
		Name:                  formValue(r, "name"),
		AssetTag:              formValue(r, "asset_tag"),
		SerialNumber:          formValue(r, "serial_number"),
		Model:                 formValue(r, "model"),
		Manufacturer:          formValue(r, "manufacturer"),
		HeightUnits:           height,
		PowerConsumptionWatts: power,
		Status:                models.AssetStatus(formValue(r, "status")),
		CustomerID:            formValue(r, "customer_id"),
		ProjectID:             formValue(r, "project_id"),
		Notes:                 formValue(r, "notes"),
		RackID:                formValue(r, "rack_id"),
		RackPosition:          position,
	}, nil
}

func (h *Handler) HandleCreateAsset(w http.ResponseWriter, r *http.Request) {
	params, err := assetParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	asset, err := h.inv.CreateAsset(r.Context(), params)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/assets/"+asset.ID, http.StatusSeeOther)
}

func (h *Handler) HandleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	params, err := assetParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.inv.UpdateAsset(r.Context(), id, params); err != nil {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/assets/"+id, http.StatusSeeOther)
}

func (h *Handler) HandleAssetDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	asset, err := h.inv.GetAsset(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var (
		addrs   []models.AddressRecord
		changes []models.ChangeEntry
		form    templates.AssetForm
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		addrs, err = h.inv.AssetAddresses(ctx, id)
		return err
	})
	g.Go(func() (err error) {
		changes, err = h.inv.ListChanges(ctx, "assets", id, 20)
		return err
	})
	g.Go(func() (err error) {
		form.Racks, err = h.inv.ListRacks(ctx, "")
		return err
	})
	g.Go(func() (err error) {
		form.Customers, err = h.inv.ListCustomers(ctx)
		return err
	})
	g.Go(func() (err error) {
		form.Projects, err = h.inv.ListProjects(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, templates.AssetDetail(*asset, addrs, changes, form))
}

func (h *Handler) HandleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := h.inv.DeleteAsset(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	deleted(w, "/assets")
}
