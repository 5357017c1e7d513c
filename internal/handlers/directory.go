package handlers

import (
	"net/http"

	"github.com/ttani03/goth-dcim/internal/inventory"
	"github.com/ttani03/goth-dcim/internal/monitor"
	"github.com/ttani03/goth-dcim/internal/templates"
)

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := h.inv.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, templates.Dashboard(sum))
}

func (h *Handler) HandleMonitoring(w http.ResponseWriter, r *http.Request) {
	snap, err := monitor.Take(r.Context(), h.diskPath)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	for _, e := range snap.Errors {
		h.log.Warn("host check failed", "error", e)
	}
	h.render(w, r, templates.Monitoring(snap))
}

func (h *Handler) HandleDataCenterList(w http.ResponseWriter, r *http.Request) {
	dcs, err := h.inv.ListDataCenters(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, templates.DataCenterList(dcs))
}

func dataCenterParams(r *http.Request) (inventory.DataCenterParams, error) {
	if err := parseForm(r); err != nil {
		return inventory.DataCenterParams{}, err
	}
	power, err := formOptFloat(r, "power_capacity_kw")
	if err != nil {
		return inventory.DataCenterParams{}, err
	}
	cooling, err := formOptFloat(r, "cooling_capacity_tons")
	if err != nil {
		return inventory.DataCenterParams{}, err
	}
	return inventory.DataCenterParams{
		Name:                formValue(r, "name"),
		Location:            formValue(r, "location"),
		Address:             formValue(r, "address"),
		PowerCapacityKW:     power,
		CoolingCapacityTons: cooling,
	}, nil
}

func (h *Handler) HandleCreateDataCenter(w http.ResponseWriter, r *http.Request) {
	params, err := dataCenterParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.inv.CreateDataCenter(r.Context(), params); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/datacenters", http.StatusSeeOther)
}

func (h *Handler) HandleDataCenterDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := r.Context()
	dc, err := h.inv.GetDataCenter(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	racks, err := h.inv.ListRacks(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, templates.DataCenterDetail(*dc, racks))
}

func (h *Handler) HandleUpdateDataCenter(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	params, err := dataCenterParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.inv.UpdateDataCenter(r.Context(), id, params); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/datacenters/"+id, http.StatusSeeOther)
}

func (h *Handler) HandleCustomerList(w http.ResponseWriter, r *http.Request) {
	customers, err := h.inv.ListCustomers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, templates.CustomerList(customers))
}

func (h *Handler) HandleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		h.fail(w, r, err)
		return
	}
	_, err := h.inv.CreateCustomer(r.Context(), inventory.CustomerParams{
		Name:         formValue(r, "name"),
		ContactEmail: formValue(r, "contact_email"),
		ContactPhone: formValue(r, "contact_phone"),
		Notes:        formValue(r, "notes"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/customers", http.StatusSeeOther)
}

func (h *Handler) HandleCustomerDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := r.Context()
	customer, err := h.inv.GetCustomer(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	projects, err := h.inv.CustomerProjects(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	assets, err := h.inv.ListAssets(ctx, inventory.AssetFilter{CustomerID: id})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, templates.CustomerDetail(*customer, projects, assets))
}

func (h *Handler) HandleProjectList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projects, err := h.inv.ListProjects(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	customers, err := h.inv.ListCustomers(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, templates.ProjectList(projects, customers))
}

func (h *Handler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		h.fail(w, r, err)
		return
	}
	_, err := h.inv.CreateProject(r.Context(), inventory.ProjectParams{
		Name:        formValue(r, "name"),
		CustomerID:  formValue(r, "customer_id"),
		Status:      formValue(r, "status"),
		Description: formValue(r, "description"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/projects", http.StatusSeeOther)
}

func (h *Handler) HandleChangeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := formInt(r, "limit", 100)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	changes, err := h.inv.ListChanges(r.Context(), q.Get("table"), q.Get("record_id"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, templates.ChangeList(changes, q.Get("table")))
}
