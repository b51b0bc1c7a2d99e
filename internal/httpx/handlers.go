package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AngelCh415/ockno-signals/internal/models"
	"github.com/AngelCh415/ockno-signals/internal/store"
)

type clientRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type activeRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type clusterRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// Stage is checked by the store; toggling a campaign off needs none.
type stageRequest struct {
	Stage string `json:"stage" validate:"omitempty,max=32"`
}

type valueRequest struct {
	Value *float64 `json:"value" validate:"required"`
}

type enabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func (a *api) listClients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.st.Clients())
}

func (a *api) addClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.st.AddClient(req.Name)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.log.Info("client added", slog.String("client_id", c.ID), slog.String("name", c.Name))
	writeJSONStatus(w, http.StatusCreated, c)
}

func (a *api) setClientActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.st.SetClientActive(chi.URLParam(r, "clientID"), *req.Active)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, c)
}

// tenant resolves {clientID}, writing the error response itself when it fails.
func (a *api) tenant(w http.ResponseWriter, r *http.Request) (*store.Tenant, bool) {
	t, err := a.st.Tenant(chi.URLParam(r, "clientID"))
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return t, true
}

// mutate runs one store operation, recording its outcome and refreshing the cluster gauge.
func (a *api) mutate(w http.ResponseWriter, r *http.Request, t *store.Tenant, op string, fn func() error) bool {
	start := time.Now()
	err := fn()
	result := "ok"
	if err != nil {
		_, result = statusFor(err)
	}
	a.rec.Observe(op, start, result)
	a.rec.SetClusters(chi.URLParam(r, "clientID"), t.Len())
	a.log.Debug("signal store op",
		slog.String("op", op),
		slog.String("client_id", chi.URLParam(r, "clientID")),
		slog.String("result", result),
		slog.Uint64("version", t.Version()))
	if err != nil {
		a.fail(w, r, err)
		return false
	}
	return true
}

func (a *api) listClusters(w http.ResponseWriter, r *http.Request) {
	t, ok := a.tenant(w, r)
	if !ok {
		return
	}
	writeJSON(w, t.Clusters())
}

func (a *api) getCluster(w http.ResponseWriter, r *http.Request) {
	t, ok := a.tenant(w, r)
	if !ok {
		return
	}
	c, err := t.Cluster(chi.URLParam(r, "clusterID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, c)
}

func (a *api) createCluster(w http.ResponseWriter, r *http.Request) {
	t, ok := a.tenant(w, r)
	if !ok {
		return
	}
	var req clusterRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	var c models.SignalCluster
	if !a.mutate(w, r, t, "create_cluster", func() (err error) {
		c, err = t.CreateCluster(req.Name, req.Description)
		return err
	}) {
		return
	}
	writeJSONStatus(w, http.StatusCreated, c)
}

func (a *api) deleteCluster(w http.ResponseWriter, r *http.Request) {
	t, ok := a.tenant(w, r)
	if !ok {
		return
	}
	if !a.mutate(w, r, t, "delete_cluster", func() error {
		return t.DeleteCluster(chi.URLParam(r, "clusterID"))
	}) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) duplicateCluster(w http.ResponseWriter, r *http.Request) {
	t, ok := a.tenant(w, r)
	if !ok {
		return
	}
	var c models.SignalCluster
	if !a.mutate(w, r, t, "duplicate_cluster", func() (err error) {
		c, err = t.DuplicateCluster(chi.URLParam(r, "clusterID"))
		return err
	}) {
		return
	}
	writeJSONStatus(w, http.StatusCreated, c)
}

func (a *api) assignCampaign(w http.ResponseWriter, r *http.Request) {
	t, ok := a.tenant(w, r)
	if !ok {
		return
	}
	var req stageRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	clusterID, campaignID := chi.URLParam(r, "clusterID"), chi.URLParam(r, "campaignID")
	stage, _ := models.ParseLeadStage(req.Stage)
	if !a.mutate(w, r, t, "assign_campaign", func() error {
		return t.AssignCampaign(clusterID, campaignID, stage)
	}) {
		return
	}
	p, _ := t.ClustersForCampaign(campaignID)
	writeJSON(w, p)
}

func (a *api) unassignCampaign(w http.ResponseWriter, r *http.Request) {
	t, ok := a.tenant(w, r)
	if !ok {
		return
	}
	if !a.mutate(w, r, t, "unassign_campaign", func() error {
		return t.UnassignCampaign(chi.URLParam(r, "clusterID"), chi.URLParam(r, "campaignID"))
	}) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) toggleCampaign(w http.ResponseWriter, r *http.Request) {
	t, ok := a.tenant(w, r)
	if !ok {
		return
	}
	var req stageRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	stage, _ := models.ParseLeadStage(req.Stage)
	var assigned bool
	if !a.mutate(w, r, t, "toggle_campaign", func() (err error) {
		assigned, err = t.ToggleCampaign(chi.URLParam(r, "clusterID"), chi.URLParam(r, "campaignID"), stage)
		return err
	}) {
		return
	}
	writeJSON(w, map[string]bool{"assigned": assigned})
}

func (a *api) updateConversionValue(w http.ResponseWriter, r *http.Request) {
	t, ok := a.tenant(w, r)
	if !ok {
		return
	}
	var req valueRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if !a.mutate(w, r, t, "update_conversion_value", func() error {
		return t.UpdateConversionValue(chi.URLParam(r, "clusterID"), chi.URLParam(r, "goalID"), chi.URLParam(r, "actionID"), *req.Value)
	}) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) setActionEnabled(w http.ResponseWriter, r *http.Request) {
	t, ok := a.tenant(w, r)
	if !ok {
		return
	}
	var req enabledRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if !a.mutate(w, r, t, "set_action_enabled", func() error {
		return t.SetActionEnabled(chi.URLParam(r, "clusterID"), chi.URLParam(r, "goalID"), chi.URLParam(r, "actionID"), *req.Enabled)
	}) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) placement(w http.ResponseWriter, r *http.Request) {
	t, ok := a.tenant(w, r)
	if !ok {
		return
	}
	campaignID := chi.URLParam(r, "campaignID")
	p, found := t.ClustersForCampaign(campaignID)
	if !found {
		writeJSON(w, []models.Placement{})
		return
	}
	writeJSON(w, []models.Placement{p})
}

func (a *api) clusterSummaries(w http.ResponseWriter, r *http.Request) {
	rows, err := a.views.ClusterSummaries(chi.URLParam(r, "clientID"), r.URL.Query())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, rows)
}

func (a *api) campaignBoard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := a.views.CampaignBoard(chi.URLParam(r, "clientID"), q.Get("cluster_id"), q)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, rows)
}

func (a *api) syncCampaigns(w http.ResponseWriter, r *http.Request) {
	n, err := a.sync.SyncCampaigns(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		a.rec.Sync("error")
		a.fail(w, r, err)
		return
	}
	a.rec.Sync("ok")
	writeJSON(w, map[string]any{"campaigns": n})
}

func (a *api) exportClusters(w http.ResponseWriter, r *http.Request) {
	n, err := a.sync.ExportClusters(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"exported": n})
}
