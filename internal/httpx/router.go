package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/AngelCh415/ockno-signals/internal/ingest"
	"github.com/AngelCh415/ockno-signals/internal/metrics"
	"github.com/AngelCh415/ockno-signals/internal/store"
	"github.com/AngelCh415/ockno-signals/internal/utils"
)

type api struct {
	log      *slog.Logger
	st       *store.MemoryStore
	sync     *ingest.Syncer
	views    *metrics.Service
	rec      *metrics.Recorder
	validate *validator.Validate
}

func NewRouter(log *slog.Logger, st *store.MemoryStore, sync *ingest.Syncer, views *metrics.Service, rec *metrics.Recorder) http.Handler {
	a := &api{log: log, st: st, sync: sync, views: views, rec: rec, validate: validator.New()}

	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Method(http.MethodGet, "/metrics", rec.Handler())

	mux.Route("/clients", func(r chi.Router) {
		r.Get("/", a.listClients)
		r.Post("/", a.addClient)

		r.Route("/{clientID}", func(r chi.Router) {
			r.Put("/active", a.setClientActive)
			r.Post("/export", a.exportClusters)

			r.Get("/campaigns", a.campaignBoard)
			r.Post("/campaigns/sync", a.syncCampaigns)
			r.Get("/campaigns/{campaignID}/placement", a.placement)

			r.Get("/clusters", a.listClusters)
			r.Post("/clusters", a.createCluster)
			r.Get("/clusters/summary", a.clusterSummaries)

			r.Route("/clusters/{clusterID}", func(r chi.Router) {
				r.Get("/", a.getCluster)
				r.Delete("/", a.deleteCluster)
				r.Post("/duplicate", a.duplicateCluster)

				r.Put("/campaigns/{campaignID}", a.assignCampaign)
				r.Delete("/campaigns/{campaignID}", a.unassignCampaign)
				r.Post("/campaigns/{campaignID}/toggle", a.toggleCampaign)

				r.Put("/goals/{goalID}/actions/{actionID}/value", a.updateConversionValue)
				r.Put("/goals/{goalID}/actions/{actionID}/enabled", a.setActionEnabled)
			})
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONStatus(w, status, map[string]string{"error": msg})
}

var errBadBody = errors.New("bad request body")

// statusFor maps store and upstream errors onto HTTP codes plus a metrics label.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadBody), store.IsValidationError(err):
		return http.StatusBadRequest, "validation"
	case store.IsNotFoundError(err):
		return http.StatusNotFound, "not_found"
	case store.IsInvariantError(err):
		return http.StatusConflict, "invariant"
	case errors.Is(err, ingest.ErrNotConfigured):
		return http.StatusServiceUnavailable, "not_configured"
	}
	return http.StatusBadGateway, "upstream"
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := statusFor(err)
	if status >= 500 {
		a.log.Error("request failed", slog.String("path", r.URL.Path), slog.String("rid", utils.RID(r.Context())), slog.String("err", err.Error()))
	}
	writeError(w, status, err.Error())
}

func (a *api) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(errBadBody, err)
	}
	if err := a.validate.Struct(dst); err != nil {
		return errors.Join(errBadBody, err)
	}
	return nil
}
