package metrics

import (
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/ockno-signals/internal/models"
	"github.com/AngelCh415/ockno-signals/internal/store"
)

type fixture struct {
	svc    *Service
	tenant *store.Tenant
	client models.Client
	a, b   models.SignalCluster
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := store.NewMemoryStore(store.NewSequenceGenerator())
	cl, err := st.AddClient("Acme Corp")
	require.NoError(t, err)
	tn, err := st.Tenant(cl.ID)
	require.NoError(t, err)
	tn.Campaigns.Replace([]models.Campaign{
		{ID: "c1", Name: "Search - Brand", Status: models.CampaignEnabled},
		{ID: "c2", Name: "Search - Competitor", Status: models.CampaignEnabled},
		{ID: "c3", Name: "Display - Retargeting", Status: models.CampaignPaused},
		{ID: "c4", Name: "YouTube - Awareness", Status: models.CampaignEnabled},
	})
	a, err := tn.CreateCluster("Plumbing", "")
	require.NoError(t, err)
	b, err := tn.CreateCluster("HVAC", "")
	require.NoError(t, err)
	require.NoError(t, tn.AssignCampaign(a.ID, "c1", models.StageNew))
	require.NoError(t, tn.AssignCampaign(a.ID, "c2", models.StageQualified))
	require.NoError(t, tn.AssignCampaign(b.ID, "c3", models.StageConverted))
	return fixture{svc: NewService(st), tenant: tn, client: cl, a: a, b: b}
}

func TestClusterSummaries(t *testing.T) {
	f := newFixture(t)
	_, err := f.tenant.CreateCluster("Roofing", "")
	require.NoError(t, err)
	g := f.a.Goals[0]
	require.NoError(t, f.tenant.SetActionEnabled(f.a.ID, g.ID, g.Actions[0].ID, false))

	rows, err := f.svc.ClusterSummaries(f.client.ID, url.Values{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Plumbing", rows[0].Name)
	assert.True(t, rows[0].Active)
	assert.Equal(t, 2, rows[0].AssignedCampaigns)
	assert.Equal(t, 1, rows[0].ByStage[models.StageNew])
	assert.Equal(t, 1, rows[0].ByStage[models.StageQualified])
	assert.Equal(t, 0, rows[0].ByStage[models.StageConverted])
	assert.Equal(t, 221.0, rows[0].EnabledValue)
	assert.Equal(t, 222.0, rows[1].EnabledValue)
	assert.False(t, rows[2].Active)

	rows, err = f.svc.ClusterSummaries(f.client.ID, url.Values{"active": {"false"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Roofing", rows[0].Name)

	rows, err = f.svc.ClusterSummaries(f.client.ID, url.Values{"stage": {"converted"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "HVAC", rows[0].Name)

	rows, err = f.svc.ClusterSummaries(f.client.ID, url.Values{"limit": {"1"}, "offset": {"1"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "HVAC", rows[0].Name)

	_, err = f.svc.ClusterSummaries("nope", url.Values{})
	assert.True(t, store.IsNotFoundError(err))
}

func TestClusterSummariesLargeValues(t *testing.T) {
	f := newFixture(t)
	g := f.a.Goals[2]
	require.NoError(t, f.tenant.UpdateConversionValue(f.a.ID, g.ID, g.Actions[0].ID, 1e18))

	rows, err := f.svc.ClusterSummaries(f.client.ID, url.Values{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Greater(t, rows[0].EnabledValue, 0.0)
	assert.InEpsilon(t, 1e18, rows[0].EnabledValue, 1e-9)
	assert.Equal(t, 222.0, rows[1].EnabledValue)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.24, round2(1.235000001))
	assert.Equal(t, 3.0, round2(2.999))
	assert.Equal(t, 0.0, round2(0))
	assert.Equal(t, 1e18, round2(1e18))
}

func TestCampaignBoardFlagsConflicts(t *testing.T) {
	f := newFixture(t)

	rows, err := f.svc.CampaignBoard(f.client.ID, f.b.ID, url.Values{})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	byID := map[string]models.CampaignRow{}
	for _, r := range rows {
		byID[r.ID] = r
	}
	assert.Equal(t, "Plumbing", byID["c1"].MovesFrom)
	assert.False(t, byID["c1"].AssignedHere)
	assert.True(t, byID["c3"].AssignedHere)
	assert.Empty(t, byID["c3"].MovesFrom)
	assert.Equal(t, models.StageConverted, byID["c3"].Stage)
	assert.Empty(t, byID["c4"].ClusterID)

	assert.Equal(t, "Display - Retargeting", rows[0].Name)

	rows, err = f.svc.CampaignBoard(f.client.ID, f.b.ID, url.Values{"status": {"paused"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c3", rows[0].ID)

	_, err = f.svc.CampaignBoard(f.client.ID, "nope", url.Values{})
	assert.True(t, store.IsNotFoundError(err))
}

func TestCampaignBoardWithoutCluster(t *testing.T) {
	f := newFixture(t)
	rows, err := f.svc.CampaignBoard(f.client.ID, "", url.Values{})
	require.NoError(t, err)
	for _, r := range rows {
		assert.False(t, r.AssignedHere)
		assert.Empty(t, r.MovesFrom)
	}
}

func TestClampLimitOffset(t *testing.T) {
	l, o := clampLimitOffset(0, -3, 10)
	assert.Equal(t, 10, l)
	assert.Equal(t, 0, o)
	l, o = clampLimitOffset(5000, 20, 10)
	assert.Equal(t, 1000, l)
	assert.Equal(t, 10, o)
	assert.Empty(t, paginate([]int{1, 2}, l, o))
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Observe("assign_campaign", time.Now(), "ok")
	r.Observe("assign_campaign", time.Now(), "ok")
	r.Observe("delete_cluster", time.Now(), "invariant")
	r.SetClusters("client_1", 3)
	r.Sync("error")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Operations.WithLabelValues("assign_campaign", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Operations.WithLabelValues("delete_cluster", "invariant")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.Clusters.WithLabelValues("client_1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CampaignSyncs.WithLabelValues("error")))
}
