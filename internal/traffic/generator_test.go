package traffic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xtrack"
	"github.com/trickstertwo/xtrack/store/memory"
)

func TestGenerator_ClickIDShapes(t *testing.T) {
	g := NewGenerator(42, "")

	assert.Regexp(t, `^[A-Za-z0-9]{62}$`, g.FBCLID())
	assert.Regexp(t, `^[A-Za-z0-9]{26}$`, g.TTCLID())
	assert.Regexp(t, `^[1-9][0-9]{18}$`, g.RDTCID())
}

func TestGenerator_LandingURLCarriesAllClickIDs(t *testing.T) {
	u, err := url.Parse(NewGenerator(7, "https://store.test/").LandingURL())
	require.NoError(t, err)

	assert.Equal(t, "store.test", u.Host)
	q := u.Query()
	for _, k := range xtrack.ClickIDKeys {
		assert.NotEmpty(t, q.Get(string(k)), k)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	a, b := NewGenerator(99, ""), NewGenerator(99, "")
	assert.Equal(t, a.Shopper(), b.Shopper())
	assert.Equal(t, a.LandingURL(), b.LandingURL())
}

func TestGenerator_EventMix(t *testing.T) {
	g := NewGenerator(1, "")
	counts := map[xtrack.EventName]int{}
	for i := 0; i < 2000; i++ {
		counts[g.EventName()]++
	}
	assert.InDelta(t, 1000, counts[xtrack.ViewContent], 150)
	assert.InDelta(t, 600, counts[xtrack.AddToCart], 150)
	assert.InDelta(t, 400, counts[xtrack.Purchase], 150)
}

func TestGenerator_ProductsDistinct(t *testing.T) {
	g := NewGenerator(3, "")
	for i := 0; i < 50; i++ {
		ps := g.Products()
		require.GreaterOrEqual(t, len(ps), 1)
		require.LessOrEqual(t, len(ps), 3)
		seen := map[string]bool{}
		for _, p := range ps {
			assert.False(t, seen[p.ID], "duplicate product %s", p.ID)
			seen[p.ID] = true
		}
	}
}

func TestGenerator_RequestShape(t *testing.T) {
	g := NewGenerator(5, "")
	s := g.Shopper()
	req := g.Request(xtrack.Purchase, s, []Product{Catalog[0], Catalog[4]})

	assert.Equal(t, DefaultSiteURL+"/payment", req.SourceURL)
	assert.Equal(t, s.Email, req.UserData[xtrack.FieldEmail])
	ids, ok := req.CustomData.ContentIDs()
	require.True(t, ok)
	assert.Equal(t, []string{"1", "5"}, ids)
	assert.Equal(t, []string{"Wireless Headphones", "Ceramic Mug Set"}, req.CustomData.ContentNames())
	v, ok := req.CustomData.Value()
	require.True(t, ok)
	assert.Equal(t, 114.98, v)
}

func TestGenerator_JourneyFunnel(t *testing.T) {
	g := NewGenerator(11, "")
	for i := 0; i < 30; i++ {
		j := g.Journey()
		require.NotEmpty(t, j.Requests)
		assert.Equal(t, xtrack.ViewContent, j.Requests[0].EventName)
		if n := len(j.Requests); n == 3 {
			assert.Equal(t, xtrack.Purchase, j.Requests[2].EventName)
		}
	}
}

func TestRunner_OneSessionPerJourney(t *testing.T) {
	var posts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
	}))
	defer srv.Close()

	var clickIDs []string
	factory := func(j Journey) (*xtrack.Dispatcher, error) {
		u, _ := url.Parse(j.LandingURL)
		clickIDs = append(clickIDs, u.Query().Get("rdt_cid"))
		return xtrack.NewDispatcherBuilder().
			WithSink(xtrack.HTTPSinkName, map[string]any{"base_url": srv.URL}).
			WithSessionStore(memory.New()).
			WithLocation(func() string { return j.LandingURL }).
			WithUserAgent(func() string { return j.Shopper.UserAgent }).
			Build()
	}

	sum, err := NewRunner(NewGenerator(2, ""), factory, 0, nil).Run(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 5, sum.Journeys)
	total := 0
	for _, n := range sum.Events {
		total += n
	}
	assert.Equal(t, int64(total), posts.Load())
	assert.Equal(t, 5, sum.Events[xtrack.ViewContent])
	assert.Len(t, clickIDs, 5)
}

func TestRunner_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := NewRunner(NewGenerator(2, ""), func(Journey) (*xtrack.Dispatcher, error) {
		t.Fatal("factory must not be called")
		return nil, nil
	}, 0, nil).Run(ctx, 3)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, sum.Journeys)
}
