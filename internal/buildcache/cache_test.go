package buildcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dbckit/dbc/patch"
	"github.com/joshuapare/dbckit/pkg/types"
)

func openCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func samplePlan() *patch.Plan {
	p := patch.NewPlan()
	p.AddUpdate(patch.Index(0), 1, patch.Assign("Name", patch.String("x")))
	return p
}

func TestFingerprintStable(t *testing.T) {
	in := Inputs{
		Version:            "1",
		ReserveEmptyString: true,
		Table:              []byte("WDBC...."),
		Names:              patch.NewNames([]string{"ID", "Name"}),
		Plan:               samplePlan(),
	}
	a := Compute(in)
	assert.Equal(t, a, Compute(in))
	assert.Len(t, a.String(), 64)

	variants := []func(*Inputs){
		func(i *Inputs) { i.Version = "2" },
		func(i *Inputs) { i.Name = "Item.dbc" },
		func(i *Inputs) { i.ReserveEmptyString = false },
		func(i *Inputs) { i.Table = []byte("WDBC....!") },
		func(i *Inputs) { i.Names = patch.NewNames([]string{"Name", "ID"}) },
		func(i *Inputs) { i.Plan.Ops[0].Assignments[0].Value = patch.Int(0) },
		func(i *Inputs) { i.Plan.Ops[0].Source = "other.yaml" },
		func(i *Inputs) { i.Plan = nil },
	}
	for n, mutate := range variants {
		v := in
		v.Plan = samplePlan()
		mutate(&v)
		assert.NotEqual(t, a, Compute(v), "variant %d", n)
	}
}

func TestGetPut(t *testing.T) {
	c := openCache(t)
	f := Compute(Inputs{Version: "1", Table: []byte("t")})

	_, ok, err := c.Get(f)
	require.NoError(t, err)
	assert.False(t, ok)

	want := &Entry{
		Output:      []byte("WDBC\x00\x01\x02"),
		Diagnostics: []types.Diagnostic{{Severity: types.SevWarning, Kind: types.KindNoMatch, Message: "no record"}},
		Applied:     patch.Applied{Updated: 2},
		Created:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, c.Put(f, want))

	got, ok, err := c.Get(f)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRunsNewestFirst(t *testing.T) {
	c := openCache(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		r := &Run{Started: base.Add(time.Duration(i) * time.Minute), Patched: i}
		id, err := c.RecordRun(r)
		require.NoError(t, err)
		assert.Equal(t, id, r.ID)
	}
	// an output entry must not show up as a run
	require.NoError(t, c.Put(Compute(Inputs{}), &Entry{}))

	runs, err := c.Runs(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []int{2, 1, 0}, []int{runs[0].Patched, runs[1].Patched, runs[2].Patched})
	assert.True(t, runs[0].Started.Equal(base.Add(2*time.Minute)))

	two, err := c.Runs(2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}
