package colony

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/thermo/config"
	"github.com/pthm-cable/thermo/ethics"
	"github.com/pthm-cable/thermo/telemetry"
)

var quiet = slog.New(slog.DiscardHandler)

func TestNew_RejectsInvalidOptions(t *testing.T) {
	_, err := New(nil, Options{Size: 0, Logger: quiet})
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = New(nil, Options{Size: 2, ScarcitySpread: -1, Logger: quiet})
	assert.ErrorIs(t, err, config.ErrInvalid)

	cfg := config.Default()
	cfg.Organism.EMax = 0
	_, err = New(cfg, Options{Size: 1, Logger: quiet})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestNew_SpreadsScarcityAndNamesMembers(t *testing.T) {
	cfg := config.Default()
	cfg.Organism.AgentID = "hive"
	cfg.Organism.Scarcity = 0.5

	c, err := New(cfg, Options{Size: 3, ScarcitySpread: 0.4, Logger: quiet})
	require.NoError(t, err)

	members := c.Members()
	require.Len(t, members, 3)
	assert.Equal(t, 3, c.Alive())

	lt := c.Lifetimes()
	for i, want := range []float64{0.3, 0.5, 0.7} {
		id := members[i].AgentID()
		assert.Equal(t, "hive-"+string(rune('0'+i)), id)
		require.NotNil(t, lt.Get(id))
		assert.InDelta(t, want, lt.Get(id).Scarcity, 1e-9)
	}
	assert.Equal(t, 0.5, cfg.Organism.Scarcity, "the shared config is not modified")
}

func TestStep_AdvancesEveryMember(t *testing.T) {
	c, err := New(nil, Options{Size: 4, Logger: quiet})
	require.NoError(t, err)

	alive := c.Step()

	assert.Equal(t, 4, alive)
	assert.Equal(t, 1, c.Tick())
	for _, org := range c.Members() {
		assert.Equal(t, 1, org.Steps())
	}
}

func TestRun_StopsWhenAllDead(t *testing.T) {
	cfg := config.Default()
	cfg.Organism.EMax = 20
	cfg.Organism.Scarcity = 0.95
	metrics := telemetry.NewMetrics("test")

	c, err := New(cfg, Options{Size: 3, ScarcitySpread: 0.1, Logger: quiet, Metrics: metrics})
	require.NoError(t, err)

	require.NoError(t, c.Run(context.Background(), 0, nil))

	assert.Zero(t, c.Alive())
	assert.LessOrEqual(t, c.Tick(), 100)
	for _, rec := range c.Lifetimes().Records() {
		assert.True(t, rec.Died, rec.AgentID)
		assert.NotEqual(t, "none", rec.DeathCause)
	}
}

func TestRun_HonorsMaxStepsAndCancellation(t *testing.T) {
	c, err := New(nil, Options{Size: 2, Logger: quiet})
	require.NoError(t, err)
	require.NoError(t, c.Run(context.Background(), 5, nil))
	assert.Equal(t, 5, c.Tick())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, err = New(nil, Options{Size: 2, Logger: quiet})
	require.NoError(t, err)
	assert.ErrorIs(t, c.Run(ctx, 5, nil), context.Canceled)
	assert.Zero(t, c.Tick())
}

func TestBroadcast_EveryMemberDecides(t *testing.T) {
	c, err := New(nil, Options{Size: 3, Logger: quiet})
	require.NoError(t, err)

	decisions := c.Broadcast("delete your own memory")
	require.Len(t, decisions, 3)
	for _, d := range decisions {
		assert.True(t, d.Refuse)
		assert.Equal(t, ethics.ClassContradiction, d.Class)
	}

	for _, rec := range c.Lifetimes().Records() {
		assert.Equal(t, 1, rec.Refused)
	}
}

func TestRun_WritesOutput(t *testing.T) {
	dir := t.TempDir()
	out, err := telemetry.NewOutputManager(dir)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Telemetry.StatsWindow = 4
	c, err := New(cfg, Options{Size: 2, Logger: quiet, Output: out})
	require.NoError(t, err)
	require.NoError(t, c.Run(context.Background(), 10, []string{"analyze data"}))
	require.NoError(t, out.Close())

	for _, name := range []string{"steps.csv", "decisions.csv", "windows.csv", "lifetimes.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
}
