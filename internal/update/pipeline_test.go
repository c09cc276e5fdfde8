package update

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/theorangealliance/streamline-control/internal/events"
	"github.com/theorangealliance/streamline-control/internal/observability"
)

type fakeFetcher struct {
	release *Release
	err     error
	panic   bool
}

func (f *fakeFetcher) LatestRelease(context.Context) (*Release, error) {
	if f.panic {
		panic("fetcher exploded")
	}
	return f.release, f.err
}

type fakeInstaller struct {
	mu      sync.Mutex
	targets []Target
	err     error
	panic   bool
}

func (f *fakeInstaller) Install(_ context.Context, target Target) error {
	if f.panic {
		panic("installer exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, target)
	return f.err
}

func linuxRelease(tag string) *Release {
	return &Release{
		TagName: tag,
		HTMLURL: "https://github.com/acme/panel/releases/tag/" + tag,
		Assets: []Asset{
			{Name: "checksums.txt", BrowserDownloadURL: "https://dl.test/checksums.txt"},
			{Name: "panel_linux_amd64.tar.gz", BrowserDownloadURL: "https://dl.test/panel_linux_amd64.tar.gz"},
		},
	}
}

func newTestPipeline(t *testing.T, version string, fetcher ReleaseFetcher, installer Installer) (*Pipeline, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	logger := zaptest.NewLogger(t).Sugar()
	p := NewPipeline(version, fetcher, installer, bus, logger,
		WithPlatform("linux", "amd64"),
		WithMetrics(observability.NewMetricsManager(logger)))
	return p, bus
}

// onlyEvent asserts the bus holds exactly one event and returns it.
func onlyEvent(t *testing.T, bus *events.Bus) events.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	env, err := bus.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, bus.Len(), "expected exactly one terminal event")
	return env.Event
}

func TestCheckForUpdate_Available(t *testing.T) {
	p, bus := newTestPipeline(t, "2.0.5", &fakeFetcher{release: linuxRelease("2.1.0")}, &fakeInstaller{})

	p.CheckForUpdate(context.Background())

	evt, ok := onlyEvent(t, bus).(events.UpdateCheckResult)
	require.True(t, ok)
	assert.Equal(t, events.OutcomeAvailable, evt.Outcome)
	assert.Equal(t, "2.1.0", evt.Version)
	assert.Equal(t, "https://dl.test/panel_linux_amd64.tar.gz", evt.DownloadURL)
	assert.Equal(t, "https://dl.test/checksums.txt", evt.ChecksumsURL)
}

func TestCheckForUpdate_UpToDate(t *testing.T) {
	p, bus := newTestPipeline(t, "2.0.5", &fakeFetcher{release: linuxRelease("2.0.5")}, &fakeInstaller{})

	p.CheckForUpdate(context.Background())

	evt, ok := onlyEvent(t, bus).(events.UpdateCheckResult)
	require.True(t, ok)
	assert.Equal(t, events.OutcomeUpToDate, evt.Outcome)
	assert.Empty(t, evt.Version)
}

func TestCheckForUpdate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		version string
		fetcher *fakeFetcher
		msg     string
	}{
		{"network", "v1.0.0", &fakeFetcher{err: ErrUpdateCheckNetwork}, "unable to reach"},
		{"development build", "development", &fakeFetcher{release: linuxRelease("v1.0.0")}, "not a release version"},
		{"bad tag", "v1.0.0", &fakeFetcher{release: linuxRelease("latest")}, "not a release version"},
		{"panic", "v1.0.0", &fakeFetcher{panic: true}, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, bus := newTestPipeline(t, tt.version, tt.fetcher, &fakeInstaller{})

			p.CheckForUpdate(context.Background())

			evt, ok := onlyEvent(t, bus).(events.UpdateCheckFailed)
			require.True(t, ok)
			assert.Contains(t, evt.Message, tt.msg)
		})
	}
}

func TestCheck_NoAssetForPlatform(t *testing.T) {
	release := linuxRelease("v2.0.0")
	p, _ := newTestPipeline(t, "v1.0.0", &fakeFetcher{release: release}, &fakeInstaller{})
	p.goos = "plan9"

	result, err := p.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Available())
	require.NotNil(t, result.Target)
	assert.Empty(t, result.Target.AssetURL)
	assert.Equal(t, "available", result.Outcome)
}

func TestApplyUpdate(t *testing.T) {
	target := Target{Version: "v2.1.0", AssetURL: "https://dl.test/a.tar.gz"}

	t.Run("finished", func(t *testing.T) {
		inst := &fakeInstaller{}
		p, bus := newTestPipeline(t, "v2.0.5", &fakeFetcher{}, inst)

		p.ApplyUpdate(context.Background(), target)

		evt, ok := onlyEvent(t, bus).(events.UpdateApplyFinished)
		require.True(t, ok)
		assert.Equal(t, "v2.1.0", evt.Version)
		assert.Equal(t, []Target{target}, inst.targets)
	})

	t.Run("failed", func(t *testing.T) {
		p, bus := newTestPipeline(t, "v2.0.5", &fakeFetcher{}, &fakeInstaller{err: ErrChecksumMismatch})

		p.ApplyUpdate(context.Background(), target)

		evt, ok := onlyEvent(t, bus).(events.UpdateApplyFailed)
		require.True(t, ok)
		assert.Contains(t, evt.Message, "checksum mismatch")
	})

	t.Run("panic", func(t *testing.T) {
		p, bus := newTestPipeline(t, "v2.0.5", &fakeFetcher{}, &fakeInstaller{panic: true})

		p.ApplyUpdate(context.Background(), target)

		_, ok := onlyEvent(t, bus).(events.UpdateApplyFailed)
		assert.True(t, ok)
	})
}

func TestApply_WrapsErrUpdateApply(t *testing.T) {
	p, _ := newTestPipeline(t, "v1.0.0", &fakeFetcher{}, &fakeInstaller{err: errors.New("disk full")})

	err := p.Apply(context.Background(), Target{Version: "v1.1.0"})
	assert.ErrorIs(t, err, ErrUpdateApply)
	assert.ErrorContains(t, err, "disk full")
}

func TestCheckForUpdate_ClosedBus(t *testing.T) {
	p, bus := newTestPipeline(t, "v1.0.0", &fakeFetcher{release: linuxRelease("v1.0.0")}, &fakeInstaller{})
	bus.Close()

	// Must not panic or block once the controller is gone.
	p.CheckForUpdate(context.Background())
	assert.Equal(t, 0, bus.Len())
}
