// Package update checks GitHub for a newer release and installs it in place.
package update

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/theorangealliance/streamline-control/internal/events"
	"github.com/theorangealliance/streamline-control/internal/observability"
)

// CheckResult is the outcome of a single check
type CheckResult struct {
	CurrentVersion string    `json:"current_version" yaml:"current_version"`
	LatestVersion  string    `json:"latest_version" yaml:"latest_version"`
	Outcome        string    `json:"outcome" yaml:"outcome"`
	ReleaseURL     string    `json:"release_url,omitempty" yaml:"release_url,omitempty"`
	Prerelease     bool      `json:"prerelease" yaml:"prerelease"`
	Target         *Target   `json:"target,omitempty" yaml:"target,omitempty"`
	CheckedAt      time.Time `json:"checked_at" yaml:"checked_at"`

	outcome events.CheckOutcome
}

// Available reports whether a newer release was found
func (r *CheckResult) Available() bool {
	return r.outcome == events.OutcomeAvailable
}

// Pipeline runs update checks and installs. CheckForUpdate and ApplyUpdate
// are meant to run on their own goroutine and always emit exactly one
// terminal event on the bus.
type Pipeline struct {
	version   string
	fetcher   ReleaseFetcher
	installer Installer
	bus       events.Sender
	logger    *zap.SugaredLogger
	metrics   *observability.MetricsManager
	goos      string
	goarch    string
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithMetrics records check and apply outcomes
func WithMetrics(mm *observability.MetricsManager) PipelineOption {
	return func(p *Pipeline) { p.metrics = mm }
}

// WithPlatform overrides the OS/arch used to pick a release asset
func WithPlatform(goos, goarch string) PipelineOption {
	return func(p *Pipeline) {
		p.goos = goos
		p.goarch = goarch
	}
}

// NewPipeline creates an update pipeline for the running version
func NewPipeline(version string, fetcher ReleaseFetcher, installer Installer, bus events.Sender, logger *zap.SugaredLogger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		version:   version,
		fetcher:   fetcher,
		installer: installer,
		bus:       bus,
		logger:    logger.Named("update"),
		goos:      runtime.GOOS,
		goarch:    runtime.GOARCH,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check fetches the latest release and compares it with the running version.
func (p *Pipeline) Check(ctx context.Context) (*CheckResult, error) {
	if !IsRelease(p.version) {
		return nil, fmt.Errorf("%w: running build %q", ErrInvalidVersion, p.version)
	}

	release, err := p.fetcher.LatestRelease(ctx)
	if err != nil {
		return nil, err
	}

	outcome, err := CompareVersions(p.version, release.TagName)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{
		CurrentVersion: p.version,
		LatestVersion:  release.TagName,
		Outcome:        outcome.String(),
		ReleaseURL:     release.HTMLURL,
		Prerelease:     release.Prerelease,
		CheckedAt:      time.Now().UTC(),
		outcome:        outcome,
	}

	if outcome == events.OutcomeAvailable {
		target := &Target{Version: release.TagName, ChecksumsURL: release.ChecksumsURL()}
		if asset, err := FindAsset(release, p.goos, p.goarch); err == nil {
			target.AssetURL = asset.BrowserDownloadURL
		} else {
			p.logger.Warnw("Newer release has no asset for this platform", "version", release.TagName, "error", err)
		}
		result.Target = target
		p.logger.Infow("Update available", "current", p.version, "latest", release.TagName)
	} else {
		p.logger.Debugw("Running latest version", "version", p.version, "latest", release.TagName)
	}

	return result, nil
}

// Apply installs target. Every failure wraps ErrUpdateApply.
func (p *Pipeline) Apply(ctx context.Context, target Target) error {
	if err := p.installer.Install(ctx, target); err != nil {
		return fmt.Errorf("%w: %v", ErrUpdateApply, err)
	}
	return nil
}

// CheckForUpdate runs Check and reports UpdateCheckResult or
// UpdateCheckFailed. A panic is reported as UpdateCheckFailed.
func (p *Pipeline) CheckForUpdate(ctx context.Context) {
	var terminal events.Event
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorw("Update check panicked", "panic", r)
			terminal = events.UpdateCheckFailed{Message: fmt.Sprintf("internal error: %v", r)}
		}
		p.finishCheck(terminal)
	}()

	result, err := p.Check(ctx)
	if err != nil {
		p.logger.Warnw("Update check failed", "error", err)
		terminal = events.UpdateCheckFailed{Message: err.Error()}
		return
	}

	evt := events.UpdateCheckResult{Outcome: result.outcome}
	if result.Target != nil {
		evt.Version = result.Target.Version
		evt.DownloadURL = result.Target.AssetURL
		evt.ChecksumsURL = result.Target.ChecksumsURL
	}
	terminal = evt
}

// ApplyUpdate runs Apply and reports UpdateApplyFinished or
// UpdateApplyFailed. A panic is reported as UpdateApplyFailed.
func (p *Pipeline) ApplyUpdate(ctx context.Context, target Target) {
	var terminal events.Event
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorw("Update install panicked", "panic", r)
			terminal = events.UpdateApplyFailed{Message: fmt.Sprintf("internal error: %v", r)}
		}
		p.finishApply(terminal)
	}()

	p.logger.Infow("Applying update", "version", target.Version)
	if err := p.Apply(ctx, target); err != nil {
		p.logger.Errorw("Update failed", "version", target.Version, "error", err)
		terminal = events.UpdateApplyFailed{Message: err.Error()}
		return
	}
	terminal = events.UpdateApplyFinished{Version: target.Version}
}

func (p *Pipeline) finishCheck(evt events.Event) {
	if p.metrics != nil {
		switch e := evt.(type) {
		case events.UpdateCheckResult:
			p.metrics.RecordUpdateCheck(e.Outcome.String())
		default:
			p.metrics.RecordUpdateCheck("failed")
		}
	}
	p.send(evt)
}

func (p *Pipeline) finishApply(evt events.Event) {
	if p.metrics != nil {
		if _, ok := evt.(events.UpdateApplyFinished); ok {
			p.metrics.RecordUpdateApply("finished")
		} else {
			p.metrics.RecordUpdateApply("failed")
		}
	}
	p.send(evt)
}

func (p *Pipeline) send(evt events.Event) {
	if err := p.bus.Send(evt); err != nil {
		p.logger.Debugw("Dropped event", "event", evt.Name(), "error", err)
	}
}

// TableRows lays the result out for table output
func (r *CheckResult) TableRows() ([]string, [][]string) {
	asset := "-"
	if r.Target != nil && r.Target.AssetURL != "" {
		asset = r.Target.AssetName()
	}
	return []string{"CURRENT", "LATEST", "OUTCOME", "ASSET"},
		[][]string{{r.CurrentVersion, r.LatestVersion, r.Outcome, asset}}
}
