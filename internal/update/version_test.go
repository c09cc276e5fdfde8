package update

import (
	"errors"
	"testing"

	"github.com/theorangealliance/streamline-control/internal/events"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name    string
		current string
		latest  string
		want    events.CheckOutcome
		wantErr error
	}{
		{"newer patch release", "2.0.5", "2.1.0", events.OutcomeAvailable, nil},
		{"same version", "2.0.5", "2.0.5", events.OutcomeUpToDate, nil},
		{"mixed v prefix", "v2.0.5", "2.0.5", events.OutcomeUpToDate, nil},
		{"older release never downgrades", "2.1.0", "v2.0.5", events.OutcomeUpToDate, nil},
		{"prerelease of same version is older", "v1.0.0", "v1.0.0-rc.1", events.OutcomeUpToDate, nil},
		{"release after prerelease", "v1.0.0-rc.1", "v1.0.0", events.OutcomeAvailable, nil},
		{"development build", "development", "v1.0.0", events.OutcomeUpToDate, ErrInvalidVersion},
		{"garbage release tag", "v1.0.0", "nightly", events.OutcomeUpToDate, ErrInvalidVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompareVersions(tt.current, tt.latest)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CompareVersions(%q, %q) error = %v, want %v", tt.current, tt.latest, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CompareVersions(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
			}
		})
	}
}

func TestEnsureVPrefix(t *testing.T) {
	tests := map[string]string{
		"1.0.0":  "v1.0.0",
		"v1.0.0": "v1.0.0",
		"":       "",
	}
	for in, want := range tests {
		if got := ensureVPrefix(in); got != want {
			t.Errorf("ensureVPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
