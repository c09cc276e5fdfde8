package config

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError represents a single invalid field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateDetailed returns every problem found in the configuration.
func (c *Config) ValidateDetailed() []ValidationError {
	var errs []ValidationError

	if c.Host != "" && net.ParseIP(c.Host) == nil && c.Host != "localhost" {
		errs = append(errs, ValidationError{Field: "host", Message: fmt.Sprintf("invalid IP address %q", c.Host)})
	}

	if len(c.Ports) == 0 {
		errs = append(errs, ValidationError{Field: "ports", Message: "at least one candidate port is required"})
	}
	seen := make(map[int]bool, len(c.Ports))
	for _, p := range c.Ports {
		if p < 1 || p > 65535 {
			errs = append(errs, ValidationError{Field: "ports", Message: fmt.Sprintf("port %d is out of range", p)})
			continue
		}
		if seen[p] {
			errs = append(errs, ValidationError{Field: "ports", Message: fmt.Sprintf("port %d listed twice", p)})
		}
		seen[p] = true
	}

	if c.DrainTimeout < 0 {
		errs = append(errs, ValidationError{Field: "drain_timeout", Message: "must not be negative"})
	}

	switch c.Surface {
	case SurfaceAuto, SurfaceTray, SurfaceTUI, SurfaceNone:
	default:
		errs = append(errs, ValidationError{Field: "surface", Message: fmt.Sprintf("unknown surface %q", c.Surface)})
	}

	if c.Update != nil && !c.Update.Disabled {
		if strings.Count(c.Update.Repo, "/") != 1 {
			errs = append(errs, ValidationError{Field: "update.repo", Message: "must be in owner/name form"})
		}
		if c.Update.APIBaseURL == "" {
			errs = append(errs, ValidationError{Field: "update.api_base_url", Message: "must not be empty"})
		}
	}

	return errs
}

// Validate fills defaults for missing sections and reports the first problem.
func (c *Config) Validate() error {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Surface == "" {
		c.Surface = SurfaceAuto
	}
	if c.Update == nil {
		c.Update = DefaultConfig().Update
	}
	if c.Logging == nil {
		c.Logging = DefaultLogConfig()
	}

	if errs := c.ValidateDetailed(); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errs[0])
	}
	return nil
}
