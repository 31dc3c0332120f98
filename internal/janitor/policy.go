package janitor

import (
	"strings"
	"time"

	"broom/internal/config"
)

// Policy holds the immutable cleanup rules the controller applies. Build one
// with PolicyFromConfig and treat it as read-only afterwards.
type Policy struct {
	// VendorPrefix marks identifiers that belong to the tracked vendor.
	VendorPrefix string
	// Ignore lists identifiers that never count as real applications. These
	// are the background daemons cleanup exists to remove.
	Ignore map[string]struct{}
	// GracePeriod is the quiet window between the last qualifying exit and
	// the cleanup pass.
	GracePeriod time.Duration
}

// PolicyFromConfig derives the cleanup policy from loaded configuration.
func PolicyFromConfig(cfg *config.Config) Policy {
	grace := time.Duration(cfg.Watch.GracePeriod) * time.Second
	if grace <= 0 {
		grace = 5 * time.Minute
	}
	return Policy{
		VendorPrefix: cfg.Watch.VendorPrefix,
		Ignore:       cfg.IgnoreSet(),
		GracePeriod:  grace,
	}
}

// Ignored reports whether the identifier is on the ignore list.
func (p Policy) Ignored(identifier string) bool {
	_, ok := p.Ignore[identifier]
	return ok
}

// Qualifies reports whether the identifier counts as a real vendor
// application: inside the vendor namespace and not ignored.
func (p Policy) Qualifies(identifier string) bool {
	return strings.HasPrefix(identifier, p.VendorPrefix) && !p.Ignored(identifier)
}
