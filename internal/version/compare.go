package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-ledger/pkg/errors"
)

// devVersion marks a development build; it is compatible with everything.
const devVersion = "main"

// CheckVersionCompatibility reports whether a config file written for
// configVersion can be used by a build at buildVersion.
//
// Major and minor must match, patch may differ:
//   - Build 1.2.1, Config 1.2.0 -> OK
//   - Build 1.3.0, Config 1.2.0 -> ERROR (minor differs)
//   - Build 2.0.0, Config 1.2.0 -> ERROR (major differs)
//   - Build main, Config 1.2.0 -> OK (dev build, skip check)
//
// Failures carry ErrCodeInvalidVersion.
func CheckVersionCompatibility(buildVersion, configVersion string) error {
	buildVersion = strings.TrimPrefix(buildVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if buildVersion == devVersion || configVersion == devVersion {
		return nil
	}

	build, err := semver.NewVersion(buildVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid build version '%s'", buildVersion)
	}

	config, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid config version '%s'", configVersion)
	}

	switch {
	case build.Major() != config.Major():
		return errors.Newf(errors.ErrCodeInvalidVersion,
			"major version mismatch: argo-ledger is %d.x.x but config requires %d.x.x",
			build.Major(), config.Major())
	case build.Minor() != config.Minor():
		return errors.Newf(errors.ErrCodeInvalidVersion,
			"minor version mismatch: argo-ledger is %d.%d.x but config requires %d.%d.x",
			build.Major(), build.Minor(), config.Major(), config.Minor())
	}

	return nil
}

// Supports checks configVersion against the running build.
// An empty configVersion is accepted.
func Supports(configVersion string) error {
	if configVersion == "" {
		return nil
	}

	return CheckVersionCompatibility(GetVersion(), configVersion)
}
