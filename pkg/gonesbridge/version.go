package gonesbridge

import (
	"fmt"

	"github.com/bft-labs/gonesbridge/pkg/lifecycle"
	"github.com/bft-labs/gonesbridge/pkg/log"
	"github.com/bft-labs/gonesbridge/pkg/protocol"
)

// Version information for the gonesbridge module.
const (
	Version              = "1.0.0"
	MinCompatibleVersion = "1.0.0"
)

// moduleVersion pairs a sub-module's version with its minimum compatible version.
type moduleVersion struct {
	version    string
	minVersion string
}

// ModuleVersions returns the versions of all sub-modules.
func ModuleVersions() map[string]string {
	out := make(map[string]string)
	for name, m := range compatibility() {
		out[name] = m.version
	}
	return out
}

func compatibility() map[string]moduleVersion {
	return map[string]moduleVersion{
		"protocol":  {protocol.Version, protocol.MinCompatibleVersion},
		"lifecycle": {lifecycle.Version, lifecycle.MinCompatibleVersion},
		"log":       {log.Version, log.MinCompatibleVersion},
	}
}

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	for name, m := range compatibility() {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}
	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic versioning.
// Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
