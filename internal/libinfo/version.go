/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package libinfo exposes the version of this module as it is recorded in the build info of the running binary.
// The version labels every exported metric and is printed by the evalcache-inspect tool.
package libinfo

import (
	"debug/buildinfo"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const moduleName = "github.com/acronis/go-evalcache"

// UnknownVersion is reported when the build info has no usable version (tests, builds from a working tree).
const UnknownVersion = "v0.0.0"

// PrometheusLibVersionLabel is a constant label attached to every metric exported by this module.
const PrometheusLibVersionLabel = "go_evalcache_version"

// AddPrometheusLibVersionLabel returns a copy of labels with the module version label added.
func AddPrometheusLibVersionLabel(labels prometheus.Labels) prometheus.Labels {
	labelsCopy := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		labelsCopy[k] = v
	}
	labelsCopy[PrometheusLibVersionLabel] = GetLibVersion()
	return labelsCopy
}

var (
	libVersion     string
	libVersionOnce sync.Once
)

// GetLibVersion returns the module version or UnknownVersion.
func GetLibVersion() string {
	libVersionOnce.Do(func() {
		buildInfo, _ := debug.ReadBuildInfo()
		if libVersion = extractLibVersion(buildInfo, moduleName); libVersion == "" {
			libVersion = UnknownVersion
		}
	})
	return libVersion
}

// extractLibVersion finds the module either as a dependency (a service embedding the cache)
// or as the main module (the evalcache-inspect binary). Major version suffixes ("/v2") are accepted.
func extractLibVersion(buildInfo *buildinfo.BuildInfo, modName string) string {
	if buildInfo == nil {
		return ""
	}
	for _, dep := range buildInfo.Deps {
		if isModule(dep.Path, modName) {
			return dep.Version
		}
	}
	if isModule(buildInfo.Main.Path, modName) && buildInfo.Main.Version != "(devel)" {
		return buildInfo.Main.Version
	}
	return ""
}

func isModule(path, modName string) bool {
	suffix, ok := strings.CutPrefix(path, modName)
	if !ok {
		return false
	}
	if suffix == "" {
		return true
	}
	major, ok := strings.CutPrefix(suffix, "/v")
	return ok && major != "" && strings.Trim(major, "0123456789") == ""
}
