package stats

import "strings"

const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
	PlatformBrowser = "browser"
	PlatformOther   = "other"

	EnvironmentSandbox = "sandbox"
	EnvironmentStaging = "staging"
	EnvironmentFlux    = "flux"
	EnvironmentLocal   = "local"
	EnvironmentUnknown = "unknown"
)

var browserMarkers = []string{"browser", "desktop", "responsive"}

// Platform derives the platform tag from a CI job name. Rules are checked in
// order and the first match wins.
func Platform(job string) string {
	j := strings.ToLower(job)
	switch {
	case strings.Contains(j, "android"):
		return PlatformAndroid
	case strings.Contains(j, "ios"):
		return PlatformIOS
	case containsAny(j, browserMarkers):
		return PlatformBrowser
	default:
		return PlatformOther
	}
}

// Environment normalizes a free-text environment label. Unrecognized labels
// are kept lower-cased; empty ones become "unknown".
func Environment(environment string) string {
	e := strings.ToLower(environment)
	for _, known := range []string{EnvironmentSandbox, EnvironmentStaging, EnvironmentFlux, EnvironmentLocal} {
		if strings.Contains(e, known) {
			return known
		}
	}
	if e == "" {
		return EnvironmentUnknown
	}
	return e
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
