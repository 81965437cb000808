// Package config loads the optional mediaresolve.yaml file.
//
// The raw file goes through ExpandEnv before YAML decoding, so secrets and
// per-host paths can stay out of the file:
//
//	scratch_dir: ${MEDIARESOLVE_SCRATCH:-/tmp/mediaresolve}
//	adapter:
//	  url: ${MEDIARESOLVE_HOOK_URL}
//	  headers:
//	    Authorization: Bearer ${MEDIARESOLVE_HOOK_TOKEN}
package config

import (
	"os"
	"regexp"
)

// envRef matches ${NAME} and ${NAME:-fallback}. Group 1 is the variable
// name, group 2 the fallback.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv substitutes environment references in a config document.
// A set, non-empty variable wins; otherwise the fallback is used, and a
// reference with neither becomes the empty string. Required values are
// checked later by whatever consumes them (store, adapter).
func ExpandEnv(doc string) string {
	return envRef.ReplaceAllStringFunc(doc, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		if v := os.Getenv(m[1]); v != "" {
			return v
		}
		return m[2]
	})
}
