//nolint:revive // types is a common Go package naming convention
package types

// Version is the canonical project version.
// The CLI, report contract and adapter events all report this value.
const Version = "0.2.0"
