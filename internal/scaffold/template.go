// Package scaffold writes the skeleton of a new collector/verifier project.
package scaffold

import "fmt"

// MarkerComment returns the manifest comment line that opens a dependency
// section for marker.
func MarkerComment(marker, side string) string {
	return fmt.Sprintf("# %s - install %s dependencies here, don't delete this line", marker, side)
}

// VerifierManifest renders verifier/Cargo.toml. The marker comments sit in
// the [dependencies] table so the file stays a valid crate manifest for the
// local test harness.
func VerifierManifest(name, hostMarker, guestMarker string) string {
	return fmt.Sprintf(`[package]
name = %q
version = "0.1.0"
edition = "2021"

[dependencies]
%s

%s
`, name, MarkerComment(hostMarker, "host"), MarkerComment(guestMarker, "guest"))
}
