// Package manifest reads the user's dependency manifest, splits it into host
// and guest declarations, and merges those into the generated manifests.
package manifest

import (
	"strconv"
	"strings"

	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/fs"
	"github.com/mercury-protocol/ceres/internal/textfile"
)

// DefaultImplicitGuestDependency is always present in the guest list.
const DefaultImplicitGuestDependency = `cid = "0.7.0"`

// Markers are the substrings that open the host and guest sections.
type Markers struct {
	Host  string
	Guest string

	// CommentOnly restricts marker matching to TOML comment lines, so a
	// package or dependency name containing a marker is never a header.
	CommentOnly bool
}

func (m Markers) match(line, marker string) bool {
	if m.CommentOnly && !strings.HasPrefix(strings.TrimSpace(line), "#") {
		return false
	}
	return strings.Contains(line, marker)
}

// DefaultMarkers match the marker comments written by `ceres init`.
var DefaultMarkers = Markers{Host: "Host", Guest: "Guest"}

// Dependencies holds raw declaration lines per side, in manifest order.
type Dependencies struct {
	Host  []string
	Guest []string
}

// Partition splits lines into host and guest declarations.
//
// The host marker line and everything after it are host lines until the
// guest marker line, which is skipped; everything after it is a guest line.
// A host marker after the guest marker is rejected with E_MARKER_ORDER.
// implicit, when non-empty, is appended to the guest list unless the guest
// section already declares its key, so a user's own pin always wins.
func Partition(lines []string, m Markers, implicit string) (Dependencies, error) {
	var (
		deps       Dependencies
		inHost     bool
		inGuest    bool
		guestIndex int
	)

	for i, line := range lines {
		switch {
		case m.match(line, m.Host):
			if inGuest {
				return Dependencies{}, errors.NewWithDetails(errors.EMarkerOrder,
					"host marker appears after the guest marker",
					map[string]string{
						"host_line":  strconv.Itoa(i + 1),
						"guest_line": strconv.Itoa(guestIndex + 1),
					})
			}
			inHost = true
		case m.match(line, m.Guest):
			inHost, inGuest = false, true
			guestIndex = i
			continue
		}

		if inHost {
			deps.Host = append(deps.Host, line)
		} else if inGuest {
			deps.Guest = append(deps.Guest, line)
		}
	}

	if implicit != "" && !declares(deps.Guest, implicit) {
		deps.Guest = append(deps.Guest, implicit)
	}
	return deps, nil
}

// PartitionFile reads path and partitions its lines.
func PartitionFile(fsys fs.FS, path string, m Markers, implicit string) (Dependencies, error) {
	f, err := textfile.Read(fsys, path)
	if err != nil {
		return Dependencies{}, err
	}
	deps, err := Partition(f.Lines, m, implicit)
	if err != nil {
		return Dependencies{}, errors.WithDetail(err, "path", path)
	}
	return deps, nil
}

// declares reports whether lines hold decl itself or another declaration of
// the same key.
func declares(lines []string, decl string) bool {
	if key, ok := declKey(decl); ok {
		return findKey(lines, key) >= 0
	}
	return contains(lines, decl)
}

func contains(lines []string, s string) bool {
	for _, l := range lines {
		if l == s {
			return true
		}
	}
	return false
}
