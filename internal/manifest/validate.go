package manifest

import (
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/fs"
)

// Validate parses data as TOML. Failures are E_MANIFEST_INVALID with the
// offending line and column when the parser reports them.
func Validate(data []byte) error {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return invalid(err)
	}
	return nil
}

// ValidateFile reads and validates the manifest at path.
func ValidateFile(fsys fs.FS, path string) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to read manifest", err, map[string]string{"path": path})
	}
	return errors.WithDetail(Validate(data), "path", path)
}

// PackageName returns the [package] name declared in a manifest, or "" if
// there is none.
func PackageName(data []byte) (string, error) {
	var doc struct {
		Package struct {
			Name string `toml:"name"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return "", invalid(err)
	}
	return doc.Package.Name, nil
}

func invalid(err error) error {
	details := map[string]string{}
	var de *toml.DecodeError
	if stderrors.As(err, &de) {
		row, col := de.Position()
		details["line"] = strconv.Itoa(row)
		details["column"] = strconv.Itoa(col)
		if key := de.Key(); len(key) > 0 {
			details["key"] = strings.Join(key, ".")
		}
	}
	return errors.WrapWithDetails(errors.EManifestInvalid, "manifest is not valid TOML", err, details)
}
