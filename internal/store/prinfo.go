package store

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/fs"
)

// MaxDescriptionLen is the limit on PRInfo.Description, in characters.
const MaxDescriptionLen = 280

// PRInfo describes a collector-verifier submission. It is read from the
// answers file of `ceres new-pr` and persisted as .prinfo for `ceres add-pr`.
type PRInfo struct {
	SchemaVersion string `json:"schema_version,omitempty" yaml:"-"`
	CreatedAt     string `json:"created_at,omitempty" yaml:"-"`

	Name            string `json:"name" yaml:"name"`
	Description     string `json:"description" yaml:"description"`
	DataDescription string `json:"data_description" yaml:"data_description"`
	DataSource      string `json:"data_source" yaml:"data_source"`
	DataUsefulness  string `json:"data_usefulness" yaml:"data_usefulness"`
	CodeExplanation string `json:"code_explanation" yaml:"code_explanation"`
	ImageID         string `json:"image_id" yaml:"image_id"`
	Email           string `json:"email" yaml:"email"`
	SourceCode      string `json:"source_code" yaml:"source_code"`
}

// Normalize trims surrounding whitespace from every answer.
func (p *PRInfo) Normalize() {
	for _, f := range []*string{
		&p.Name, &p.Description, &p.DataDescription, &p.DataSource,
		&p.DataUsefulness, &p.CodeExplanation, &p.ImageID, &p.Email, &p.SourceCode,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// Validate checks the answers:
// - name is required
// - description is required and at most 280 characters
// - email, when set, must be a bare address
func (p PRInfo) Validate() error {
	if p.Name == "" {
		return invalidPR("name", "name is required")
	}
	if p.Description == "" {
		return invalidPR("description", "description is required")
	}
	if n := utf8.RuneCountInString(p.Description); n > MaxDescriptionLen {
		return errors.NewWithDetails(errors.EPRInvalid, "description is longer than 280 characters",
			map[string]string{"field": "description", "length": strconv.Itoa(n)})
	}
	if p.Email != "" {
		addr, err := mail.ParseAddress(p.Email)
		if err != nil || addr.Address != p.Email {
			return invalidPR("email", "email is not a valid address")
		}
	}
	return nil
}

// LoadAnswers reads a YAML answers file. Unknown keys are rejected.
func LoadAnswers(fsys fs.FS, path string) (PRInfo, error) {
	var info PRInfo
	data, err := fsys.ReadFile(path)
	if err != nil {
		return info, errors.WrapWithDetails(errors.EIO, "failed to read answers file", err, map[string]string{"path": path})
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&info); err != nil && !stderrors.Is(err, io.EOF) {
		return info, errors.WrapWithDetails(errors.EPRInvalid, "invalid answers file", err, map[string]string{"path": path})
	}

	info.Normalize()
	if err := info.Validate(); err != nil {
		return info, errors.WithDetail(err, "path", path)
	}
	return info, nil
}

// SavePRInfo stamps info and writes it to <root>/.prinfo.
func (s *Store) SavePRInfo(info PRInfo) error {
	info.SchemaVersion = SchemaVersion
	info.CreatedAt = s.Now().UTC().Format(time.RFC3339)
	if err := fs.WriteJSONAtomic(s.FS, s.PRInfoPath(), info, 0644); err != nil {
		return errors.WrapWithDetails(errors.EIO, "failed to write .prinfo", err, map[string]string{"path": s.PRInfoPath()})
	}
	return nil
}

// LoadPRInfo reads <dir>/.prinfo. A missing file is E_PR_INVALID with a hint
// to run new-pr first.
func LoadPRInfo(fsys fs.FS, dir string) (PRInfo, error) {
	var info PRInfo
	path := filepath.Join(dir, PRInfoFileName)

	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return info, errors.NewWithDetails(errors.EPRInvalid, "no .prinfo found; run `ceres new-pr` in the project first",
				map[string]string{"path": path})
		}
		return info, errors.WrapWithDetails(errors.EIO, "failed to read .prinfo", err, map[string]string{"path": path})
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, errors.WrapWithDetails(errors.EPRInvalid, "invalid .prinfo", err, map[string]string{"path": path})
	}
	if err := info.Validate(); err != nil {
		return info, errors.WithDetail(err, "path", path)
	}
	return info, nil
}

func invalidPR(field, msg string) error {
	return errors.NewWithDetails(errors.EPRInvalid, msg, map[string]string{"field": field})
}
