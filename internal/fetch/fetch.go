// Package fetch downloads collector starter files from a GitHub-style
// repository contents API.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mercury-protocol/ceres/internal/errors"
	"github.com/mercury-protocol/ceres/internal/fs"
)

// UserAgent is sent with every request; the contents API rejects requests
// without one.
const UserAgent = "ceres/1.0"

const maxFileSize = 16 << 20

// Source identifies the repository holding the starter folders.
type Source struct {
	APIBase string // e.g. https://api.github.com
	Owner   string
	Repo    string
}

// Entry is one item of a contents listing.
type Entry struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "file" or "dir"
	DownloadURL string `json:"download_url"`
}

// Fetcher downloads starter folders. The zero Client means a client with a
// one minute timeout.
type Fetcher struct {
	Source      Source
	FS          fs.FS
	Client      *http.Client
	Concurrency int
	Logger      *zap.Logger
}

// StarterFolder maps a collector language to its folder in the starter
// repository. There is no Python starter yet; py projects get the Go one.
func StarterFolder(lang string) (string, error) {
	switch lang {
	case "go", "py":
		return "ceres-go", nil
	case "js":
		return "ceres-js", nil
	}
	return "", errors.NewWithDetails(errors.EUsage, "unsupported collector language", map[string]string{"lang": lang})
}

// List returns the entries of folder.
func (f *Fetcher) List(ctx context.Context, folder string) ([]Entry, error) {
	u, err := f.contentsURL(folder)
	if err != nil {
		return nil, err
	}

	body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, errors.WrapWithDetails(errors.EFetchFailed, "unexpected contents listing", err, map[string]string{"url": u})
	}
	return entries, nil
}

// Fetch downloads every file of folder into destDir, which must exist, and
// returns the written file names sorted. Subdirectories are skipped. It
// blocks until every download has finished or one has failed.
func (f *Fetcher) Fetch(ctx context.Context, folder, destDir string) ([]string, error) {
	entries, err := f.List(ctx, folder)
	if err != nil {
		return nil, err
	}

	logger := f.logger()
	var files []Entry
	for _, e := range entries {
		if e.Type != "" && e.Type != "file" {
			logger.Debug("skipping non-file entry", zap.String("name", e.Name), zap.String("type", e.Type))
			continue
		}
		if err := checkName(e.Name); err != nil {
			return nil, err
		}
		if e.DownloadURL == "" {
			return nil, errors.NewWithDetails(errors.EFetchFailed, "file entry has no download URL", map[string]string{"name": e.Name})
		}
		files = append(files, e)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency())
	for _, e := range files {
		g.Go(func() error {
			data, err := f.get(gctx, e.DownloadURL)
			if err != nil {
				return errors.WithDetail(err, "name", e.Name)
			}
			dst := filepath.Join(destDir, e.Name)
			if err := fs.WriteFileAtomic(f.FS, dst, data, 0644); err != nil {
				return errors.WrapWithDetails(errors.EIO, "failed to write starter file", err, map[string]string{"path": dst})
			}
			logger.Debug("fetched starter file", zap.String("name", e.Name), zap.Int("bytes", len(data)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make([]string, len(files))
	for i, e := range files {
		names[i] = e.Name
	}
	sort.Strings(names)
	return names, nil
}

func (f *Fetcher) contentsURL(folder string) (string, error) {
	base, err := url.Parse(strings.TrimRight(f.Source.APIBase, "/"))
	if err != nil {
		return "", errors.WrapWithDetails(errors.EConfigInvalid, "invalid starter API base", err,
			map[string]string{"api_base": f.Source.APIBase})
	}
	return base.JoinPath("repos", f.Source.Owner, f.Source.Repo, "contents", folder).String(), nil
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.WrapWithDetails(errors.EFetchFailed, "invalid request", err, map[string]string{"url": u})
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, errors.WrapWithDetails(errors.EFetchFailed, "request failed", err, map[string]string{"url": u})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewWithDetails(errors.EFetchFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode),
			map[string]string{"url": u, "status": strconv.Itoa(resp.StatusCode)})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize+1))
	if err != nil {
		return nil, errors.WrapWithDetails(errors.EFetchFailed, "failed to read response", err, map[string]string{"url": u})
	}
	if len(data) > maxFileSize {
		return nil, errors.NewWithDetails(errors.EFetchFailed, "response too large", map[string]string{"url": u})
	}
	return data, nil
}

// checkName rejects entry names that would escape the destination folder.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.NewWithDetails(errors.EFetchFailed, "unsafe file name in contents listing", map[string]string{"name": name})
	}
	return nil
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return &http.Client{Timeout: time.Minute}
}

func (f *Fetcher) concurrency() int {
	if f.Concurrency > 0 {
		return f.Concurrency
	}
	return 1
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return zap.NewNop()
}
