package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MetadataFile is the dedicated per-project metadata file.
	MetadataFile = "project.json"
	// PackageManifest is the npm package manifest.
	PackageManifest = "package.json"
	// DefaultDistDir is the build output directory name.
	DefaultDistDir = "dist"
)

// Registry discovers projects under a root directory.
type Registry struct {
	root    string
	distDir string
	logger  *slog.Logger
}

// NewRegistry creates a registry over root. An empty distDir means DefaultDistDir.
func NewRegistry(root, distDir string, logger *slog.Logger) *Registry {
	if distDir == "" {
		distDir = DefaultDistDir
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{root: root, distDir: distDir, logger: logger}
}

// Root returns the directory the registry scans.
func (r *Registry) Root() string {
	return r.root
}

// List scans the root and returns one descriptor per immediate subdirectory.
// Metadata problems for one project never abort the scan.
func (r *Registry) List(ctx context.Context) ([]Project, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("reading project root: %w", err)
	}

	projects := make([]Project, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		dir := filepath.Join(r.root, name)
		if !entry.IsDir() {
			// Symlinked project directories are followed.
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				continue
			}
		}
		projects = append(projects, r.describe(name, dir))
	}
	return projects, nil
}

// Get returns the descriptor for one project.
func (r *Registry) Get(ctx context.Context, id string) (*Project, error) {
	dir, err := r.Resolve(id)
	if err != nil {
		return nil, err
	}
	proj := r.describe(id, dir)
	return &proj, nil
}

// Resolve validates id and returns the project's directory.
func (r *Registry) Resolve(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	dir := filepath.Join(r.root, id)
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrProjectNotFound
	}
	if err != nil {
		return "", fmt.Errorf("stat project: %w", err)
	}
	if !info.IsDir() {
		return "", ErrProjectNotFound
	}
	return dir, nil
}

// DistPath returns the build output directory for a project directory.
func (r *Registry) DistPath(dir string) string {
	return filepath.Join(dir, r.distDir)
}

func (r *Registry) describe(id, dir string) Project {
	meta := r.readMetadata(id, dir)
	return Project{
		ID:             id,
		Name:           meta.Name,
		Description:    meta.Description,
		HasDist:        isDir(r.DistPath(dir)),
		HasPackageJSON: isFile(filepath.Join(dir, PackageManifest)),
		Path:           dir,
	}
}

// readMetadata prefers the metadata file, then the package manifest, then
// falls back to the directory name.
func (r *Registry) readMetadata(id, dir string) Metadata {
	for _, name := range []string{MetadataFile, PackageManifest} {
		meta, err := readMetadataFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			r.logger.Warn("unreadable project metadata", "project", id, "file", name, "error", err)
			continue
		}
		if meta.Name == "" {
			meta.Name = id
		}
		return meta
	}
	return Metadata{Name: id}
}

func readMetadataFile(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return meta, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
