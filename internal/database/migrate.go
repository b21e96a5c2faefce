package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

// Migration is one versioned schema change with its rollback script.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var migrations = mustLoadMigrations(migrationFS)

func mustLoadMigrations(fsys fs.FS) []Migration {
	loaded, err := LoadMigrations(fsys, "migrations")
	if err != nil {
		panic(fmt.Sprintf("invalid embedded migrations: %v", err))
	}
	return loaded
}

// LoadMigrations reads NNNNNN_name.up.sql / NNNNNN_name.down.sql pairs from dir.
// Every up script must have a matching down script and versions must be unique.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	seen := make(map[int]string)
	var out []Migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		base := strings.TrimSuffix(name, ".up.sql")
		versionPart, label, ok := strings.Cut(base, "_")
		if !ok || label == "" {
			return nil, fmt.Errorf("migration %q must be named <version>_<name>.up.sql", name)
		}
		version, err := strconv.Atoi(versionPart)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %q has an invalid version", name)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %06d used by both %q and %q", version, prev, name)
		}
		seen[version] = name

		up, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read up migration %s: %w", name, err)
		}
		down, err := fs.ReadFile(fsys, path.Join(dir, base+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("read down migration %s: %w", base+".down.sql", err)
		}

		out = append(out, Migration{
			Version:    version,
			Name:       label,
			UpScript:   string(up),
			DownScript: string(down),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// GetMigrations returns the embedded migrations in version order.
func GetMigrations() []Migration {
	return migrations
}

// GetMigrationByVersion returns the migration with the given version, or nil.
func GetMigrationByVersion(version int) *Migration {
	for i := range migrations {
		if migrations[i].Version == version {
			return &migrations[i]
		}
	}
	return nil
}

func (m *Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}
