package catalog

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nexventures/nexsearch/internal/config"
)

// DiskUsage returns the bytes the configured catalog occupies on disk. The
// sqlite driver counts the database with its -wal and -shm files, the bleve
// driver the whole index directory. Memory and postgres catalogs report 0.
func DiskUsage(cfg *config.CatalogConfig) (int64, error) {
	switch Driver(cfg.Driver) {
	case DriverSQLite:
		if cfg.SQLitePath == ":memory:" {
			return 0, nil
		}
		return pathsSize(cfg.SQLitePath, cfg.SQLitePath+"-wal", cfg.SQLitePath+"-shm")
	case DriverBleve:
		return pathsSize(cfg.BlevePath)
	}
	return 0, nil
}

// pathsSize sums files and directory trees. Missing paths count as 0.
func pathsSize(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
