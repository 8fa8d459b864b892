package database

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
)

type MigrationConfig struct {
	MigrationFolderPath string
	// Version pins the schema to a specific migration. Zero means latest.
	Version uint
	// Force marks the schema as being at this version without running
	// anything. Used to recover a dirty database.
	Force int
	// AutoRollback forces the schema back to the pre-migration version when a
	// migration leaves the database dirty.
	AutoRollback bool
}

type MigrationService struct {
	config *MigrationConfig
	logger ectologger.Logger
}

func NewMigrationService(logger ectologger.Logger, config *MigrationConfig) *MigrationService {
	return &MigrationService{
		config: config,
		logger: logger,
	}
}

// migrateLogger adapts ectologger to migrate's Logger interface.
type migrateLogger struct {
	ectologger.Logger
}

func (l migrateLogger) Verbose() bool { return true }

func (l migrateLogger) Printf(format string, v ...any) {
	l.Infof(strings.TrimSpace(format), v...)
}

// Migrate brings the schema to the configured version, or to the newest
// migration when no version is pinned.
func (ms *MigrationService) Migrate(databaseName string, driver database.Driver) error {
	folder := ms.resolveFolder()
	if _, err := os.Stat(folder); err != nil {
		return errors.Wrapf(err, "migration folder %s does not exist", folder)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+folder, databaseName, driver)
	if err != nil {
		ms.logger.WithError(err).Error("Failed to create migrate instance")
		return err
	}
	m.Log = migrateLogger{Logger: ms.logger}

	if ms.config.Force != 0 {
		if err := m.Force(ms.config.Force); err != nil {
			ms.logger.WithError(err).Errorf("Failed to force schema version %d", ms.config.Force)
			return err
		}
	}

	before, _, verErr := m.Version()
	if verErr != nil && verErr != migrate.ErrNilVersion {
		ms.logger.WithError(verErr).Error("Failed to read current schema version")
	}

	start := time.Now()
	var runErr error
	if ms.config.Version != 0 {
		runErr = m.Migrate(ms.config.Version)
	} else {
		runErr = m.Up()
	}
	ms.logger.WithFields(map[string]any{"duration": time.Since(start).String()}).Info("Database migrations finished")

	return ms.handleResult(m, folder, runErr, before)
}

func (ms *MigrationService) resolveFolder() string {
	folder := ms.config.MigrationFolderPath
	if _, err := os.Stat(folder); err == nil {
		return folder
	}
	wd, _ := os.Getwd()
	return filepath.Join(wd, folder)
}

func (ms *MigrationService) handleResult(m *migrate.Migrate, folder string, err error, before uint) error {
	if err == nil {
		ms.logger.Info("Schema migrations applied")
		return nil
	}
	if err == migrate.ErrNoChange {
		ms.logger.Info("Schema already up to date")
		return nil
	}

	// The recorded version can exceed the files on disk after a deploy
	// rollback. Force the schema to the newest migration we actually have.
	if strings.Contains(err.Error(), "no migration found for version") {
		latest, latestErr := latestFileVersion(folder)
		if latestErr != nil {
			ms.logger.WithError(latestErr).Error("Failed to determine newest migration file")
			return err
		}
		ms.logger.Warnf("Recorded schema version %d has no migration file. Forcing version %d", before, latest)
		if forceErr := m.Force(latest); forceErr != nil {
			ms.logger.WithError(forceErr).Errorf("Failed to force schema version %d", latest)
			return forceErr
		}
		return nil
	}

	ms.logger.WithError(err).Error("Schema migration failed")

	version, dirty, verErr := m.Version()
	if verErr != nil && verErr != migrate.ErrNilVersion {
		ms.logger.WithError(verErr).Error("Failed to read schema version after failure")
		return err
	}

	if ms.config.AutoRollback && dirty {
		target := before
		if target == 0 && version > 0 {
			target = version - 1
		}
		ms.logger.Warnf("Schema is dirty at version %d. Reverting to version %d", version, target)
		if forceErr := m.Force(int(target)); forceErr != nil {
			ms.logger.WithError(forceErr).Errorf("Failed to revert schema to version %d", target)
			return forceErr
		}
		// The revert cleans the dirty flag but the migration still failed.
		return err
	}

	ms.logger.WithError(err).Errorf("Schema left at version %d dirty=%t", version, dirty)
	return err
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_.*\.up\.sql$`)

func latestFileVersion(folder string) (int, error) {
	files, err := os.ReadDir(folder)
	if err != nil {
		return 0, err
	}

	var versions []int
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		matches := migrationFilePattern.FindStringSubmatch(file.Name())
		if len(matches) > 1 {
			version, err := strconv.Atoi(matches[1])
			if err != nil {
				return 0, err
			}
			versions = append(versions, version)
		}
	}

	if len(versions) == 0 {
		return 0, errors.Errorf("no migration files in %s", folder)
	}
	sort.Ints(versions)
	return versions[len(versions)-1], nil
}
