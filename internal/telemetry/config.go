package telemetry

import "codeberg.org/arlen/sensorctl/internal/errors"

const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644
	defaultDBPath   = "/var/lib/sensorctl/telemetry.db"
)

// Sync status values stored alongside each telemetry row.
const (
	SyncSent   = 0
	SyncFailed = 1
)

type Config struct {
	DBPath string
}

func DefaultConfig() Config {
	return Config{
		DBPath: defaultDBPath,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()
	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	return nil
}
