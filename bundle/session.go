package bundle

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/nativeboot/atexit"
	"github.com/wippyai/nativeboot/errors"
)

// DirPrefix prefixes every extraction directory name.
const DirPrefix = "nativeboot-"

// Session is the on-disk staging area for one initialization attempt.
type Session struct {
	cleanup *atexit.Registry
	logger  *zap.Logger
	id      string
	dir     string
}

// NewSession creates a uniquely named temporary directory and schedules it for
// removal at exit.
func NewSession(cleanup *atexit.Registry, logger *zap.Logger) (*Session, error) {
	if cleanup == nil {
		cleanup = atexit.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	id := uuid.NewString()
	dir, err := os.MkdirTemp("", DirPrefix)
	if err != nil {
		return nil, errors.ExtractionFailed("", os.TempDir(), "could not create temp directory for native libraries", err)
	}
	if err := cleanup.Register(dir); err != nil {
		return nil, errors.ExtractionFailed("", dir, "cannot schedule directory removal on exit", err)
	}

	logger.Debug("extraction session created", zap.String("session", id), zap.String("dir", dir))

	return &Session{
		cleanup: cleanup,
		logger:  logger.With(zap.String("session", id)),
		id:      id,
		dir:     dir,
	}, nil
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// Dir returns the extraction directory
func (s *Session) Dir() string { return s.dir }

// Path returns the location of name inside the session
func (s *Session) Path(name string) string { return filepath.Join(s.dir, name) }
