package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/compozy/releasesync/internal/domain"
	json "github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// RecordSchemaVersion defines the current schema version for run record files
	RecordSchemaVersion = "1.0.0"
	// RecordFilePermissions defines the permissions for run record files
	RecordFilePermissions = 0600
	// RecordDirPermissions defines the permissions for the run record directory
	RecordDirPermissions = 0700
	// LockTimeout defines the maximum time to wait for a lock
	LockTimeout = 30 * time.Second
	// LockRetryInterval defines the interval between lock retry attempts
	LockRetryInterval = 100 * time.Millisecond
)

var (
	// ErrRunRecordNotFound is returned when no record exists for the requested run.
	ErrRunRecordNotFound = errors.New("run record not found")
	errLockBusy          = errors.New("lock is held by another process")
)

// RunRecordRepository persists the journal of update-release-branch runs.
type RunRecordRepository interface {
	Save(ctx context.Context, record *domain.RunRecord) error
	Load(ctx context.Context, runID string) (*domain.RunRecord, error)
	LoadLatest(ctx context.Context) (*domain.RunRecord, error)
}

// RecordMetadata contains metadata about the record file
type RecordMetadata struct {
	SchemaVersion string    `json:"schema_version"`
	Checksum      string    `json:"checksum"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RecordWrapper wraps the record with metadata
type RecordWrapper struct {
	Metadata RecordMetadata    `json:"metadata"`
	Record   *domain.RunRecord `json:"record"`
}

// JSONRunRecordRepository implements RunRecordRepository using JSON files guarded by
// file locks. Locks live on the OS filesystem, so fs must be backed by it.
type JSONRunRecordRepository struct {
	fs       afero.Fs
	stateDir string
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewJSONRunRecordRepository creates a new JSON-based run record repository
func NewJSONRunRecordRepository(fs afero.Fs, stateDir string, logger *zap.Logger) RunRecordRepository {
	if stateDir == "" {
		stateDir = ".release-sync"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONRunRecordRepository{
		fs:       fs,
		stateDir: stateDir,
		logger:   logger,
	}
}

// Save persists the record to a JSON file with proper locking
func (r *JSONRunRecordRepository) Save(ctx context.Context, record *domain.RunRecord) error {
	if err := r.fs.MkdirAll(r.stateDir, RecordDirPermissions); err != nil {
		return fmt.Errorf("failed to ensure state directory: %w", err)
	}
	filename := r.getRecordFilename(record.RunID)
	lock := flock.New(r.getLockFilename(record.RunID))
	if err := r.acquire(ctx, lock, false); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer r.release(lock)
	wrapper := RecordWrapper{
		Metadata: RecordMetadata{
			SchemaVersion: RecordSchemaVersion,
			CreatedAt:     record.StartedAt,
			UpdatedAt:     time.Now(),
		},
		Record: record,
	}
	recordData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record for checksum: %w", err)
	}
	wrapper.Metadata.Checksum = r.calculateChecksum(recordData)
	data, err := json.MarshalIndent(wrapper, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record wrapper: %w", err)
	}
	// Write atomically using temp file
	tempFile := filename + ".tmp"
	if err := afero.WriteFile(r.fs, tempFile, data, RecordFilePermissions); err != nil {
		return fmt.Errorf("failed to write temp record file: %w", err)
	}
	if err := r.fs.Rename(tempFile, filename); err != nil {
		if removeErr := r.fs.Remove(tempFile); removeErr != nil {
			r.logger.Warn("failed to remove temp file", zap.String("path", tempFile), zap.Error(removeErr))
		}
		return fmt.Errorf("failed to rename record file: %w", err)
	}
	if err := r.updateLatestLink(filename); err != nil {
		return fmt.Errorf("failed to update latest link: %w", err)
	}
	return nil
}

// Load retrieves a run record by id and verifies its checksum
func (r *JSONRunRecordRepository) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	filename := r.getRecordFilename(runID)
	if exists, err := afero.Exists(r.fs, filename); err != nil {
		return nil, fmt.Errorf("failed to check record file: %w", err)
	} else if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRunRecordNotFound, runID)
	}
	lock := flock.New(r.getLockFilename(runID))
	if err := r.acquire(ctx, lock, true); err != nil {
		return nil, fmt.Errorf("failed to acquire shared lock: %w", err)
	}
	defer r.release(lock)
	data, err := afero.ReadFile(r.fs, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}
	var wrapper RecordWrapper
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record wrapper: %w", err)
	}
	if wrapper.Metadata.SchemaVersion != RecordSchemaVersion {
		return nil, fmt.Errorf("incompatible schema version: expected %s, got %s",
			RecordSchemaVersion, wrapper.Metadata.SchemaVersion)
	}
	recordData, err := json.Marshal(wrapper.Record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record for checksum validation: %w", err)
	}
	if wrapper.Metadata.Checksum != r.calculateChecksum(recordData) {
		return nil, fmt.Errorf("record checksum mismatch: data may be corrupted")
	}
	return wrapper.Record, nil
}

// LoadLatest retrieves the most recently saved record
func (r *JSONRunRecordRepository) LoadLatest(ctx context.Context) (*domain.RunRecord, error) {
	r.mu.RLock()
	data, err := afero.ReadFile(r.fs, r.getLatestLink())
	r.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no runs recorded yet", ErrRunRecordNotFound)
		}
		return nil, fmt.Errorf("failed to read latest link: %w", err)
	}
	runID := r.extractRunID(string(data))
	if runID == "" {
		return nil, fmt.Errorf("invalid latest link target: %s", string(data))
	}
	return r.Load(ctx, runID)
}

// acquire polls the lock at a constant interval until LockTimeout.
func (r *JSONRunRecordRepository) acquire(ctx context.Context, lock *flock.Flock, shared bool) error {
	backoff := retry.WithMaxDuration(LockTimeout, retry.NewConstant(LockRetryInterval))
	return retry.Do(ctx, backoff, func(_ context.Context) error {
		var locked bool
		var err error
		if shared {
			locked, err = lock.TryRLock()
		} else {
			locked, err = lock.TryLock()
		}
		if err != nil {
			return err
		}
		if !locked {
			return retry.RetryableError(errLockBusy)
		}
		return nil
	})
}

func (r *JSONRunRecordRepository) release(lock *flock.Flock) {
	if err := lock.Unlock(); err != nil {
		r.logger.Warn("failed to unlock file", zap.String("path", lock.Path()), zap.Error(err))
	}
}

// calculateChecksum calculates SHA-256 checksum of data
func (r *JSONRunRecordRepository) calculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func (r *JSONRunRecordRepository) getRecordFilename(runID string) string {
	return filepath.Join(r.stateDir, fmt.Sprintf("run-%s.json", runID))
}

func (r *JSONRunRecordRepository) getLockFilename(runID string) string {
	return filepath.Join(r.stateDir, fmt.Sprintf(".run-%s.lock", runID))
}

func (r *JSONRunRecordRepository) getLatestLink() string {
	return filepath.Join(r.stateDir, "latest.txt")
}

// updateLatestLink updates the link pointing to the latest record
func (r *JSONRunRecordRepository) updateLatestLink(target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	link := r.getLatestLink()
	tempLink := link + ".tmp"
	if err := afero.WriteFile(r.fs, tempLink, []byte(target), RecordFilePermissions); err != nil {
		return fmt.Errorf("failed to write temp latest link: %w", err)
	}
	if err := r.fs.Rename(tempLink, link); err != nil {
		if removeErr := r.fs.Remove(tempLink); removeErr != nil {
			r.logger.Warn("failed to remove temp link", zap.String("path", tempLink), zap.Error(removeErr))
		}
		return fmt.Errorf("failed to update latest link: %w", err)
	}
	return nil
}

// extractRunID extracts the run id from a record filename
func (r *JSONRunRecordRepository) extractRunID(filename string) string {
	base := filepath.Base(filename)
	if len(base) > 9 && base[:4] == "run-" && base[len(base)-5:] == ".json" {
		return base[4 : len(base)-5]
	}
	return ""
}
