package records

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/iwvelando/consultorio/pkg/jsonfile"
	"github.com/iwvelando/consultorio/pkg/validation"
	"go.uber.org/zap"
)

// Registry hands out one Store per user, laid out as
// <dataDir>/<userID>/<documentName>.
type Registry struct {
	mu           sync.Mutex
	dataDir      string
	documentName string
	defaults     Settings
	logger       *zap.Logger
	opts         []Option
	stores       map[string]*Store
	reserved     map[string]bool
}

// NewRegistry creates a registry rooted at dataDir.
func NewRegistry(logger *zap.Logger, dataDir, documentName string, defaults Settings, opts ...Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		dataDir:      dataDir,
		documentName: documentName,
		defaults:     defaults,
		logger:       logger,
		opts:         opts,
		stores:       make(map[string]*Store),
		reserved:     make(map[string]bool),
	}
}

// Reserve keeps user ids from claiming the entry of the data directory that
// path lives under, such as the users file when it sits beside the user
// directories. Paths outside the data directory are ignored.
func (r *Registry) Reserve(path string) {
	rel, err := filepath.Rel(r.dataDir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return
	}
	name := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]

	r.mu.Lock()
	defer r.mu.Unlock()
	r.reserved[name] = true
}

// DocumentPath returns where userID's document lives.
func (r *Registry) DocumentPath(userID string) (string, error) {
	if err := validation.ValidateUserID(userID); err != nil {
		return "", err
	}
	r.mu.Lock()
	reserved := r.reserved[userID]
	r.mu.Unlock()
	if reserved {
		return "", fmt.Errorf("%w: user id %q is reserved", validation.ErrInvalidInput, userID)
	}
	return filepath.Join(r.dataDir, userID, r.documentName), nil
}

// Get returns the cached store for userID, opening it on first use.
func (r *Registry) Get(userID string) (*Store, error) {
	path, err := r.DocumentPath(userID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.stores[userID]; ok {
		return store, nil
	}
	store, err := Open(r.logger.With(zap.String("user", userID)), path, r.defaults, r.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open records for %s: %w", userID, err)
	}
	r.stores[userID] = store
	return store, nil
}

// Create makes sure userID has a document on disk, writing an empty one
// with the default settings when none exists.
func (r *Registry) Create(userID string) (*Store, error) {
	store, err := r.Get(userID)
	if err != nil {
		return nil, err
	}
	if jsonfile.Exists(store.Path()) {
		return store, nil
	}
	if err := store.Save(); err != nil {
		return nil, fmt.Errorf("failed to create records for %s: %w", userID, err)
	}
	r.logger.Info("created user document",
		zap.String("op", "records.Registry.Create"),
		zap.String("user", userID),
		zap.String("path", store.Path()),
	)
	return store, nil
}

// Evict drops the cached store so the next Get rereads the file.
func (r *Registry) Evict(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, userID)
}
