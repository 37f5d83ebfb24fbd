// Package users manages practice accounts stored in a single JSON file keyed
// by username.
package users

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/iwvelando/consultorio/pkg/datetime"
	"github.com/iwvelando/consultorio/pkg/jsonfile"
	"github.com/iwvelando/consultorio/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrWrongPassword = errors.New("wrong password")
	ErrUserExists    = errors.New("username already registered")
	ErrWeakPassword  = errors.New("password too short")
	ErrCorruptUsers  = errors.New("users file is corrupt")
)

// Specialties offered at registration.
var Specialties = []string{"odontologia", "dermatologia", "kinesiologia"}

const (
	DefaultSpecialty = "odontologia"
	DefaultPlan      = "basico"
)

// Profile is one entry of the users file.
type Profile struct {
	PasswordHash string             `json:"password_hash"`
	Name         string             `json:"nombre"`
	Email        string             `json:"email"`
	Specialty    string             `json:"especialidad"`
	Plan         string             `json:"plan"`
	RegisteredAt datetime.Timestamp `json:"fecha_registro"`
}

// Account is the public view of a profile.
type Account struct {
	Username     string             `json:"usuario"`
	Name         string             `json:"nombre"`
	Email        string             `json:"email"`
	Specialty    string             `json:"especialidad"`
	Plan         string             `json:"plan"`
	RegisteredAt datetime.Timestamp `json:"fecha_registro"`
}

// Public drops the password hash.
func (p Profile) Public(username string) Account {
	return Account{
		Username:     username,
		Name:         p.Name,
		Email:        p.Email,
		Specialty:    p.Specialty,
		Plan:         p.Plan,
		RegisteredAt: p.RegisteredAt,
	}
}

// Registration is a sign-up request.
type Registration struct {
	Username  string `json:"usuario"`
	Password  string `json:"password"`
	Name      string `json:"nombre"`
	Email     string `json:"email"`
	Specialty string `json:"especialidad"`
	Plan      string `json:"plan"`
}

// Registry reads and writes the users file. It rereads the file on every
// call so edits made by other processes are picked up.
type Registry struct {
	mu                sync.Mutex
	path              string
	minPasswordLength int
	hashCost          int
	now               func() time.Time
	logger            *zap.Logger
}

// Option customizes a Registry.
type Option func(*Registry)

// WithHashCost sets the bcrypt cost for new hashes.
func WithHashCost(cost int) Option {
	return func(r *Registry) {
		r.hashCost = cost
	}
}

// WithClock overrides the registration time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New creates a registry backed by path.
func New(logger *zap.Logger, path string, minPasswordLength int, opts ...Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		path:              path,
		minPasswordLength: minPasswordLength,
		hashCost:          bcrypt.DefaultCost,
		now:               time.Now,
		logger:            logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the users file location.
func (r *Registry) Path() string {
	return r.path
}

func (r *Registry) load() (map[string]Profile, error) {
	users := make(map[string]Profile)
	err := jsonfile.Read(r.path, &users)
	switch {
	case err == nil:
		return users, nil
	case errors.Is(err, fs.ErrNotExist):
		return make(map[string]Profile), nil
	case errors.Is(err, jsonfile.ErrMalformed):
		return nil, fmt.Errorf("%w: %v", ErrCorruptUsers, err)
	default:
		return nil, err
	}
}

// Get returns the profile for username.
func (r *Registry) Get(username string) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return Profile{}, err
	}
	profile, ok := users[username]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return profile, nil
}

func (r *Registry) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), r.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Register validates and stores a new account.
func (r *Registry) Register(reg Registration) (Profile, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	if err := validation.ValidateUserID(reg.Username); err != nil {
		return Profile{}, err
	}
	if len(reg.Password) < r.minPasswordLength {
		return Profile{}, fmt.Errorf("%w: at least %d characters required", ErrWeakPassword, r.minPasswordLength)
	}
	specialty := strings.ToLower(strings.TrimSpace(reg.Specialty))
	if specialty == "" {
		specialty = DefaultSpecialty
	}
	if !isSpecialty(specialty) {
		return Profile{}, fmt.Errorf("%w: unknown specialty %q", validation.ErrInvalidInput, reg.Specialty)
	}
	plan := strings.TrimSpace(reg.Plan)
	if plan == "" {
		plan = DefaultPlan
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return Profile{}, err
	}
	if _, exists := users[reg.Username]; exists {
		return Profile{}, fmt.Errorf("%w: %s", ErrUserExists, reg.Username)
	}

	hashed, err := r.hash(reg.Password)
	if err != nil {
		return Profile{}, err
	}
	profile := Profile{
		PasswordHash: hashed,
		Name:         strings.TrimSpace(reg.Name),
		Email:        strings.TrimSpace(reg.Email),
		Specialty:    specialty,
		Plan:         plan,
		RegisteredAt: datetime.NewTimestamp(r.now()),
	}
	users[reg.Username] = profile
	if err := jsonfile.Write(r.path, users); err != nil {
		return Profile{}, fmt.Errorf("failed to save users: %w", err)
	}

	r.logger.Info("registered user",
		zap.String("op", "users.Registry.Register"),
		zap.String("user", reg.Username),
		zap.String("specialty", specialty),
	)
	return profile, nil
}

// Remove deletes an account. Removing an unknown account is not an error.
func (r *Registry) Remove(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := users[username]; !ok {
		return nil
	}
	delete(users, username)
	if err := jsonfile.Write(r.path, users); err != nil {
		return fmt.Errorf("failed to save users: %w", err)
	}
	r.logger.Info("removed user",
		zap.String("op", "users.Registry.Remove"),
		zap.String("user", username),
	)
	return nil
}

// Authenticate checks a username and password. Accounts still carrying a
// legacy SHA-256 hash are rehashed with bcrypt after a successful login.
func (r *Registry) Authenticate(username, password string) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return Profile{}, err
	}
	profile, ok := users[username]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	if isLegacyHash(profile.PasswordHash) {
		sum := sha256.Sum256([]byte(password))
		if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(strings.ToLower(profile.PasswordHash))) != 1 {
			return Profile{}, ErrWrongPassword
		}
		if upgraded, err := r.hash(password); err == nil {
			profile.PasswordHash = upgraded
			users[username] = profile
			if err := jsonfile.Write(r.path, users); err != nil {
				r.logger.Warn("failed to upgrade legacy password hash",
					zap.String("op", "users.Registry.Authenticate"),
					zap.String("user", username),
					zap.Error(err),
				)
			} else {
				r.logger.Info("upgraded legacy password hash",
					zap.String("op", "users.Registry.Authenticate"),
					zap.String("user", username),
				)
			}
		}
		return profile, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return Profile{}, ErrWrongPassword
	}
	return profile, nil
}

// SeedAdmin creates the users file with a single administrator account when
// the file does not exist yet. It reports whether the account was created.
func (r *Registry) SeedAdmin(username, password string) (bool, error) {
	if jsonfile.Exists(r.path) {
		return false, nil
	}
	_, err := r.Register(Registration{
		Username:  username,
		Password:  password,
		Name:      "Administrador",
		Specialty: DefaultSpecialty,
		Plan:      "premium",
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func isLegacyHash(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

func isSpecialty(value string) bool {
	for _, s := range Specialties {
		if s == value {
			return true
		}
	}
	return false
}
