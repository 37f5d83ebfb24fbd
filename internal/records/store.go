package records

import (
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
)

var (
	// ErrCorruptDocument is returned when a stored document exists but cannot be decoded.
	ErrCorruptDocument = errors.New("record document is corrupt")
	// ErrNotFound is returned when no equipment or expense has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrIndexOutOfRange is returned when a visit position does not exist.
	ErrIndexOutOfRange = errors.New("visit index out of range")
)

// Store owns one user's document. Every mutation rewrites the whole file;
// a failed write leaves the in-memory document unchanged.
type Store struct {
	mu       sync.Mutex
	path     string
	defaults Settings
	logger   *zap.Logger
	now      func() time.Time
	doc      Document
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for new records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open loads the document at path. A missing file yields an empty document
// with the default settings; a file that cannot be decoded is reported as
// ErrCorruptDocument and left untouched.
func Open(logger *zap.Logger, path string, defaults Settings, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		path:     path,
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory document with the file contents.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := NewDocument(s.defaults)
	err := jsonfile.Read(s.path, &doc)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Debug("no document yet, using defaults",
			zap.String("op", "records.Store.Load"),
			zap.String("path", s.path),
		)
		doc = NewDocument(s.defaults)
	case errors.Is(err, jsonfile.ErrMalformed):
		return fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	default:
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	doc.normalize()
	s.doc = doc
	return nil
}

// Save writes the current document.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(s.doc)
}

func (s *Store) write(doc Document) error {
	doc.normalize()
	if err := jsonfile.Write(s.path, doc); err != nil {
		s.logger.Error("failed to save document",
			zap.String("op", "records.Store.Save"),
			zap.String("path", s.path),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// mutate applies fn to a copy of the document and commits it once saved.
func (s *Store) mutate(op string, fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.doc.Clone()
	if err := fn(&working); err != nil {
		return err
	}
	if err := s.write(working); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.doc = working
	s.logger.Debug("document saved",
		zap.String("op", op),
		zap.Int("visits", len(working.Visits)),
		zap.Int("equipment", len(working.Equipment)),
		zap.Int("fixedExpenses", len(working.FixedExpenses)),
	)
	return nil
}

// Snapshot returns a deep copy of the document.
func (s *Store) Snapshot() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Settings returns the current work parameters.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Config
}

func (s *Store) prepareVisit(v Visit) (Visit, error) {
	v.Patient = strings.TrimSpace(v.Patient)
	v.Treatment = strings.TrimSpace(v.Treatment)
	v.PaymentMethod = strings.TrimSpace(v.PaymentMethod)
	if err := validation.ValidateVisit(v.Patient, v.Treatment, v.AmountARS); err != nil {
		return v, err
	}
	if v.AmountUSD != nil && *v.AmountUSD < 0 {
		return v, fmt.Errorf("%w: USD amount must not be negative", validation.ErrInvalidInput)
	}
	if v.Date.IsZero() {
		v.Date = datetime.NewTimestamp(s.now())
	}
	v.Date = datetime.NewTimestamp(v.Date.In(time.Local))
	return v, nil
}

// AddVisit appends a visit, stamping the current time when none is given.
func (s *Store) AddVisit(v Visit) (Visit, error) {
	prepared, err := s.prepareVisit(v)
	if err != nil {
		return Visit{}, err
	}
	err = s.mutate("records.Store.AddVisit", func(doc *Document) error {
		doc.Visits = append(doc.Visits, prepared)
		return nil
	})
	if err != nil {
		return Visit{}, err
	}
	return prepared, nil
}

// AddVisits appends a batch of visits with a single save. Nothing is added
// if any visit is invalid.
func (s *Store) AddVisits(visits []Visit) (int, error) {
	prepared := make([]Visit, 0, len(visits))
	for i, v := range visits {
		p, err := s.prepareVisit(v)
		if err != nil {
			return 0, fmt.Errorf("visit %d: %w", i+1, err)
		}
		prepared = append(prepared, p)
	}
	if len(prepared) == 0 {
		return 0, nil
	}
	err := s.mutate("records.Store.AddVisits", func(doc *Document) error {
		doc.Visits = append(doc.Visits, prepared...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(prepared), nil
}

// UpdateVisit replaces the visit at index.
func (s *Store) UpdateVisit(index int, v Visit) (Visit, error) {
	prepared, err := s.prepareVisit(v)
	if err != nil {
		return Visit{}, err
	}
	err = s.mutate("records.Store.UpdateVisit", func(doc *Document) error {
		if index < 0 || index >= len(doc.Visits) {
			return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(doc.Visits))
		}
		doc.Visits[index] = prepared
		return nil
	})
	if err != nil {
		return Visit{}, err
	}
	return prepared, nil
}

// DeleteVisit removes the visit at index; later visits shift down by one.
func (s *Store) DeleteVisit(index int) error {
	return s.mutate("records.Store.DeleteVisit", func(doc *Document) error {
		if index < 0 || index >= len(doc.Visits) {
			return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(doc.Visits))
		}
		doc.Visits = append(doc.Visits[:index], doc.Visits[index+1:]...)
		return nil
	})
}

// DeleteAllVisits clears the visit list and returns how many were removed.
func (s *Store) DeleteAllVisits() (int, error) {
	var removed int
	err := s.mutate("records.Store.DeleteAllVisits", func(doc *Document) error {
		removed = len(doc.Visits)
		doc.Visits = []Visit{}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// AddEquipment validates and appends an active equipment item with the next free id.
func (s *Store) AddEquipment(e Equipment) (Equipment, error) {
	e.Name = strings.TrimSpace(e.Name)
	if err := validation.ValidateEquipment(e.Name, e.PriceUSD, e.LifeYears); err != nil {
		return Equipment{}, err
	}
	e.Active = true
	e.CreatedAt = datetime.NewTimestamp(s.now())
	if e.PurchaseDate == "" {
		e.PurchaseDate = datetime.StartOfDay(s.now()).Format("2006-01-02")
	}

	err := s.mutate("records.Store.AddEquipment", func(doc *Document) error {
		e.ID = doc.nextEquipmentID()
		doc.Equipment = append(doc.Equipment, e)
		return nil
	})
	if err != nil {
		return Equipment{}, err
	}
	return e, nil
}

// DeleteEquipment removes the equipment item with id.
func (s *Store) DeleteEquipment(id int) error {
	return s.mutate("records.Store.DeleteEquipment", func(doc *Document) error {
		for i, e := range doc.Equipment {
			if e.ID == id {
				doc.Equipment = append(doc.Equipment[:i], doc.Equipment[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: equipment %d", ErrNotFound, id)
	})
}

// SetEquipmentActive soft-deletes or restores an equipment item.
func (s *Store) SetEquipmentActive(id int, active bool) error {
	return s.mutate("records.Store.SetEquipmentActive", func(doc *Document) error {
		for i := range doc.Equipment {
			if doc.Equipment[i].ID == id {
				doc.Equipment[i].Active = active
				return nil
			}
		}
		return fmt.Errorf("%w: equipment %d", ErrNotFound, id)
	})
}

// AddFixedExpense validates and appends an active monthly expense with the next free id.
func (s *Store) AddFixedExpense(f FixedExpense) (FixedExpense, error) {
	f.Concept = strings.TrimSpace(f.Concept)
	if err := validation.ValidateFixedExpense(f.Concept, f.MonthlyAmount); err != nil {
		return FixedExpense{}, err
	}
	f.Active = true
	f.CreatedAt = datetime.NewTimestamp(s.now())

	err := s.mutate("records.Store.AddFixedExpense", func(doc *Document) error {
		f.ID = doc.nextExpenseID()
		doc.FixedExpenses = append(doc.FixedExpenses, f)
		return nil
	})
	if err != nil {
		return FixedExpense{}, err
	}
	return f, nil
}

// DeleteFixedExpense removes the expense with id.
func (s *Store) DeleteFixedExpense(id int) error {
	return s.mutate("records.Store.DeleteFixedExpense", func(doc *Document) error {
		for i, f := range doc.FixedExpenses {
			if f.ID == id {
				doc.FixedExpenses = append(doc.FixedExpenses[:i], doc.FixedExpenses[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: fixed expense %d", ErrNotFound, id)
	})
}

// SetFixedExpenseActive soft-deletes or restores an expense.
func (s *Store) SetFixedExpenseActive(id int, active bool) error {
	return s.mutate("records.Store.SetFixedExpenseActive", func(doc *Document) error {
		for i := range doc.FixedExpenses {
			if doc.FixedExpenses[i].ID == id {
				doc.FixedExpenses[i].Active = active
				return nil
			}
		}
		return fmt.Errorf("%w: fixed expense %d", ErrNotFound, id)
	})
}

// UpdateSettings replaces the work parameters.
func (s *Store) UpdateSettings(settings Settings) error {
	if err := validation.ValidateSettings(settings.HourlyCost, settings.ProfitMargin, settings.ExchangeRate, settings.AnnualHours); err != nil {
		return err
	}
	return s.mutate("records.Store.UpdateSettings", func(doc *Document) error {
		doc.Config = settings
		return nil
	})
}
