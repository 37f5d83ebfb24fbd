// Package records holds the per-user practice document (visits, equipment,
// fixed expenses and work parameters) and persists it as a single JSON file.
package records

import (
	"encoding/json"

	"github.com/iwvelando/consultorio/pkg/constants"
	"github.com/iwvelando/consultorio/pkg/datetime"
)

// Visit is a billable patient visit ("consulta"). Visits have no id; they
// are addressed by their position in the document.
type Visit struct {
	Date          datetime.Timestamp `json:"fecha"`
	Patient       string             `json:"paciente"`
	Treatment     string             `json:"tratamiento"`
	AmountARS     float64            `json:"monto_ars"`
	AmountUSD     *float64           `json:"monto_usd,omitempty"`
	PaymentMethod string             `json:"medio_pago"`
}

// Equipment is a purchase amortized over its useful life.
type Equipment struct {
	ID           int                `json:"id"`
	Name         string             `json:"nombre"`
	PriceUSD     float64            `json:"monto_compra_usd"`
	LifeYears    int                `json:"años_vida_util"`
	PurchaseDate string             `json:"fecha_compra"`
	Notes        string             `json:"observaciones"`
	Active       bool               `json:"activo"`
	CreatedAt    datetime.Timestamp `json:"fecha_creacion"`
}

// UnmarshalJSON treats a missing "activo" key as active, matching documents
// written before soft deletion existed.
func (e *Equipment) UnmarshalJSON(data []byte) error {
	type plain Equipment
	decoded := plain{Active: true}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*e = Equipment(decoded)
	return nil
}

// FixedExpense is a recurring monthly cost in local currency.
type FixedExpense struct {
	ID            int                `json:"id"`
	Concept       string             `json:"concepto"`
	MonthlyAmount float64            `json:"monto_mensual_ars"`
	Active        bool               `json:"activo"`
	CreatedAt     datetime.Timestamp `json:"fecha_creacion"`
}

// UnmarshalJSON treats a missing "activo" key as active.
func (f *FixedExpense) UnmarshalJSON(data []byte) error {
	type plain FixedExpense
	decoded := plain{Active: true}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*f = FixedExpense(decoded)
	return nil
}

// Settings are the per-user work parameters ("config" in the document).
type Settings struct {
	HourlyCost   float64 `json:"costo_por_hora" yaml:"costo_por_hora"`
	ProfitMargin float64 `json:"margen_ganancia" yaml:"margen_ganancia"`
	ExchangeRate float64 `json:"tipo_cambio_usd_ars" yaml:"tipo_cambio_usd_ars"`
	AnnualHours  float64 `json:"horas_anuales_trabajadas" yaml:"horas_anuales_trabajadas"`
	Region       string  `json:"region,omitempty" yaml:"region,omitempty"`
}

// DefaultSettings returns the built-in work parameters.
func DefaultSettings() Settings {
	return Settings{
		HourlyCost:   constants.DefaultHourlyCost,
		ProfitMargin: constants.DefaultProfitMargin,
		ExchangeRate: constants.DefaultExchangeRate,
		AnnualHours:  constants.DefaultAnnualHours,
	}
}

// Document is everything stored for one user.
type Document struct {
	Visits        []Visit        `json:"consultas"`
	Config        Settings       `json:"config"`
	Equipment     []Equipment    `json:"equipos"`
	FixedExpenses []FixedExpense `json:"gastos_fijos"`
}

// NewDocument returns an empty document using the given settings.
func NewDocument(settings Settings) Document {
	return Document{
		Visits:        []Visit{},
		Config:        settings,
		Equipment:     []Equipment{},
		FixedExpenses: []FixedExpense{},
	}
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := Document{
		Visits:        make([]Visit, len(d.Visits)),
		Config:        d.Config,
		Equipment:     make([]Equipment, len(d.Equipment)),
		FixedExpenses: make([]FixedExpense, len(d.FixedExpenses)),
	}
	copy(out.Visits, d.Visits)
	for i := range out.Visits {
		if usd := out.Visits[i].AmountUSD; usd != nil {
			v := *usd
			out.Visits[i].AmountUSD = &v
		}
	}
	copy(out.Equipment, d.Equipment)
	copy(out.FixedExpenses, d.FixedExpenses)
	return out
}

// ActiveEquipment returns the items that still count toward costs.
func (d Document) ActiveEquipment() []Equipment {
	active := make([]Equipment, 0, len(d.Equipment))
	for _, e := range d.Equipment {
		if e.Active {
			active = append(active, e)
		}
	}
	return active
}

// ActiveFixedExpenses returns the expenses that still count toward costs.
func (d Document) ActiveFixedExpenses() []FixedExpense {
	active := make([]FixedExpense, 0, len(d.FixedExpenses))
	for _, f := range d.FixedExpenses {
		if f.Active {
			active = append(active, f)
		}
	}
	return active
}

func (d *Document) normalize() {
	if d.Visits == nil {
		d.Visits = []Visit{}
	}
	if d.Equipment == nil {
		d.Equipment = []Equipment{}
	}
	if d.FixedExpenses == nil {
		d.FixedExpenses = []FixedExpense{}
	}
}

func (d Document) nextEquipmentID() int {
	next := 1
	for _, e := range d.Equipment {
		if e.ID >= next {
			next = e.ID + 1
		}
	}
	return next
}

func (d Document) nextExpenseID() int {
	next := 1
	for _, f := range d.FixedExpenses {
		if f.ID >= next {
			next = f.ID + 1
		}
	}
	return next
}
