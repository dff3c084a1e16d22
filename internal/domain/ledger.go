package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetType classifies the disposed asset for short-term rate selection.
type AssetType string

const (
	AssetResidential    AssetType = "residential"
	AssetNonResidential AssetType = "non_residential"
)

// OwnerType distinguishes individual from corporate disposals.
type OwnerType string

const (
	OwnerIndividual OwnerType = "individual"
	OwnerCorporate  OwnerType = "corporate"
)

// AcquisitionType records how the asset was acquired.
type AcquisitionType string

const (
	AcquisitionPurchase    AcquisitionType = "purchase"
	AcquisitionInheritance AcquisitionType = "inheritance"
	AcquisitionGift        AcquisitionType = "gift"
)

// Ledger field names. These are the keys of the external input contract.
const (
	FieldAcquisitionDate   = "acquisition_date"
	FieldAcquisitionPrice  = "acquisition_price"
	FieldDisposalDate      = "disposal_date"
	FieldDisposalPrice     = "disposal_price"
	FieldNecessaryExpenses = "necessary_expenses"
	FieldAcquisitionCost   = "acquisition_cost"
	FieldDisposalCost      = "disposal_cost"
	FieldImprovementCost   = "improvement_cost"
	FieldHouseCount        = "house_count"
	FieldResidenceYears    = "residence_period_years"
	FieldIsAdjustedArea    = "is_adjusted_area"
	FieldAssetType         = "asset_type"
	FieldOwnerType         = "owner_type"
	FieldAcquisitionType   = "acquisition_type"
)

// RequiredFields are the fields that must be present and confirmed before a
// ledger can be frozen.
var RequiredFields = []string{
	FieldAcquisitionDate,
	FieldAcquisitionPrice,
	FieldDisposalDate,
	FieldDisposalPrice,
}

// allFields in lexical order, for deterministic iteration.
var allFields = []string{
	FieldAcquisitionCost,
	FieldAcquisitionDate,
	FieldAcquisitionPrice,
	FieldAcquisitionType,
	FieldAssetType,
	FieldDisposalCost,
	FieldDisposalDate,
	FieldDisposalPrice,
	FieldHouseCount,
	FieldImprovementCost,
	FieldIsAdjustedArea,
	FieldNecessaryExpenses,
	FieldOwnerType,
	FieldResidenceYears,
}

// FactLedger aggregates the facts describing one disposal transaction.
//
// Lifecycle: Draft (fields being set/edited) → AllConfirmed (every required
// field confirmed) → Frozen (terminal). Mutations are rejected once frozen;
// NewVersion produces an editable copy with the version bumped.
//
// Raw (non-Fact) values supplied to NewLedger or SetField are wrapped as
// confirmed user input with confidence 1.0: a programmatic caller passing a
// bare value asserts it. Estimated values must be supplied as explicit Facts.
type FactLedger struct {
	TransactionID string
	Version       int
	CreatedBy     string
	CreatedAt     time.Time

	AcquisitionDate  *Fact[time.Time]
	AcquisitionPrice *Fact[decimal.Decimal]
	DisposalDate     *Fact[time.Time]
	DisposalPrice    *Fact[decimal.Decimal]

	NecessaryExpenses *Fact[decimal.Decimal]
	AcquisitionCost   *Fact[decimal.Decimal]
	DisposalCost      *Fact[decimal.Decimal]
	ImprovementCost   *Fact[decimal.Decimal]

	HouseCount      *Fact[int]
	ResidenceYears  *Fact[int]
	IsAdjustedArea  *Fact[bool]
	AssetType       *Fact[AssetType]
	OwnerType       *Fact[OwnerType]
	AcquisitionType *Fact[AcquisitionType]

	frozen bool
}

// NewLedger builds a draft ledger from the external input contract: a map of
// field name to either a raw value or an explicit Fact. Returns a
// ValidationError when a required field is absent or a value is malformed.
func NewLedger(input map[string]any, createdBy string) (*FactLedger, error) {
	l := &FactLedger{
		TransactionID: uuid.NewString(),
		Version:       1,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now().UTC(),
	}

	// Deterministic application order.
	names := make([]string, 0, len(input))
	for name := range input {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := l.SetField(name, input[name]); err != nil {
			return nil, err
		}
	}

	var missing []string
	for _, name := range RequiredFields {
		if present, _ := l.fieldState(name); !present {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &ValidationError{Fields: missing, Reason: "required field missing"}
	}

	if err := l.validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// validate checks cross-field consistency of whatever is present.
func (l *FactLedger) validate() error {
	if l.AcquisitionDate != nil && l.DisposalDate != nil &&
		l.DisposalDate.Value.Before(l.AcquisitionDate.Value) {
		return &ValidationError{
			Fields: []string{FieldAcquisitionDate, FieldDisposalDate},
			Reason: "disposal date precedes acquisition date",
		}
	}
	for name, f := range map[string]*Fact[decimal.Decimal]{
		FieldAcquisitionPrice:  l.AcquisitionPrice,
		FieldDisposalPrice:     l.DisposalPrice,
		FieldNecessaryExpenses: l.NecessaryExpenses,
		FieldAcquisitionCost:   l.AcquisitionCost,
		FieldDisposalCost:      l.DisposalCost,
		FieldImprovementCost:   l.ImprovementCost,
	} {
		if f != nil && f.Value.IsNegative() {
			return &ValidationError{Fields: []string{name}, Reason: "amount must not be negative"}
		}
	}
	if l.HouseCount != nil && l.HouseCount.Value < 0 {
		return &ValidationError{Fields: []string{FieldHouseCount}, Reason: "house count must not be negative"}
	}
	if l.ResidenceYears != nil && l.ResidenceYears.Value < 0 {
		return &ValidationError{Fields: []string{FieldResidenceYears}, Reason: "residence period must not be negative"}
	}
	return nil
}

// SetField sets one field from a raw value or an explicit Fact.
// Legal only before Freeze; returns ErrFrozen afterwards.
func (l *FactLedger) SetField(name string, value any) error {
	if l.frozen {
		return ErrFrozen
	}

	switch name {
	case FieldAcquisitionDate:
		return assign(&l.AcquisitionDate, name, value, l.CreatedBy, coerceDate)
	case FieldDisposalDate:
		return assign(&l.DisposalDate, name, value, l.CreatedBy, coerceDate)
	case FieldAcquisitionPrice:
		return assign(&l.AcquisitionPrice, name, value, l.CreatedBy, coerceDecimal)
	case FieldDisposalPrice:
		return assign(&l.DisposalPrice, name, value, l.CreatedBy, coerceDecimal)
	case FieldNecessaryExpenses:
		return assign(&l.NecessaryExpenses, name, value, l.CreatedBy, coerceDecimal)
	case FieldAcquisitionCost:
		return assign(&l.AcquisitionCost, name, value, l.CreatedBy, coerceDecimal)
	case FieldDisposalCost:
		return assign(&l.DisposalCost, name, value, l.CreatedBy, coerceDecimal)
	case FieldImprovementCost:
		return assign(&l.ImprovementCost, name, value, l.CreatedBy, coerceDecimal)
	case FieldHouseCount:
		return assign(&l.HouseCount, name, value, l.CreatedBy, coerceInt)
	case FieldResidenceYears:
		return assign(&l.ResidenceYears, name, value, l.CreatedBy, coerceInt)
	case FieldIsAdjustedArea:
		return assign(&l.IsAdjustedArea, name, value, l.CreatedBy, coerceBool)
	case FieldAssetType:
		return assign(&l.AssetType, name, value, l.CreatedBy, coerceEnum[AssetType])
	case FieldOwnerType:
		return assign(&l.OwnerType, name, value, l.CreatedBy, coerceEnum[OwnerType])
	case FieldAcquisitionType:
		return assign(&l.AcquisitionType, name, value, l.CreatedBy, coerceEnum[AcquisitionType])
	default:
		return &ValidationError{Fields: []string{name}, Reason: "unknown field"}
	}
}

// ConfirmField marks a present field as confirmed.
func (l *FactLedger) ConfirmField(name, confirmedBy string) error {
	if l.frozen {
		return ErrFrozen
	}
	switch name {
	case FieldAcquisitionDate:
		return confirm(l.AcquisitionDate, name, confirmedBy)
	case FieldDisposalDate:
		return confirm(l.DisposalDate, name, confirmedBy)
	case FieldAcquisitionPrice:
		return confirm(l.AcquisitionPrice, name, confirmedBy)
	case FieldDisposalPrice:
		return confirm(l.DisposalPrice, name, confirmedBy)
	case FieldNecessaryExpenses:
		return confirm(l.NecessaryExpenses, name, confirmedBy)
	case FieldAcquisitionCost:
		return confirm(l.AcquisitionCost, name, confirmedBy)
	case FieldDisposalCost:
		return confirm(l.DisposalCost, name, confirmedBy)
	case FieldImprovementCost:
		return confirm(l.ImprovementCost, name, confirmedBy)
	case FieldHouseCount:
		return confirm(l.HouseCount, name, confirmedBy)
	case FieldResidenceYears:
		return confirm(l.ResidenceYears, name, confirmedBy)
	case FieldIsAdjustedArea:
		return confirm(l.IsAdjustedArea, name, confirmedBy)
	case FieldAssetType:
		return confirm(l.AssetType, name, confirmedBy)
	case FieldOwnerType:
		return confirm(l.OwnerType, name, confirmedBy)
	case FieldAcquisitionType:
		return confirm(l.AcquisitionType, name, confirmedBy)
	default:
		return &ValidationError{Fields: []string{name}, Reason: "unknown field"}
	}
}

// fieldState reports presence and confirmation of a field.
func (l *FactLedger) fieldState(name string) (present, confirmed bool) {
	switch name {
	case FieldAcquisitionDate:
		return state(l.AcquisitionDate)
	case FieldDisposalDate:
		return state(l.DisposalDate)
	case FieldAcquisitionPrice:
		return state(l.AcquisitionPrice)
	case FieldDisposalPrice:
		return state(l.DisposalPrice)
	case FieldNecessaryExpenses:
		return state(l.NecessaryExpenses)
	case FieldAcquisitionCost:
		return state(l.AcquisitionCost)
	case FieldDisposalCost:
		return state(l.DisposalCost)
	case FieldImprovementCost:
		return state(l.ImprovementCost)
	case FieldHouseCount:
		return state(l.HouseCount)
	case FieldResidenceYears:
		return state(l.ResidenceYears)
	case FieldIsAdjustedArea:
		return state(l.IsAdjustedArea)
	case FieldAssetType:
		return state(l.AssetType)
	case FieldOwnerType:
		return state(l.OwnerType)
	case FieldAcquisitionType:
		return state(l.AcquisitionType)
	}
	return false, false
}

// FieldConfirmed reports whether a field is both present and confirmed.
func (l *FactLedger) FieldConfirmed(name string) bool {
	present, confirmed := l.fieldState(name)
	return present && confirmed
}

// FieldPresent reports whether a field is set.
func (l *FactLedger) FieldPresent(name string) bool {
	present, _ := l.fieldState(name)
	return present
}

// UnconfirmedFields returns, lexically sorted, every present-but-unconfirmed
// field plus every absent required field.
func (l *FactLedger) UnconfirmedFields() []string {
	var out []string
	for _, name := range allFields {
		present, confirmed := l.fieldState(name)
		if present && !confirmed {
			out = append(out, name)
		}
	}
	for _, name := range RequiredFields {
		if present, _ := l.fieldState(name); !present {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// AllConfirmed reports whether every required field is present and confirmed.
func (l *FactLedger) AllConfirmed() bool {
	for _, name := range RequiredFields {
		present, confirmed := l.fieldState(name)
		if !present || !confirmed {
			return false
		}
	}
	return true
}

// Freeze moves the ledger to its terminal state. Fails with
// MissingConfirmationError naming every unconfirmed or absent required field.
// Freezing an already-frozen ledger is a no-op.
func (l *FactLedger) Freeze() error {
	if l.frozen {
		return nil
	}
	var bad []string
	for _, name := range RequiredFields {
		present, confirmed := l.fieldState(name)
		if !present || !confirmed {
			bad = append(bad, name)
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return &MissingConfirmationError{Fields: bad}
	}
	l.frozen = true
	return nil
}

// IsFrozen reports whether the ledger has been frozen.
func (l *FactLedger) IsFrozen() bool { return l.frozen }

// NewVersion returns an editable deep copy with the version incremented.
// This is the only way to "edit" a frozen ledger.
func (l *FactLedger) NewVersion() *FactLedger {
	out := l.Clone()
	out.Version = l.Version + 1
	out.frozen = false
	return out
}

// Clone returns a deep copy preserving the frozen state.
func (l *FactLedger) Clone() *FactLedger {
	out := *l
	out.AcquisitionDate = copyFact(l.AcquisitionDate)
	out.AcquisitionPrice = copyFact(l.AcquisitionPrice)
	out.DisposalDate = copyFact(l.DisposalDate)
	out.DisposalPrice = copyFact(l.DisposalPrice)
	out.NecessaryExpenses = copyFact(l.NecessaryExpenses)
	out.AcquisitionCost = copyFact(l.AcquisitionCost)
	out.DisposalCost = copyFact(l.DisposalCost)
	out.ImprovementCost = copyFact(l.ImprovementCost)
	out.HouseCount = copyFact(l.HouseCount)
	out.ResidenceYears = copyFact(l.ResidenceYears)
	out.IsAdjustedArea = copyFact(l.IsAdjustedArea)
	out.AssetType = copyFact(l.AssetType)
	out.OwnerType = copyFact(l.OwnerType)
	out.AcquisitionType = copyFact(l.AcquisitionType)
	return &out
}

// Derived values.

// HoldingYears is the whole number of years between acquisition and disposal.
func (l *FactLedger) HoldingYears() int {
	if l.AcquisitionDate == nil || l.DisposalDate == nil {
		return 0
	}
	days := int(l.DisposalDate.Value.Sub(l.AcquisitionDate.Value).Hours() / 24)
	return days / 365
}

// ResidenceYearsValue returns the residence period, 0 when absent.
func (l *FactLedger) ResidenceYearsValue() int {
	if l.ResidenceYears == nil {
		return 0
	}
	return l.ResidenceYears.Value
}

// HouseCountValue returns the house count, defaulting to 1.
func (l *FactLedger) HouseCountValue() int {
	if l.HouseCount == nil {
		return 1
	}
	return l.HouseCount.Value
}

// IsAdjustedAreaValue reports whether the property sits in a regulated area.
func (l *FactLedger) IsAdjustedAreaValue() bool {
	return l.IsAdjustedArea != nil && l.IsAdjustedArea.Value
}

// AssetTypeValue returns the asset type, defaulting to residential.
func (l *FactLedger) AssetTypeValue() AssetType {
	if l.AssetType == nil {
		return AssetResidential
	}
	return l.AssetType.Value
}

// NecessaryExpensesTotal sums the single expense bucket and the itemized
// acquisition/disposal/improvement costs.
func (l *FactLedger) NecessaryExpensesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, f := range []*Fact[decimal.Decimal]{
		l.NecessaryExpenses, l.AcquisitionCost, l.DisposalCost, l.ImprovementCost,
	} {
		if f != nil {
			total = total.Add(f.Value)
		}
	}
	return total
}

// CapitalGain is disposal price minus acquisition price minus expenses.
func (l *FactLedger) CapitalGain() decimal.Decimal {
	if l.DisposalPrice == nil || l.AcquisitionPrice == nil {
		return decimal.Zero
	}
	return l.DisposalPrice.Value.
		Sub(l.AcquisitionPrice.Value).
		Sub(l.NecessaryExpensesTotal())
}

// CoreConfidence is the mean confidence of the four required facts.
func (l *FactLedger) CoreConfidence() float64 {
	facts := []float64{}
	if l.AcquisitionDate != nil {
		facts = append(facts, l.AcquisitionDate.Confidence)
	}
	if l.AcquisitionPrice != nil {
		facts = append(facts, l.AcquisitionPrice.Confidence)
	}
	if l.DisposalDate != nil {
		facts = append(facts, l.DisposalDate.Confidence)
	}
	if l.DisposalPrice != nil {
		facts = append(facts, l.DisposalPrice.Confidence)
	}
	if len(facts) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, c := range facts {
		sum += c
	}
	return sum / float64(len(facts))
}

// JSON serialization for persistence. The frozen flag travels with the
// payload so a stored ledger round-trips its lifecycle state.

type ledgerJSON struct {
	TransactionID string    `json:"transaction_id"`
	Version       int       `json:"version"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	Frozen        bool      `json:"is_frozen"`

	AcquisitionDate  *Fact[time.Time]       `json:"acquisition_date,omitempty"`
	AcquisitionPrice *Fact[decimal.Decimal] `json:"acquisition_price,omitempty"`
	DisposalDate     *Fact[time.Time]       `json:"disposal_date,omitempty"`
	DisposalPrice    *Fact[decimal.Decimal] `json:"disposal_price,omitempty"`

	NecessaryExpenses *Fact[decimal.Decimal] `json:"necessary_expenses,omitempty"`
	AcquisitionCost   *Fact[decimal.Decimal] `json:"acquisition_cost,omitempty"`
	DisposalCost      *Fact[decimal.Decimal] `json:"disposal_cost,omitempty"`
	ImprovementCost   *Fact[decimal.Decimal] `json:"improvement_cost,omitempty"`

	HouseCount      *Fact[int]             `json:"house_count,omitempty"`
	ResidenceYears  *Fact[int]             `json:"residence_period_years,omitempty"`
	IsAdjustedArea  *Fact[bool]            `json:"is_adjusted_area,omitempty"`
	AssetType       *Fact[AssetType]       `json:"asset_type,omitempty"`
	OwnerType       *Fact[OwnerType]       `json:"owner_type,omitempty"`
	AcquisitionType *Fact[AcquisitionType] `json:"acquisition_type,omitempty"`
}

func (l *FactLedger) MarshalJSON() ([]byte, error) {
	return json.Marshal(ledgerJSON{
		TransactionID:     l.TransactionID,
		Version:           l.Version,
		CreatedBy:         l.CreatedBy,
		CreatedAt:         l.CreatedAt,
		Frozen:            l.frozen,
		AcquisitionDate:   l.AcquisitionDate,
		AcquisitionPrice:  l.AcquisitionPrice,
		DisposalDate:      l.DisposalDate,
		DisposalPrice:     l.DisposalPrice,
		NecessaryExpenses: l.NecessaryExpenses,
		AcquisitionCost:   l.AcquisitionCost,
		DisposalCost:      l.DisposalCost,
		ImprovementCost:   l.ImprovementCost,
		HouseCount:        l.HouseCount,
		ResidenceYears:    l.ResidenceYears,
		IsAdjustedArea:    l.IsAdjustedArea,
		AssetType:         l.AssetType,
		OwnerType:         l.OwnerType,
		AcquisitionType:   l.AcquisitionType,
	})
}

func (l *FactLedger) UnmarshalJSON(data []byte) error {
	var raw ledgerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = FactLedger{
		TransactionID:     raw.TransactionID,
		Version:           raw.Version,
		CreatedBy:         raw.CreatedBy,
		CreatedAt:         raw.CreatedAt,
		frozen:            raw.Frozen,
		AcquisitionDate:   raw.AcquisitionDate,
		AcquisitionPrice:  raw.AcquisitionPrice,
		DisposalDate:      raw.DisposalDate,
		DisposalPrice:     raw.DisposalPrice,
		NecessaryExpenses: raw.NecessaryExpenses,
		AcquisitionCost:   raw.AcquisitionCost,
		DisposalCost:      raw.DisposalCost,
		ImprovementCost:   raw.ImprovementCost,
		HouseCount:        raw.HouseCount,
		ResidenceYears:    raw.ResidenceYears,
		IsAdjustedArea:    raw.IsAdjustedArea,
		AssetType:         raw.AssetType,
		OwnerType:         raw.OwnerType,
		AcquisitionType:   raw.AcquisitionType,
	}
	return nil
}

// helpers

func state[T any](f *Fact[T]) (present, confirmed bool) {
	if f == nil {
		return false, false
	}
	return true, f.IsConfirmed
}

func copyFact[T any](f *Fact[T]) *Fact[T] {
	if f == nil {
		return nil
	}
	out := *f
	return &out
}

// assign stores a raw value or explicit Fact into the target field pointer.
func assign[T any](target **Fact[T], name string, value any, createdBy string, coerce func(any) (T, error)) error {
	if f, ok := value.(Fact[T]); ok {
		if err := f.Validate(); err != nil {
			return &ValidationError{Fields: []string{name}, Reason: err.Error()}
		}
		*target = &f
		return nil
	}
	if f, ok := value.(*Fact[T]); ok && f != nil {
		if err := f.Validate(); err != nil {
			return &ValidationError{Fields: []string{name}, Reason: err.Error()}
		}
		cp := *f
		*target = &cp
		return nil
	}
	v, err := coerce(value)
	if err != nil {
		return &ValidationError{Fields: []string{name}, Reason: err.Error()}
	}
	f := NewConfirmedFact(v, createdBy)
	*target = &f
	return nil
}

func confirm[T any](f *Fact[T], name, confirmedBy string) error {
	if f == nil {
		return &ValidationError{Fields: []string{name}, Reason: "field not set"}
	}
	*f = f.Confirm(confirmedBy, "")
	return nil
}

func coerceDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", v)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unsupported date value %T", value)
}

func coerceDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid amount %q", v)
		}
		return d, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid amount %q", v.String())
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("unsupported amount value %T", value)
}

func coerceInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", v.String())
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("unsupported integer value %T", value)
}

func coerceBool(value any) (bool, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return false, fmt.Errorf("unsupported boolean value %T", value)
}

func coerceEnum[T ~string](value any) (T, error) {
	switch v := value.(type) {
	case T:
		return v, nil
	case string:
		return T(v), nil
	}
	var zero T
	return zero, fmt.Errorf("unsupported enum value %T", value)
}
