package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func baseInput() map[string]any {
	return map[string]any{
		FieldAcquisitionDate:  "2020-01-01",
		FieldAcquisitionPrice: "500000000",
		FieldDisposalDate:     "2024-12-01",
		FieldDisposalPrice:    "1000000000",
	}
}

func TestNewLedgerWrapsRawValuesConfirmed(t *testing.T) {
	l, err := NewLedger(baseInput(), "client")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}

	if l.TransactionID == "" || l.Version != 1 {
		t.Fatalf("id %q version %d", l.TransactionID, l.Version)
	}
	if !l.AcquisitionPrice.IsConfirmed || l.AcquisitionPrice.Confidence != 1.0 {
		t.Fatal("raw value must wrap as confirmed user input")
	}
	if l.AcquisitionPrice.EnteredBy != "client" {
		t.Fatalf("entered_by = %q", l.AcquisitionPrice.EnteredBy)
	}
	if !l.AllConfirmed() {
		t.Fatal("all required fields are confirmed")
	}
}

func TestNewLedgerMissingRequiredField(t *testing.T) {
	in := baseInput()
	delete(in, FieldDisposalPrice)

	_, err := NewLedger(in, "client")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if !reflect.DeepEqual(verr.Fields, []string{FieldDisposalPrice}) {
		t.Fatalf("fields = %v", verr.Fields)
	}
}

func TestNewLedgerRejectsInvertedDates(t *testing.T) {
	in := baseInput()
	in[FieldAcquisitionDate] = "2025-01-01"

	if _, err := NewLedger(in, "client"); err == nil {
		t.Fatal("expected error when disposal precedes acquisition")
	}
}

func TestNewLedgerRejectsNegativeAmount(t *testing.T) {
	in := baseInput()
	in[FieldNecessaryExpenses] = "-1"

	if _, err := NewLedger(in, "client"); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestNewLedgerAcceptsExplicitFact(t *testing.T) {
	in := baseInput()
	in[FieldHouseCount] = NewEstimatedFact(2, 0.7, SourceDocument, "ocr")

	l, err := NewLedger(in, "client")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	if l.HouseCount.IsConfirmed {
		t.Fatal("estimated fact must stay unconfirmed")
	}
	if l.HouseCount.Confidence != 0.7 {
		t.Fatalf("confidence = %v", l.HouseCount.Confidence)
	}
}

func TestFreezeRequiresConfirmation(t *testing.T) {
	in := baseInput()
	in[FieldDisposalPrice] = NewEstimatedFact(decimal.NewFromInt(1_000_000_000), 0.8, SourceAPI, "pricing-feed")

	l, err := NewLedger(in, "client")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}

	err = l.Freeze()
	var merr *MissingConfirmationError
	if !errors.As(err, &merr) {
		t.Fatalf("error = %v, want MissingConfirmationError", err)
	}
	if !reflect.DeepEqual(merr.Fields, []string{FieldDisposalPrice}) {
		t.Fatalf("fields = %v", merr.Fields)
	}

	if err := l.ConfirmField(FieldDisposalPrice, "advisor"); err != nil {
		t.Fatalf("ConfirmField: %v", err)
	}
	if err := l.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if !l.IsFrozen() {
		t.Fatal("ledger not frozen")
	}
	// Idempotent.
	if err := l.Freeze(); err != nil {
		t.Fatalf("second Freeze: %v", err)
	}
}

func TestFrozenLedgerRejectsMutation(t *testing.T) {
	l, err := NewLedger(baseInput(), "client")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	if err := l.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	if err := l.SetField(FieldHouseCount, 2); !errors.Is(err, ErrFrozen) {
		t.Fatalf("SetField error = %v, want ErrFrozen", err)
	}
	if err := l.ConfirmField(FieldAcquisitionPrice, "x"); !errors.Is(err, ErrFrozen) {
		t.Fatalf("ConfirmField error = %v, want ErrFrozen", err)
	}
}

func TestNewVersionUnfreezesCopy(t *testing.T) {
	l, err := NewLedger(baseInput(), "client")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	if err := l.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	v2 := l.NewVersion()
	if v2.Version != 2 || v2.IsFrozen() {
		t.Fatalf("version %d frozen %v", v2.Version, v2.IsFrozen())
	}
	if v2.TransactionID != l.TransactionID {
		t.Fatal("new version must keep the transaction id")
	}
	if err := v2.SetField(FieldHouseCount, 2); err != nil {
		t.Fatalf("SetField on new version: %v", err)
	}
	// Original untouched.
	if l.HouseCount != nil {
		t.Fatal("NewVersion shares fact storage with the original")
	}
}

func TestUnconfirmedFieldsSorted(t *testing.T) {
	in := baseInput()
	in[FieldResidenceYears] = NewEstimatedFact(3, 0.5, SourceDocument, "ocr")
	in[FieldHouseCount] = NewEstimatedFact(1, 0.5, SourceDocument, "ocr")

	l, err := NewLedger(in, "client")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}

	got := l.UnconfirmedFields()
	want := []string{FieldHouseCount, FieldResidenceYears}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("UnconfirmedFields = %v, want %v", got, want)
	}
}

func TestDerivedValues(t *testing.T) {
	in := baseInput()
	in[FieldNecessaryExpenses] = "10000000"
	in[FieldAcquisitionCost] = "5000000"
	in[FieldImprovementCost] = "15000000"

	l, err := NewLedger(in, "client")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}

	if got := l.HoldingYears(); got != 4 {
		t.Fatalf("HoldingYears = %d, want 4", got)
	}
	if got := l.NecessaryExpensesTotal(); !got.Equal(decimal.NewFromInt(30_000_000)) {
		t.Fatalf("NecessaryExpensesTotal = %s", got)
	}
	if got := l.CapitalGain(); !got.Equal(decimal.NewFromInt(470_000_000)) {
		t.Fatalf("CapitalGain = %s", got)
	}
	if got := l.HouseCountValue(); got != 1 {
		t.Fatalf("HouseCountValue default = %d, want 1", got)
	}
	if got := l.CoreConfidence(); got != 1.0 {
		t.Fatalf("CoreConfidence = %v, want 1.0", got)
	}
}

func TestLedgerJSONRoundTrip(t *testing.T) {
	in := baseInput()
	in[FieldHouseCount] = 2
	in[FieldIsAdjustedArea] = true
	in[FieldAssetType] = string(AssetResidential)

	l, err := NewLedger(in, "client")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	if err := l.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	data, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back FactLedger
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.TransactionID != l.TransactionID || back.Version != l.Version {
		t.Fatalf("identity lost: %q v%d", back.TransactionID, back.Version)
	}
	if !back.IsFrozen() {
		t.Fatal("frozen state lost in round trip")
	}
	if !back.DisposalPrice.Value.Equal(l.DisposalPrice.Value) {
		t.Fatalf("disposal price = %s", back.DisposalPrice.Value)
	}
	if back.HouseCount.Value != 2 || !back.IsAdjustedAreaValue() {
		t.Fatal("optional facts lost in round trip")
	}
	wantDate := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if !back.AcquisitionDate.Value.Equal(wantDate) {
		t.Fatalf("acquisition date = %s", back.AcquisitionDate.Value)
	}
}
