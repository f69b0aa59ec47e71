package fraud

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestNewRecordDerivesBalanceDiffs(t *testing.T) {
	tx := Transaction{
		Type:           TypeCashOut,
		Amount:         181,
		OldBalanceOrg:  181,
		NewBalanceOrig: 0,
		OldBalanceDest: 21182,
		NewBalanceDest: 0.1,
	}
	record := NewRecord(tx)
	if record.BalanceDiffOrig != tx.NewBalanceOrig-tx.OldBalanceOrg {
		t.Fatalf("unexpected balanceDiffOrig: %v", record.BalanceDiffOrig)
	}
	if record.BalanceDiffDest != tx.NewBalanceDest-tx.OldBalanceDest {
		t.Fatalf("unexpected balanceDiffDest: %v", record.BalanceDiffDest)
	}
	if record.Transaction != tx {
		t.Fatal("raw fields must be carried unchanged")
	}
}

func TestRecordRow(t *testing.T) {
	record := NewRecord(Transaction{Type: TypeTransfer, Amount: 10, OldBalanceOrg: 10, NewBalanceDest: 10})
	row := record.Row()
	if row.Categorical["type"] != "TRANSFER" {
		t.Fatalf("unexpected type column: %v", row.Categorical)
	}
	want := map[string]float64{
		"amount": 10, "oldbalanceOrg": 10, "newbalanceOrig": 0,
		"oldbalanceDest": 0, "newbalanceDest": 10,
		"balanceDiffOrig": -10, "balanceDiffDest": 10,
	}
	if len(row.Numeric) != len(want) {
		t.Fatalf("expected %d numeric columns, got %d", len(want), len(row.Numeric))
	}
	for name, value := range want {
		if row.Numeric[name] != value {
			t.Errorf("%s: expected %v, got %v", name, value, row.Numeric[name])
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{Type: TypeDebit, Amount: 1}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]struct {
		tx   Transaction
		want string
	}{
		"missing type":     {Transaction{}, "type is required"},
		"unknown type":     {Transaction{Type: "CASH_IN"}, "type must be one of"},
		"negative amount":  {Transaction{Type: TypePayment, Amount: -1}, "amount must be >= 0"},
		"negative balance": {Transaction{Type: TypePayment, NewBalanceDest: -0.01}, "newbalanceDest must be >= 0"},
		"nan":              {Transaction{Type: TypePayment, OldBalanceOrg: math.NaN()}, "oldbalanceOrg must be a finite number"},
		"inf":              {Transaction{Type: TypePayment, OldBalanceDest: math.Inf(1)}, "oldbalanceDest must be a finite number"},
	}
	for name, tc := range cases {
		err := tc.tx.Validate()
		if !errors.Is(err, ErrInvalidTransaction) {
			t.Errorf("%s: expected ErrInvalidTransaction, got %v", name, err)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expected %q in %q", name, tc.want, err.Error())
		}
	}
}

func TestTransactionTypesOrder(t *testing.T) {
	got := TransactionTypes()
	want := []TransactionType{TypePayment, TypeTransfer, TypeCashOut, TypeDebit}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestPresets(t *testing.T) {
	tx, err := LookupPreset(PresetFraud)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Type != TypeTransfer || tx.Amount != 2000000 || tx.OldBalanceOrg != 2000000 {
		t.Fatalf("unexpected fraud preset: %+v", tx)
	}
	tx, err = LookupPreset(PresetLegit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Type != TypePayment || tx.Amount != 500 || tx.NewBalanceDest != 500 {
		t.Fatalf("unexpected legit preset: %+v", tx)
	}
	if _, err := LookupPreset("nope"); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
	for _, p := range Presets() {
		if err := p.Transaction.Validate(); err != nil {
			t.Fatalf("preset %s invalid: %v", p.Name, err)
		}
	}
}
