package ml

import (
	"reflect"
	"testing"
)

func TestEncoderEncode(t *testing.T) {
	encoder, err := NewEncoder(testFeatureNames)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := Row{
		Categorical: map[string]string{"type": "TRANSFER"},
		Numeric: map[string]float64{
			"amount": 10, "oldbalanceOrg": 20, "newbalanceOrig": 10,
			"oldbalanceDest": 0, "newbalanceDest": 10,
			"balanceDiffOrig": -10, "balanceDiffDest": 10,
		},
	}
	got, err := encoder.Encode(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{10, 20, 10, 0, 10, -10, 10, 0, 0, 0, 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEncoderUnknownCategoryIsAllZero(t *testing.T) {
	encoder, err := NewEncoder([]string{"type=PAYMENT", "type=TRANSFER"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := encoder.Encode(Row{Categorical: map[string]string{"type": "CASH_IN"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []float64{0, 0}) {
		t.Fatalf("expected zeros, got %v", got)
	}
}

func TestEncoderMissingColumns(t *testing.T) {
	encoder, err := NewEncoder([]string{"amount", "type=PAYMENT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := encoder.Encode(Row{Categorical: map[string]string{"type": "PAYMENT"}}); err == nil {
		t.Fatal("expected error for missing numeric column")
	}
	if _, err := encoder.Encode(Row{Numeric: map[string]float64{"amount": 1}}); err == nil {
		t.Fatal("expected error for missing categorical column")
	}
}
