package fraud

import (
	"errors"
	"fmt"
)

var ErrUnknownPreset = errors.New("unknown preset")

// Preset is an example transaction the form can load with one click.
type Preset struct {
	Name        string      `json:"name"`
	Label       string      `json:"label"`
	Transaction Transaction `json:"transaction"`
}

const (
	PresetFraud = "fraud"
	PresetLegit = "legit"
)

func Presets() []Preset {
	return []Preset{
		{
			Name:  PresetFraud,
			Label: "Load Fraud Example",
			Transaction: Transaction{
				Type:           TypeTransfer,
				Amount:         2000000,
				OldBalanceOrg:  2000000,
				NewBalanceOrig: 0,
				OldBalanceDest: 0,
				NewBalanceDest: 0,
			},
		},
		{
			Name:  PresetLegit,
			Label: "Load Legit Example",
			Transaction: Transaction{
				Type:           TypePayment,
				Amount:         500,
				OldBalanceOrg:  500,
				NewBalanceOrig: 0,
				OldBalanceDest: 0,
				NewBalanceDest: 500,
			},
		},
	}
}

func LookupPreset(name string) (Transaction, error) {
	for _, p := range Presets() {
		if p.Name == name {
			return p.Transaction, nil
		}
	}
	return Transaction{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// DefaultTransaction is what the form shows before any input.
func DefaultTransaction() Transaction {
	return Transaction{Type: TypePayment}
}
