package ml

import (
	"fmt"
	"strings"
)

// Row is one input record before encoding: categorical columns by value and
// numeric columns by name.
type Row struct {
	Categorical map[string]string
	Numeric     map[string]float64
}

type featureSlot struct {
	column   string
	category string
	onehot   bool
}

// Encoder maps a Row onto the vector layout declared by a model's feature
// names. A name of the form "column=VALUE" is a one-hot indicator of a
// categorical column; any other name is read from Row.Numeric.
type Encoder struct {
	slots []featureSlot
}

func NewEncoder(featureNames []string) (*Encoder, error) {
	if len(featureNames) == 0 {
		return nil, fmt.Errorf("%w: no feature names", ErrInvalidModel)
	}
	seen := make(map[string]struct{}, len(featureNames))
	slots := make([]featureSlot, len(featureNames))
	for i, name := range featureNames {
		if name == "" {
			return nil, fmt.Errorf("%w: feature %d has an empty name", ErrInvalidModel, i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate feature %q", ErrInvalidModel, name)
		}
		seen[name] = struct{}{}
		if column, category, ok := strings.Cut(name, "="); ok {
			slots[i] = featureSlot{column: column, category: category, onehot: true}
			continue
		}
		slots[i] = featureSlot{column: name}
	}
	return &Encoder{slots: slots}, nil
}

// Encode builds the model input vector. Unknown category values leave every
// indicator of that column at zero.
func (e *Encoder) Encode(row Row) ([]float64, error) {
	vector := make([]float64, len(e.slots))
	for i, slot := range e.slots {
		if slot.onehot {
			value, ok := row.Categorical[slot.column]
			if !ok {
				return nil, fmt.Errorf("missing categorical column %q", slot.column)
			}
			if value == slot.category {
				vector[i] = 1
			}
			continue
		}
		value, ok := row.Numeric[slot.column]
		if !ok {
			return nil, fmt.Errorf("missing numeric column %q", slot.column)
		}
		vector[i] = value
	}
	return vector, nil
}
