// Package fraud turns a transaction entered on the form into a fraud verdict.
package fraud

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"frauddetect/ml"
)

var ErrInvalidTransaction = errors.New("invalid transaction")

// TransactionType is the payment channel of a transaction.
type TransactionType string

const (
	TypePayment  TransactionType = "PAYMENT"
	TypeTransfer TransactionType = "TRANSFER"
	TypeCashOut  TransactionType = "CASH_OUT"
	TypeDebit    TransactionType = "DEBIT"
)

// TransactionTypes lists the types in the order the form offers them.
func TransactionTypes() []TransactionType {
	return []TransactionType{TypePayment, TypeTransfer, TypeCashOut, TypeDebit}
}

// Transaction holds the six raw fields entered by the user.
type Transaction struct {
	Type           TransactionType `json:"type" validate:"required,oneof=PAYMENT TRANSFER CASH_OUT DEBIT"`
	Amount         float64         `json:"amount" validate:"finite,gte=0"`
	OldBalanceOrg  float64         `json:"oldbalanceOrg" validate:"finite,gte=0"`
	NewBalanceOrig float64         `json:"newbalanceOrig" validate:"finite,gte=0"`
	OldBalanceDest float64         `json:"oldbalanceDest" validate:"finite,gte=0"`
	NewBalanceDest float64         `json:"newbalanceDest" validate:"finite,gte=0"`
}

// Record is a transaction plus its derived balance deltas. It is created per
// request and never stored.
type Record struct {
	Transaction
	BalanceDiffOrig float64 `json:"balanceDiffOrig"`
	BalanceDiffDest float64 `json:"balanceDiffDest"`
}

// NewRecord derives the balance deltas from tx.
func NewRecord(tx Transaction) Record {
	return Record{
		Transaction:     tx,
		BalanceDiffOrig: tx.NewBalanceOrig - tx.OldBalanceOrg,
		BalanceDiffDest: tx.NewBalanceDest - tx.OldBalanceDest,
	}
}

// Row exposes the record under the column names the model was trained on.
func (r Record) Row() ml.Row {
	return ml.Row{
		Categorical: map[string]string{
			"type": string(r.Type),
		},
		Numeric: map[string]float64{
			"amount":          r.Amount,
			"oldbalanceOrg":   r.OldBalanceOrg,
			"newbalanceOrig":  r.NewBalanceOrig,
			"oldbalanceDest":  r.OldBalanceDest,
			"newbalanceDest":  r.NewBalanceDest,
			"balanceDiffOrig": r.BalanceDiffOrig,
			"balanceDiffDest": r.BalanceDiffDest,
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// Validate checks the type and the non-negative numeric bounds.
func (t Transaction) Validate() error {
	err := validate.Struct(t)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidTransaction, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "finite":
		return fe.Field() + " must be a finite number"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
