// Package validator provides the custom validation tags shared by Gin's
// binding engine and the service layer.
package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"expensetracker/internal/currency"
	"expensetracker/internal/models"
)

var (
	standalone *validator.Validate
	once       sync.Once
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerAll(v)
	}
}

// Get returns a validator using the `validate` struct tag, with the same
// custom tags as the Gin engine. Field names in errors are the json names.
func Get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		registerAll(v)
		standalone = v
	})
	return standalone
}

// FieldMessages converts validation errors into user-facing messages keyed by
// field name. messages is consulted for "field.tag" first, then "field";
// anything unmapped keeps the validator's own message.
func FieldMessages(err error, messages map[string]string) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		if msg, ok := messages[field+"."+fe.Tag()]; ok {
			out[field] = msg
		} else if msg, ok := messages[field]; ok {
			out[field] = msg
		} else {
			out[field] = fe.Error()
		}
	}
	return out
}

func registerAll(v *validator.Validate) {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("amount", validateAmount)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("iso_date", validateISODate)
	_ = v.RegisterValidation("supported_currency", validateSupportedCurrency)
	_ = v.RegisterValidation("theme", validateTheme)
}

// decimalValue validates decimals through their exact string form.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

// validateAmount accepts positive amounts that fit the stored precision
// exactly, so what is kept in memory matches what was persisted.
func validateAmount(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return d.IsPositive() &&
		d.Equal(d.Truncate(models.AmountScale)) &&
		d.LessThan(models.MaxAmount)
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch models.TransactionType(fl.Field().String()) {
	case models.TransactionTypeIncome, models.TransactionTypeExpense:
		return true
	}
	return false
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(models.DateLayout, fl.Field().String())
	return err == nil
}

func validateSupportedCurrency(fl validator.FieldLevel) bool {
	return currency.IsSupported(fl.Field().String())
}

func validateTheme(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case models.ThemeLight, models.ThemeDark:
		return true
	}
	return false
}
