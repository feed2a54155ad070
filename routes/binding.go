package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// RegisterValidators makes gin's validator engine report JSON field names
// in validation errors. Call once at startup.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

const priceRule = "invalid field price: must be a non-negative amount with at most two decimal places"

// validPrice accepts amounts representable with two fractional digits.
// Validated by hand because validator tags do not reach struct-typed
// fields like decimal.Decimal.
func validPrice(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Exponent() >= -2
}

func bindingErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("invalid field %s: %s", fe.Field(), reasonFor(fe))
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("invalid field %s: wrong type", typeErr.Field)
	}
	return "invalid request body"
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}

// optionalID distinguishes a JSON key that is absent from one explicitly
// set to null; UnmarshalJSON only runs when the key is present.
type optionalID struct {
	Set   bool
	Valid bool
	ID    uint
}

func (o *optionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, &o.ID); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s: must be a positive integer", param)})
		return 0, false
	}
	return uint(id), true
}
