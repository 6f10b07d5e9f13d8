package handlers

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/irfndi/coinlens-go/internal/utils"
)

var registerOnce sync.Once

// RegisterValidators adds the coinid rule to gin's binding validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("coinid", validateCoinID)
		}
	})
}

func validateCoinID(fl validator.FieldLevel) bool {
	return utils.ValidCoinID(utils.NormalizeCoinID(fl.Field().String()))
}

// bindingMessage turns a binding failure into a client-safe message.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "coinid":
			return "Invalid coin id"
		case "required", "min":
			if fe.Field() == "Coins" {
				return "coins must be a non-empty array"
			}
			return fe.Field() + " is required"
		}
		return "Invalid " + fe.Field()
	}
	return "Invalid request body"
}
