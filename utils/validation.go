package utils

import (
	"fmt"
	"strings"

	"unilms_go/apperrors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs the struct tags of a request body and flattens
// violations into one short message per field.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return apperrors.E(apperrors.KindValidation, "%s", strings.Join(msgs, "; "))
		}
		return apperrors.Wrap(err, apperrors.KindValidation, "invalid request body")
	}
	return nil
}
