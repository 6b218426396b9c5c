package template

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the template-level fields. Individual elements are checked
// separately with CheckElement so one bad element never rejects a whole template.
func Validate(t *Template) error {
	if t == nil {
		return fmt.Errorf("%w: template is required", ErrInvalid)
	}

	// Elements carry no dive tag, so only the element count is checked here.
	err := validatorInstance().Struct(t)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	return nil
}

// CheckElement validates one element's type and ranges.
func CheckElement(e Element) error {
	err := validatorInstance().Struct(e)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	if e.Width <= 0 || (e.Height <= 0 && e.Type != TypeLine) {
		return fmt.Errorf("%w: element has no area (%gx%g)", ErrInvalid, e.Width, e.Height)
	}
	return nil
}

func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
