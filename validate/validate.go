// Package validate wraps struct validation behind a single Check call
// and centralizes ID generation so every entity carries the same kind
// of identifier.
package validate

import (
	"errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
)

var (
	check      *validator.Validate
	translator ut.Translator
)

func init() {
	check = validator.New()

	// Translated messages are what ends up in API error bodies, so they
	// must read as plain English rather than tag names.
	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	en_translations.RegisterDefaultTranslations(check, translator)
}

// Check validates val against its struct tags. It reports only the
// first violation: the caller fixes one field at a time anyway.
func Check(val any) error {
	err := check.Struct(val)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	return errors.New(verrs[0].Translate(translator))
}

// GenerateID returns a new unique identifier.
func GenerateID() string {
	return uuid.NewString()
}

// CheckID rejects identifiers that could not have come from GenerateID.
func CheckID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("ID is not in its proper form")
	}
	return nil
}
