package validation

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	FirstName string `json:"first_name" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email"`
	Year      int    `json:"year" validate:"gte=1900,lte=2100"`
}

func TestTranslateUsesJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Struct(samplePayload{Year: 1800})
	require.Error(t, err)

	fields := Translate(err)
	assert.Equal(t, "Pole first_name jest wymagane.", fields["first_name"])
	assert.Equal(t, "Pole email jest wymagane.", fields["email"])
	assert.Equal(t, "Pole year musi być nie mniejsze niż 1900.", fields["year"])
}

func TestTranslateEmailRule(t *testing.T) {
	v := New()
	err := v.Struct(samplePayload{FirstName: "Jan", Email: "not-an-email", Year: 2000})
	require.Error(t, err)

	fields := Translate(err)
	assert.Equal(t, "Pole email musi być poprawnym adresem e-mail.", fields["email"])
	assert.NotContains(t, fields, "first_name")
}

func TestErrorBuildsUnprocessableEntity(t *testing.T) {
	v := New()
	err := v.Struct(samplePayload{Year: 2000})
	require.Error(t, err)

	appErr := Error(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.NotEmpty(t, appErr.Fields)
}

func TestHelperMessages(t *testing.T) {
	assert.Equal(t, "Wartość pola vin jest już zajęta.", Taken("vin"))
	assert.Equal(t, "Wybrana wartość pola sort jest nieprawidłowa.", InvalidChoice("sort"))
}
