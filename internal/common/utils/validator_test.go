package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type locationInput struct {
	Latitude  *float64 `validate:"required,latitude"`
	Longitude *float64 `validate:"required,longitude"`
}

func TestValidateStruct(t *testing.T) {
	lat, lng := 52.52, 13.405
	bad := 123.0

	assert.NoError(t, ValidateStruct(locationInput{Latitude: &lat, Longitude: &lng}))

	err := ValidateStruct(locationInput{Longitude: &lng})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "Latitude is required")
	}

	err = ValidateStruct(locationInput{Latitude: &bad, Longitude: &lng})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "Latitude must be a valid latitude")
	}
}
