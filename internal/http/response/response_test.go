package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string `validate:"required,email"`
	Role  string `validate:"oneof=user dealer"`
	Name  string `validate:"min=3"`
}

func TestValidationError(t *testing.T) {
	err := validator.New().Struct(sample{Email: "", Role: "admin", Name: "ab"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))

	assert.Equal(t, StatusError, resp.Status)
	require.Len(t, resp.Issues, 3)
	assert.Equal(t, Issue{Path: "Email", Message: "field Email is a required field"}, resp.Issues[0])
	assert.Equal(t, "field Role must be one of [user dealer]", resp.Issues[1].Message)
	assert.Equal(t, "field Name must be at least 3 characters", resp.Issues[2].Message)
	assert.Contains(t, resp.Error, "field Email is a required field, ")
}

func TestStatusOKWithData(t *testing.T) {
	resp := StatusOKWithData(map[string]string{"k": "v"})
	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, map[string]string{"k": "v"}, resp.Data)
}
