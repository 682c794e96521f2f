package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type contact struct {
	Email string `json:"email" validate:"required,email"`
}

type request struct {
	Name     string  `json:"name" validate:"required"`
	Code     string  `json:"code,omitempty" validate:"omitempty,len=3"`
	Customer contact `json:"customer"`
}

func TestValidator_Check(t *testing.T) {
	v := New()

	errs := v.Check(request{Code: "NG", Customer: contact{Email: "nope"}})
	assert.False(t, errs.Valid())
	assert.Equal(t, []string{"code", "customer.email", "name"}, errs.Fields())
	assert.Equal(t, "required", errs["name"])
	assert.Equal(t, "len", errs["code"])

	assert.True(t, v.Check(request{Name: "x", Customer: contact{Email: "a@b.co"}}).Valid())
}
