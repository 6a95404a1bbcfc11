package validate

import (
	"testing"

	"cafeorders/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=1"`
}

type req struct {
	Items  []line           `json:"items" validate:"dive"`
	Price  *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Mobile string           `json:"mobile" validate:"required,mobile"`
}

func TestStructNamesNestedField(t *testing.T) {
	err := Struct(req{Mobile: "9000000001", Items: []line{{ProductID: 1, Quantity: 1}, {ProductID: 2}}})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "items[1].quantity", ve.Field)
	assert.Equal(t, "must be greater than or equal to 1", ve.Message)
}

func TestStructDecimalBounds(t *testing.T) {
	neg := decimal.NewFromInt(-2)
	err := Struct(req{Mobile: "9000000001", Price: &neg})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "price", ve.Field)

	ok := decimal.RequireFromString("0")
	assert.NoError(t, Struct(req{Mobile: "9000000001", Price: &ok}))
}

func TestStructCustomTags(t *testing.T) {
	err := Struct(req{Mobile: "12ab"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "mobile", ve.Field)
	assert.Equal(t, "must be 10 to 15 digits", ve.Message)

	type otpReq struct {
		OTP string `json:"otp" validate:"required,otp"`
	}
	assert.NoError(t, Struct(otpReq{OTP: "012345"}))
	err = Struct(otpReq{OTP: "12345"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "otp", ve.Field)
	assert.Equal(t, "must be 6 digits", ve.Message)
}

func TestHelpers(t *testing.T) {
	id, ok := ID(" 42 ")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)
	_, ok = ID("0")
	assert.False(t, ok)
	_, ok = ID("abc")
	assert.False(t, ok)

	assert.True(t, Password("Latte#2026"))
	assert.False(t, Password("latte2026"))
}
