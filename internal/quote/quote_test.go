package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	cat, ok := ParseCategory("parcel")
	assert.True(t, ok)
	assert.Equal(t, CategoryParcel, cat)

	cat, ok = ParseCategory("  Transport ")
	assert.True(t, ok)
	assert.Equal(t, CategoryTransport, cat)

	_, ok = ParseCategory("freight")
	assert.False(t, ok)
}

func TestRequestValidate(t *testing.T) {
	valid := Request{OriginZip: "07102", DestZip: "10001", WeightLb: 2.5}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name string
		req  Request
	}{
		{"short origin zip", Request{OriginZip: "0710", DestZip: "10001", WeightLb: 1}},
		{"alpha dest zip", Request{OriginZip: "07102", DestZip: "1000a", WeightLb: 1}},
		{"zero weight", Request{OriginZip: "07102", DestZip: "10001", WeightLb: 0}},
		{"negative weight", Request{OriginZip: "07102", DestZip: "10001", WeightLb: -3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestValidateZipTrimsSpace(t *testing.T) {
	assert.NoError(t, ValidateZip(" 90210 "))
	assert.Error(t, ValidateZip("902101"))
	assert.Error(t, ValidateZip(""))
}
