package dto

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidators(v)
	return v
}

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := MovementRequest{Currency: "  ngn ", Reference: " ref-001  "}
	SanitizeStruct(&req)

	assert.Equal(t, "ngn", req.Currency)
	assert.Equal(t, "ref-001", req.Reference)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := ConfirmOTPRequest{Reference: "<script>alert('x')</script>"}
	SanitizeStruct(&req)

	assert.Contains(t, req.Reference, "&lt;script&gt;")
	assert.NotContains(t, req.Reference, "<script>")
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	SanitizeStruct("hello") // should not panic
}

// --- Custom Validator tests ---

func TestSafeID(t *testing.T) {
	for _, tc := range []string{"ref-001", "REF_002", "a.b.c", "dep_1700000000_ab12cd34"} {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
	for _, tc := range []string{"ref 001", "ref<001>", "ref;DROP", "", "ref\n001"} {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestMovementRequest_Validation(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name  string
		req   MovementRequest
		valid bool
	}{
		{"valid", MovementRequest{Currency: "NGN", Amount: decimal.RequireFromString("10.5")}, true},
		{"lower case currency", MovementRequest{Currency: "usd", Amount: decimal.NewFromInt(1)}, true},
		{"long currency", MovementRequest{Currency: "NAIRA", Amount: decimal.NewFromInt(1)}, false},
		{"numeric currency", MovementRequest{Currency: "566", Amount: decimal.NewFromInt(1)}, false},
		{"zero amount", MovementRequest{Currency: "NGN"}, false},
		{"negative amount", MovementRequest{Currency: "NGN", Amount: decimal.NewFromInt(-3)}, false},
		{"unsafe reference", MovementRequest{Currency: "NGN", Amount: decimal.NewFromInt(1), Reference: "a b"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestTransferRequest_AmountKeepsPrecision(t *testing.T) {
	var req TransferRequest
	body := `{"recipient_id":"0b9f7a3c-3c1e-4c55-9d7e-5b0f3e8f2a11","source_currency":"NGN","amount":"0.1000000001"}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, "0.1000000001", req.Amount.String())
	assert.NoError(t, newValidator().Struct(req))
}

func TestTransferRequest_NumericAmount(t *testing.T) {
	var req TransferRequest
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 5000.25}`), &req))
	assert.Equal(t, "5000.25", req.Amount.String())
}

func TestConfirmOTPRequest_Validation(t *testing.T) {
	v := newValidator()
	ok := ConfirmOTPRequest{Reference: "dep_1_ab", OTP: "12345", Amount: decimal.NewFromInt(100)}
	assert.NoError(t, v.Struct(ok))

	bad := ok
	bad.OTP = "12a45"
	assert.Error(t, v.Struct(bad))
}
