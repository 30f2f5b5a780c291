package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginResponseAcceptsRolAlias(t *testing.T) {
	var resp LoginResponse
	require.NoError(t, json.Unmarshal([]byte(`{"access_token":"t","email":"a@b.c","name":"Ana","rol":"ADMIN"}`), &resp))
	assert.Equal(t, RoleAdmin, resp.Role)
	assert.Equal(t, "t", resp.AccessToken)
}

func TestUserProfileID(t *testing.T) {
	tests := []struct {
		name string
		body string
		want FlexibleID
	}{
		{"number", `{"id":7,"role":"cashier"}`, 7},
		{"numeric string", `{"id":"12","role":"cashier"}`, 12},
		{"garbage", `{"id":"abc","role":"cashier"}`, 0},
		{"negative", `{"id":-3,"role":"cashier"}`, 0},
		{"missing", `{"role":"cashier"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p UserProfile
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))
			assert.Equal(t, tt.want, p.ID)
			assert.Equal(t, RoleCashier, p.Role)
		})
	}
}

func TestParseSaleResponseEnvelope(t *testing.T) {
	body := `{"sale":{"id":41,"subtotal":"100","tax":"19","total":"119","paymentMethod":"Cash"},
		"receipt":{"id":3,"number":"B-0003","saleId":41,"total":"119"}}`

	result := ParseSaleResponse([]byte(body))

	require.NotNil(t, result.Sale)
	require.NotNil(t, result.Receipt)
	assert.Equal(t, int64(41), result.Sale.ID)
	assert.True(t, decimal.NewFromInt(19).Equal(result.Sale.Tax))
	assert.Equal(t, "B-0003", result.Receipt.Number)
}

func TestParseSaleResponseFlat(t *testing.T) {
	result := ParseSaleResponse([]byte(`{"id":9,"number":"B-9","total":50}`))

	require.NotNil(t, result.Sale)
	require.NotNil(t, result.Receipt)
	assert.Equal(t, int64(9), result.Sale.ID)
	assert.Equal(t, "B-9", result.Receipt.Number)
}

func TestParseSaleResponseGarbage(t *testing.T) {
	assert.Equal(t, SaleResult{}, ParseSaleResponse(nil))
	assert.Equal(t, SaleResult{}, ParseSaleResponse([]byte("not json")))

	result := ParseSaleResponse([]byte(`{"sale":null,"receipt":{"number":"R1"}}`))
	assert.Nil(t, result.Sale)
	require.NotNil(t, result.Receipt)
	assert.Equal(t, "R1", result.Receipt.Number)
}

func TestCartLineSubtotal(t *testing.T) {
	line := CartLine{UnitPrice: decimal.RequireFromString("2.50"), Quantity: 3}
	assert.Equal(t, "7.5", line.Subtotal().String())
}

func TestProductActiveFlag(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		active bool
	}{
		{"missing flag", `{"id":1,"name":"Gamer Mouse","price":15990,"stock":5}`, true},
		{"explicit true", `{"id":1,"active":true}`, true},
		{"explicit false", `{"id":1,"active":false}`, false},
		{"null", `{"id":1,"active":null}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Product
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))
			assert.Equal(t, int64(1), p.ID)
			assert.Equal(t, tt.active, p.Active)
		})
	}
}
