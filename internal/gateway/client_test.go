package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	apperrors "sitepay/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, SecretKey: "FLWSECK_TEST-123"}, nil, zap.NewNop())
}

func TestClient_ResolveAccount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/accounts/resolve", r.URL.Path)
		assert.Equal(t, "Bearer FLWSECK_TEST-123", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"account_number": "0690000031", "account_bank": "044"}, body)

		_, _ = w.Write([]byte(`{"status":"success","message":"Account details fetched","data":{"account_number":"0690000031","account_name":"Ada Obi"}}`))
	})

	got, err := client.ResolveAccount(context.Background(), ResolveAccountRequest{AccountNumber: "0690000031", AccountBank: "044"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", got.AccountName)
}

func TestClient_CreateSubAccount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/subaccounts", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "percentage", body["split_type"])
		assert.Equal(t, 0.035, body["split_value"])
		assert.Equal(t, "044", body["account_bank"])

		_, _ = w.Write([]byte(`{"status":"success","data":{"id":2181,"subaccount_id":"RS_A8EB7D4D9C66C0B1C75014EE67D4D663","full_name":"Ada Obi"}}`))
	})

	got, err := client.CreateSubAccount(context.Background(), SubAccountRequest{
		AccountBank: "044", AccountNumber: "0690000031", BusinessName: "Ada Cakes",
		BusinessEmail: "ada@example.com", Country: "NG", SplitType: ChargePercentage, SplitValue: 0.035,
	})
	require.NoError(t, err)
	assert.Equal(t, "RS_A8EB7D4D9C66C0B1C75014EE67D4D663", got.SubaccountID)
}

func TestClient_InitiatePayment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/payments", r.URL.Path)

		var body PaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SP-abc", body.TxRef)
		assert.Equal(t, 10000.0, body.Amount)
		require.Len(t, body.Subaccounts, 1)
		assert.Equal(t, ChargeFlat, body.Subaccounts[0].TransactionChargeType)

		_, _ = w.Write([]byte(`{"status":"success","message":"Hosted Link","data":{"link":"https://checkout.example/pay/xyz"}}`))
	})

	got, err := client.InitiatePayment(context.Background(), PaymentRequest{
		TxRef: "SP-abc", Amount: 10000, Currency: "NGN",
		Customer:    Customer{Email: "buyer@example.com"},
		Subaccounts: []SubaccountSplit{{ID: "RS_1", TransactionChargeType: ChargeFlat}},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/pay/xyz", got.Link)
}

func TestClient_ListBanks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v3/banks/NG", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","data":[{"id":1,"code":"044","name":"Access Bank"}]}`))
	})

	banks, err := client.ListBanks(context.Background(), "NG")
	require.NoError(t, err)
	assert.Equal(t, []Bank{{ID: 1, Code: "044", Name: "Access Bank"}}, banks)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"provider message kept", http.StatusBadRequest, `{"status":"error","message":"Sorry, recipient account could not be validated"}`, "Sorry, recipient account could not be validated"},
		{"error status on 200", http.StatusOK, `{"status":"error","message":"Invalid bank code"}`, "Invalid bank code"},
		{"no body", http.StatusBadGateway, ``, "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.ResolveAccount(context.Background(), ResolveAccountRequest{AccountNumber: "1", AccountBank: "2"})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrGateway)
			de, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, de.Message)
		})
	}
}

func TestClient_NoRetryAndBreakerOpens(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := client.ListBanks(context.Background(), "NG")
		require.Error(t, err)
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls), "each failure is a single request")

	_, err := client.ListBanks(context.Background(), "NG")
	de, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "payment gateway temporarily unavailable", de.Message)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls), "open breaker fails fast")
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","message":"invalid account"}`))
	})

	for i := 0; i < 8; i++ {
		_, err := client.ResolveAccount(context.Background(), ResolveAccountRequest{})
		de, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, "invalid account", de.Message)
	}
}
