package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/blockremit/billpay/types"
)

func TestPurchaseSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/bills/pay" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization header = %q", got)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req["category"] != "airtime" || req["amount"] != "1000" || req["currency"] != "NGN" {
			t.Errorf("unexpected request payload: %v", req)
		}
		fmt.Fprint(w, `{"status":"success","reference":"prov-42","code":"TXN_SUCCESS","data":{"token":"1234"}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	result, err := client.Purchase(context.Background(), types.CategoryAirtime,
		map[string]string{"phone_number": "08031234567"}, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Reference != "prov-42" {
		t.Fatalf("reference = %q", result.Reference)
	}
	if result.Raw["token"] != "1234" {
		t.Fatalf("raw data not carried through: %v", result.Raw)
	}
}

func TestPurchaseRejectionMapsReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"status":"failed","code":"INSUFFICIENT_BALANCE","message":"raw provider text"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	result, err := client.Purchase(context.Background(), types.CategoryData,
		map[string]string{}, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("provider rejection is a result, not an error: %v", err)
	}
	if result.Success {
		t.Fatal("expected rejection")
	}
	if result.Reason != "provider wallet depleted" {
		t.Fatalf("reason = %q, want the mapped taxonomy entry", result.Reason)
	}
	if result.StatusCode != "INSUFFICIENT_BALANCE" {
		t.Fatalf("status code = %q", result.StatusCode)
	}
}

func TestPurchaseUnknownCodeFallsBackToMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"failed","code":"WEIRD_NEW_CODE","message":"something odd"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	result, err := client.Purchase(context.Background(), types.CategoryAirtime,
		map[string]string{}, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("status failed must not be success even on HTTP 200")
	}
	if result.Reason != "something odd" {
		t.Fatalf("reason = %q", result.Reason)
	}
}

func TestPurchaseMalformedPayloadIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>gateway error</html>")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	if _, err := client.Purchase(context.Background(), types.CategoryAirtime,
		map[string]string{}, decimal.NewFromInt(500)); err == nil {
		t.Fatal("expected error on undecodable payload")
	}
}
