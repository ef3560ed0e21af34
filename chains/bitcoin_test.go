package chains

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

const btcTreasury = "bc1qtreasury0000000000000000000000000000000"

func esploraServer(t *testing.T, confirmed bool, vouts ...[2]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := fmt.Sprintf(`{"txid":"ab","status":{"confirmed":%v},"vout":[`, confirmed)
		for i, out := range vouts {
			if i > 0 {
				body += ","
			}
			body += fmt.Sprintf(`{"scriptpubkey_address":%q,"value":%d}`, out[0], out[1])
		}
		body += "]}"
		fmt.Fprint(w, body)
	}))
}

func TestBitcoinVerifySumsMatchingOutputs(t *testing.T) {
	// Two outputs pay the treasury, one pays change. 0.006 BTC total.
	srv := esploraServer(t, true,
		[2]any{btcTreasury, 500_000},
		[2]any{"bc1qchange000000000000000000000000000000000", 200_000},
		[2]any{btcTreasury, 100_000},
	)
	defer srv.Close()

	adapter := NewBitcoinAdapter([]string{srv.URL})
	ok, err := adapter.Verify(context.Background(), "ab", btcTreasury,
		decimal.RequireFromString("0.0059"), decimal.RequireFromString("0.0061"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected summed outputs to verify")
	}
}

func TestBitcoinVerifyRejectsUnconfirmed(t *testing.T) {
	srv := esploraServer(t, false, [2]any{btcTreasury, 500_000})
	defer srv.Close()

	adapter := NewBitcoinAdapter([]string{srv.URL})
	ok, err := adapter.Verify(context.Background(), "ab", btcTreasury,
		decimal.RequireFromString("0.004"), decimal.RequireFromString("0.006"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("unconfirmed transaction must not verify")
	}
}

func TestBitcoinVerifyRejectsOutOfBand(t *testing.T) {
	srv := esploraServer(t, true, [2]any{btcTreasury, 100_000})
	defer srv.Close()

	adapter := NewBitcoinAdapter([]string{srv.URL})
	ok, err := adapter.Verify(context.Background(), "ab", btcTreasury,
		decimal.RequireFromString("0.0099"), decimal.RequireFromString("0.0101"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("0.001 BTC must not satisfy a 0.01 BTC expectation")
	}
}

func TestBitcoinVerifyFailsOverToNextEndpoint(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	good := esploraServer(t, true, [2]any{btcTreasury, 500_000})
	defer good.Close()

	adapter := NewBitcoinAdapter([]string{broken.URL, good.URL})
	ok, err := adapter.Verify(context.Background(), "ab", btcTreasury,
		decimal.RequireFromString("0.0049"), decimal.RequireFromString("0.0051"))
	if err != nil {
		t.Fatalf("expected failover to second endpoint, got %v", err)
	}
	if !ok {
		t.Fatal("expected verification through the healthy endpoint")
	}
}

func TestBitcoinVerifyErrorsWhenAllEndpointsFail(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json at all")
	}))
	defer broken.Close()

	adapter := NewBitcoinAdapter([]string{broken.URL})
	_, err := adapter.Verify(context.Background(), "ab", btcTreasury,
		decimal.RequireFromString("0.004"), decimal.RequireFromString("0.006"))
	if err == nil {
		t.Fatal("expected an error when every endpoint fails")
	}
}

func TestBitcoinAddressesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "bech32 case-insensitive", a: "bc1qABC", b: "bc1qabc", want: true},
		{name: "legacy exact", a: "1BoatSLRHtKNngkdXEeobR76b53LETtpyT", b: "1BoatSLRHtKNngkdXEeobR76b53LETtpyT", want: true},
		{name: "legacy case-sensitive", a: "1BoatSLRHtKNngkdXEeobR76b53LETtpyT", b: "1boatslrhtknngkdxeeobr76b53lettpyt", want: false},
		{name: "different addresses", a: "bc1qabc", b: "bc1qdef", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bitcoinAddressesEqual(tt.a, tt.b); got != tt.want {
				t.Fatalf("bitcoinAddressesEqual(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
