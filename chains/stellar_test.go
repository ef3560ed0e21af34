package chains

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const xlmTreasury = "GBTREASURYAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func horizonServer(t *testing.T, successful bool, payments string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/payments") {
			fmt.Fprintf(w, `{"_embedded":{"records":[%s]}}`, payments)
			return
		}
		fmt.Fprintf(w, `{"hash":"aa","successful":%v}`, successful)
	}))
}

func TestStellarVerifySumsNativePayments(t *testing.T) {
	payments := fmt.Sprintf(
		`{"type":"payment","asset_type":"native","to":%q,"amount":"40.0000000"},
		 {"type":"payment","asset_type":"native","to":"GBELSEWHERE","amount":"5.0000000"},
		 {"type":"create_account","account":%q,"starting_balance":"10.0000000"}`,
		xlmTreasury, xlmTreasury)
	srv := horizonServer(t, true, payments)
	defer srv.Close()

	adapter := NewStellarAdapter([]string{srv.URL})
	ok, err := adapter.Verify(context.Background(), "aa", xlmTreasury,
		decimal.RequireFromString("49.5"), decimal.RequireFromString("50.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected payment plus account creation to sum to 50 XLM")
	}
}

func TestStellarVerifyIgnoresNonNativeAssets(t *testing.T) {
	payments := fmt.Sprintf(
		`{"type":"payment","asset_type":"credit_alphanum4","to":%q,"amount":"50.0000000"}`,
		xlmTreasury)
	srv := horizonServer(t, true, payments)
	defer srv.Close()

	adapter := NewStellarAdapter([]string{srv.URL})
	ok, err := adapter.Verify(context.Background(), "aa", xlmTreasury,
		decimal.RequireFromString("49.5"), decimal.RequireFromString("50.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("a non-native asset payment must not count as XLM")
	}
}

func TestStellarVerifyRejectsFailedTransaction(t *testing.T) {
	payments := fmt.Sprintf(
		`{"type":"payment","asset_type":"native","to":%q,"amount":"50.0000000"}`, xlmTreasury)
	srv := horizonServer(t, false, payments)
	defer srv.Close()

	adapter := NewStellarAdapter([]string{srv.URL})
	ok, err := adapter.Verify(context.Background(), "aa", xlmTreasury,
		decimal.RequireFromString("49.5"), decimal.RequireFromString("50.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("an unsuccessful transaction must not verify")
	}
}
