package chains

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

const strkTreasury = "0x0123abc"

func starknetServer(t *testing.T, result string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%s}`, result)
	}))
}

// 5 STRK in wei-scale units, split as a uint256 low/high pair.
func strkTransferEvent(to string, low string) string {
	return fmt.Sprintf(
		`{"from_address":%q,"keys":[%q],"data":["0xsender",%q,%q,"0x0"]}`,
		STRKTokenAddress, starknetTransferKey, to, low)
}

func TestStarknetVerifyAcceptsFinalizedTransfer(t *testing.T) {
	// 0x4563918244f40000 = 5e18.
	result := fmt.Sprintf(
		`{"finality_status":"ACCEPTED_ON_L2","execution_status":"SUCCEEDED","events":[%s]}`,
		strkTransferEvent(strkTreasury, "0x4563918244f40000"))
	srv := starknetServer(t, result)
	defer srv.Close()

	adapter := NewStarknetAdapter([]string{srv.URL})
	ok, err := adapter.Verify(context.Background(), "0xaa", strkTreasury,
		decimal.RequireFromString("4.95"), decimal.RequireFromString("5.05"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected finalized 5 STRK transfer to verify")
	}
}

func TestStarknetVerifyRejectsPendingFinality(t *testing.T) {
	result := fmt.Sprintf(
		`{"finality_status":"RECEIVED","execution_status":"SUCCEEDED","events":[%s]}`,
		strkTransferEvent(strkTreasury, "0x4563918244f40000"))
	srv := starknetServer(t, result)
	defer srv.Close()

	adapter := NewStarknetAdapter([]string{srv.URL})
	ok, err := adapter.Verify(context.Background(), "0xaa", strkTreasury,
		decimal.RequireFromString("4.95"), decimal.RequireFromString("5.05"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("a receipt not yet accepted must not verify")
	}
}

func TestStarknetVerifyRejectsRevertedExecution(t *testing.T) {
	result := fmt.Sprintf(
		`{"finality_status":"ACCEPTED_ON_L1","execution_status":"REVERTED","events":[%s]}`,
		strkTransferEvent(strkTreasury, "0x4563918244f40000"))
	srv := starknetServer(t, result)
	defer srv.Close()

	adapter := NewStarknetAdapter([]string{srv.URL})
	ok, err := adapter.Verify(context.Background(), "0xaa", strkTreasury,
		decimal.RequireFromString("4.95"), decimal.RequireFromString("5.05"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("a reverted execution must not verify")
	}
}

func TestStarknetVerifyUnknownHashIsNegativeNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":29,"message":"Transaction hash not found"}}`)
	}))
	defer srv.Close()

	adapter := NewStarknetAdapter([]string{srv.URL})
	ok, err := adapter.Verify(context.Background(), "0xaa", strkTreasury,
		decimal.RequireFromString("4.95"), decimal.RequireFromString("5.05"))
	if err != nil {
		t.Fatalf("unknown hash is a fact, not a failure: %v", err)
	}
	if ok {
		t.Fatal("unknown hash must not verify")
	}
}

func TestStarknetVerifySumsMultipleTransfers(t *testing.T) {
	// 2 STRK + 3 STRK to the treasury.
	result := fmt.Sprintf(
		`{"finality_status":"ACCEPTED_ON_L1","execution_status":"SUCCEEDED","events":[%s,%s]}`,
		strkTransferEvent(strkTreasury, "0x1bc16d674ec80000"),
		strkTransferEvent(strkTreasury, "0x29a2241af62c0000"))
	srv := starknetServer(t, result)
	defer srv.Close()

	adapter := NewStarknetAdapter([]string{srv.URL})
	ok, err := adapter.Verify(context.Background(), "0xaa", strkTreasury,
		decimal.RequireFromString("4.95"), decimal.RequireFromString("5.05"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected transfers to sum to 5 STRK")
	}
}
