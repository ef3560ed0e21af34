package types

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from PurchaseStatus
		to   PurchaseStatus
		want bool
	}{
		{name: "pending to processing", from: StatusPending, to: StatusProcessing, want: true},
		{name: "processing to completed", from: StatusProcessing, to: StatusCompleted, want: true},
		{name: "processing to failed", from: StatusProcessing, to: StatusFailed, want: true},
		{name: "pending straight to completed", from: StatusPending, to: StatusCompleted, want: false},
		{name: "completed is terminal", from: StatusCompleted, to: StatusFailed, want: false},
		{name: "failed is terminal", from: StatusFailed, to: StatusProcessing, want: false},
		{name: "no backward move", from: StatusProcessing, to: StatusPending, want: false},
		{name: "unknown status", from: PurchaseStatus("weird"), to: StatusProcessing, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSetStatusRejectsIllegalMove(t *testing.T) {
	p := &Purchase{Status: StatusCompleted}
	err := p.SetStatus(StatusFailed)
	if err == nil {
		t.Fatal("expected error moving a completed purchase to failed")
	}
	var bpErr *BillPayError
	if !errors.As(err, &bpErr) || bpErr.Code != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if p.Status != StatusCompleted {
		t.Fatalf("status mutated on rejected transition: %s", p.Status)
	}
}

func TestExpectedPaymentBand(t *testing.T) {
	expected := ExpectedPayment{
		ExpectedAmount:    decimal.RequireFromString("100"),
		ToleranceFraction: decimal.RequireFromString("0.01"),
	}
	min, max := expected.Band()
	if !min.Equal(decimal.RequireFromString("99")) {
		t.Fatalf("min = %s, want 99", min)
	}
	if !max.Equal(decimal.RequireFromString("101")) {
		t.Fatalf("max = %s, want 101", max)
	}
}

func TestAppendMetadataAccumulates(t *testing.T) {
	p := &Purchase{}
	p.AppendMetadata(map[string]any{"a": 1})
	p.AppendMetadata(map[string]any{"b": 2})
	if len(p.Metadata) != 2 {
		t.Fatalf("expected both entries kept, got %v", p.Metadata)
	}
}
