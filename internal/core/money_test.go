package core

import (
	"encoding/json"
	"testing"
)

func TestCentsFromFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{30, 3000},
		{12.34, 1234},
		{12.345, 1235}, // half away from zero
		{-0.5, -50},
		{0, 0},
	}
	for _, tt := range tests {
		if got := CentsFromFloat(tt.in); got != tt.want {
			t.Errorf("CentsFromFloat(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := Money{Cents: 7000}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "70" {
		t.Fatalf("marshal = %s, want 70", data)
	}

	var out Money
	if err := json.Unmarshal([]byte("12.34"), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Cents != 1234 {
		t.Fatalf("unmarshal cents = %d, want 1234", out.Cents)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: -150}
	if a.Abs().Cents != 150 {
		t.Fatalf("Abs = %d, want 150", a.Abs().Cents)
	}
	sum := Money{Cents: 100}.Add(Money{Cents: 50})
	if sum.Cents != 150 {
		t.Fatalf("Add = %d, want 150", sum.Cents)
	}
	diff := Money{Cents: 100}.Sub(Money{Cents: 30})
	if diff.Cents != 70 {
		t.Fatalf("Sub = %d, want 70", diff.Cents)
	}
}
