package money

import (
	"math"
	"testing"

	"tripsplit/internal/models"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"decimal dot", "12.50", 12.50, true},
		{"decimal comma", "1234,56", 1234.56, true},
		{"european thousands", "1.234,56", 1234.56, true},
		{"us thousands", "1,234.56", 1234.56, true},
		{"currency symbol", "€ 9,90", 9.90, true},
		{"non-breaking space", "1 234,56", 1234.56, true},
		{"plain integer", "7", 7, true},
		{"negative", "-3,20", -3.20, true},
		{"single comma is decimal", "1,234", 1.234, true},
		{"empty", "", 0, false},
		{"no digits", "abc €", 0, false},
		{"lone minus", "-", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseAmount(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{10.006, 10.01},
		{10.004, 10.00},
		{-2.675, -2.67}, // 2.675 is 2.67499... in binary
		{0, 0},
		{3.0000000001, 3.00},
	}
	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal(0.1+0.2, 0.3) {
		t.Error("Equal should absorb float addition noise")
	}
	if Equal(1.00, 1.01) {
		t.Error("Equal should distinguish a full cent")
	}
}

func TestItemTotal(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		item models.Item
		want float64
	}{
		{"explicit total wins", models.Item{Quantity: f(2), Price: f(3), Total: f(5.5)}, 5.5},
		{"quantity times price", models.Item{Quantity: f(2), Price: f(3)}, 6},
		{"missing quantity is zero", models.Item{Price: f(3)}, 0},
		{"missing price is zero", models.Item{Quantity: f(2)}, 0},
		{"all missing", models.Item{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ItemTotal(tt.item); got != tt.want {
				t.Errorf("ItemTotal = %v, want %v", got, tt.want)
			}
		})
	}
}
