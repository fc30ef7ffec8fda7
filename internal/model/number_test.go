package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNumber_UnmarshalAndParse(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    string
		wantErr bool
	}{
		{"absent", `{}`, "0", false},
		{"null", `{"v": null}`, "0", false},
		{"empty string", `{"v": ""}`, "0", false},
		{"number", `{"v": 599.99}`, "599.99", false},
		{"numeric string", `{"v": "600"}`, "600", false},
		{"garbage string", `{"v": "abc"}`, "", true},
		{"bool", `{"v": true}`, "", true},
		{"negative", `{"v": -5}`, "", true},
		{"at max", `{"v": 1000000000000}`, "1000000000000", false},
		{"above max", `{"v": 1000000000001}`, "", true},
		{"exponent above max", `{"v": 1e30}`, "", true},
		{"past int64", `{"v": "9223372036854775808"}`, "", true},
		{"huge exponent", `{"v": "1e50000000"}`, "", true},
		{"tiny exponent", `{"v": 1e-50000000}`, "", true},
		{"zero with huge exponent", `{"v": 0e50000000}`, "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc struct {
				V Number `json:"v"`
			}
			if err := json.Unmarshal([]byte(tt.json), &doc); err != nil {
				t.Fatalf("decode must not fail: %v", err)
			}
			d, err := doc.V.Decimal("v")
			if tt.wantErr {
				var inv *InvalidInputError
				if !errors.As(err, &inv) {
					t.Fatalf("expected InvalidInputError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.String() != tt.want {
				t.Errorf("got %s, want %s", d.String(), tt.want)
			}
		})
	}
}

func TestNumber_CountBounds(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"250000", 250000, false},
		{"1e6", 1000000, false},
		{"1e12", MaxNumber, false},
		{"1e30", 0, true},
		{"9000000000000000000", 0, true},
		{"9223372036854775808", 0, true},
		{"1e50000000", 0, true},
	}
	for _, tt := range tests {
		start := time.Now()
		got, err := Num(tt.raw).Count("followers")
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("Count(%q) took %v", tt.raw, elapsed)
		}
		if tt.wantErr {
			var inv *InvalidInputError
			if !errors.As(err, &inv) || inv.Reason != "out of range" {
				t.Errorf("Count(%q): expected out of range error, got %d, %v", tt.raw, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Count(%q) = %d, %v; want %d", tt.raw, got, err, tt.want)
		}
	}
}

func TestNumber_MarshalHugeExponentAsText(t *testing.T) {
	out, err := json.Marshal(Num("1e50000000"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"1e50000000"` {
		t.Errorf("got %s", out)
	}
}

func TestNumber_MarshalKeepsMalformedText(t *testing.T) {
	out, err := json.Marshal(struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
	}{A: Num("12.50"), B: Num("n/a")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"a":12.5,"b":"n/a","c":null}`
	if string(out) != want {
		t.Errorf("got %s, want %s", out, want)
	}
}

func TestValidate_Enums(t *testing.T) {
	d := DealTerms{PayorType: "government"}
	if err := d.Validate(); err == nil {
		t.Error("expected error for unknown payor type")
	}
	d = DealTerms{OtherItems: []OtherItem{{PaymentType: "stock"}}}
	err := d.Validate()
	var inv *InvalidInputError
	if !errors.As(err, &inv) || inv.Field != "otherItems[0].paymentType" {
		t.Errorf("expected otherItems[0].paymentType error, got %v", err)
	}
	p := AthleteProfile{Gender: "unknown"}
	if err := p.Validate(); err == nil {
		t.Error("expected error for unknown gender")
	}
	p = AthleteProfile{}
	if err := p.Validate(); err != nil {
		t.Errorf("empty gender must be accepted: %v", err)
	}
}
