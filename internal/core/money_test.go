package core

import "testing"

func TestParseBalance(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		valid bool
	}{
		{"1234.56", "1234.56", true},
		{"-12,5", "-12.5", true},
		{"  0 ", "0", true},
		{"", "", false},
		{"null", "", false},
		{"abc", "", false},
	}
	for i, tc := range cases {
		got := ParseBalance(tc.in)
		if got.Valid != tc.valid {
			t.Fatalf("case %d valid = %v, want %v", i, got.Valid, tc.valid)
		}
		if tc.valid && got.Decimal.String() != tc.want {
			t.Fatalf("case %d got %s want %s", i, got.Decimal, tc.want)
		}
	}
}

func TestParseBalancePtrNil(t *testing.T) {
	if ParseBalancePtr(nil).Valid {
		t.Fatalf("nil balance must be absent")
	}
}

func TestNullAmount(t *testing.T) {
	if NullAmount(nil).Valid {
		t.Fatalf("nil amount must be null")
	}
	v := -40.25
	got := NullAmount(&v)
	if !got.Valid || got.Decimal.String() != "-40.25" {
		t.Fatalf("got %v", got)
	}
	if !OrZero(NullAmount(nil)).IsZero() {
		t.Fatalf("OrZero of null must be zero")
	}
}
