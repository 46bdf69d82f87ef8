package model

import "testing"

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		if !ValidCategory(c) {
			t.Errorf("ValidCategory(%q) = false, want true", c)
		}
	}
	for _, c := range []string{"", "fertilizers", "Livestock"} {
		if ValidCategory(c) {
			t.Errorf("ValidCategory(%q) = true, want false", c)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"", true},
		{"plain", true},
		{"@example.com", true},
		{"user@", true},
		{"user@host", true},
		{"user@example.com", false},
		{"first.last@farm.co.ke", false},
	}

	for _, tt := range tests {
		err := ValidateEmail(tt.email)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"123456", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}

func TestQueryEncodeDeterministic(t *testing.T) {
	a := Query{Search: "tomatoes", Category: "Veggies", MinPrice: "5", MaxPrice: "50", SortBy: SortPriceAsc}
	b := Query{Search: "tomatoes", Category: "Veggies", MinPrice: "5", MaxPrice: "50", SortBy: SortPriceAsc}

	if a.Encode() != b.Encode() {
		t.Fatalf("equal queries encoded differently: %q vs %q", a.Encode(), b.Encode())
	}
	want := "category=Veggies&maxPrice=50&minPrice=5&search=tomatoes&sortBy=priceAsc"
	if got := a.Encode(); got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestQueryEncodeOmitsEmpty(t *testing.T) {
	q := Query{SortBy: SortNewest}
	if got := q.Encode(); got != "sortBy=newest" {
		t.Errorf("Encode() = %q, want only sortBy", got)
	}

	if got := (Query{}).Encode(); got != "" {
		t.Errorf("empty query encoded to %q, want empty string", got)
	}

	if got := (Query{Limit: 5}).Encode(); got != "limit=5" {
		t.Errorf("Encode() = %q, want limit=5", got)
	}
}
