package pagination

import (
	"errors"
	"testing"
)

func TestClampPageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 20, Max: 100}
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: 20},
		{in: -5, want: 20},
		{in: 10, want: 10},
		{in: 500, want: 100},
	}
	for _, tc := range tests {
		if got := ClampPageSize(tc.in, cfg); got != tc.want {
			t.Fatalf("ClampPageSize(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Fatalf("ClampPageSize with zero config = %d, want 1", got)
	}
}

func TestNormalizeOrderBy(t *testing.T) {
	cfg := OrderByConfig{Default: "created_at desc", Allowed: []string{"created_at desc", "price_cents", "price_cents desc"}}

	got, err := NormalizeOrderBy("", cfg)
	if err != nil || got != "created_at desc" {
		t.Fatalf("default = (%q, %v)", got, err)
	}
	got, err = NormalizeOrderBy("  price_cents   DESC ", cfg)
	if err != nil || got != "price_cents desc" {
		t.Fatalf("normalized = (%q, %v)", got, err)
	}
	if _, err := NormalizeOrderBy("stock", cfg); !errors.Is(err, ErrInvalidOrderBy) {
		t.Fatalf("err = %v, want ErrInvalidOrderBy", err)
	}
}

func TestTokenRoundTripBindsQuery(t *testing.T) {
	token := NextToken(20, 20, 21, `category = "hats"`)
	if token == "" {
		t.Fatal("expected next token")
	}
	cursor, err := DecodeToken(token, `category = "hats"`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cursor.Offset != 40 {
		t.Fatalf("offset = %d, want 40", cursor.Offset)
	}
	if _, err := DecodeToken(token, `category = "shirts"`); !errors.Is(err, ErrInvalidPageToken) {
		t.Fatalf("err = %v, want ErrInvalidPageToken", err)
	}
}

func TestNextTokenLastPage(t *testing.T) {
	if token := NextToken(0, 20, 20, ""); token != "" {
		t.Fatalf("token = %q, want empty", token)
	}
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	for _, token := range []string{"!!!", "bm9waXBl", EncodeToken(Cursor{Offset: -1})} {
		if _, err := DecodeToken(token, ""); !errors.Is(err, ErrInvalidPageToken) {
			t.Fatalf("DecodeToken(%q) err = %v", token, err)
		}
	}
	cursor, err := DecodeToken("", "q")
	if err != nil || cursor.Offset != 0 {
		t.Fatalf("empty token = (%+v, %v)", cursor, err)
	}
}

func TestParsePageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 20, Max: 100}
	tests := map[string]int{
		"":     20,
		"abc":  20,
		"-5":   20,
		"7":    7,
		" 50 ": 50,
		"500":  100,
	}
	for raw, want := range tests {
		if got := ParsePageSize(raw, cfg); got != want {
			t.Fatalf("ParsePageSize(%q) = %d, want %d", raw, got, want)
		}
	}
}
