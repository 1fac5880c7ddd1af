package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCity_EmptyAndWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tab", "\t"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateCity(tc.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrCityEmpty) {
				t.Errorf("error = %v, want ErrCityEmpty", err)
			}
		})
	}
}

func TestValidateCity_TooLong(t *testing.T) {
	long := strings.Repeat("a", maxCityRunes+1)
	_, err := ValidateCity(long)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrCityTooLong) {
		t.Errorf("error = %v, want ErrCityTooLong", err)
	}
}

func TestValidateCity_InvalidChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"slash", "lis/boa"},
		{"backslash", "lis\\boa"},
		{"question", "lisboa?"},
		{"hash", "lis#boa"},
		{"control", "lis\x00boa"},
		{"percent", "lis%boa"},
		{"semicolon", "lisboa;drop"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateCity(tc.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrCityInvalidChars) {
				t.Errorf("error = %v, want ErrCityInvalidChars", err)
			}
		})
	}
}

func TestValidateCity_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Braga", "Braga"},
		{"with spaces", "Viana do Castelo", "Viana do Castelo"},
		{"diacritics", "Évora", "Évora"},
		{"cedilla", "Bragança", "Bragança"},
		{"trimmed", "  Lisboa  ", "Lisboa"},
		{"hyphen", "Vila-Real", "Vila-Real"},
		{"parens", "Calheta (Madeira)", "Calheta (Madeira)"},
		{"period", "S. Roque do Pico", "S. Roque do Pico"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateCity(tc.input)
			if err != nil {
				t.Fatalf("ValidateCity() err = %v", err)
			}
			if got != tc.want {
				t.Errorf("trimmed = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidateCity_MaxBoundary(t *testing.T) {
	s := strings.Repeat("a", maxCityRunes)
	got, err := ValidateCity(s)
	if err != nil {
		t.Fatalf("max boundary: err = %v", err)
	}
	if len([]rune(got)) != maxCityRunes {
		t.Errorf("max boundary: rune count = %d, want %d", len([]rune(got)), maxCityRunes)
	}
}

func TestValidateGlobalID_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"seven digits", "1030500", "1030500"},
		{"trimmed", " 1010500 ", "1010500"},
		{"single digit", "7", "7"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateGlobalID(tc.input)
			if err != nil {
				t.Fatalf("ValidateGlobalID() err = %v", err)
			}
			if got != tc.want {
				t.Errorf("trimmed = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidateGlobalID_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", ErrGlobalIDEmpty},
		{"whitespace", "   ", ErrGlobalIDEmpty},
		{"letters", "abc", ErrGlobalIDInvalid},
		{"mixed", "103x500", ErrGlobalIDInvalid},
		{"negative", "-1030500", ErrGlobalIDInvalid},
		{"decimal", "103.05", ErrGlobalIDInvalid},
		{"too long", strings.Repeat("1", maxGlobalIDRunes+1), ErrGlobalIDInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateGlobalID(tc.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
