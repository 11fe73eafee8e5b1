package validation

import (
	"strings"
	"testing"
)

func TestIsValidAmount(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"1.00", true},
		{"0.50", true},
		{"100", true},
		{"52100.99", true},
		{" 42.17 ", true},

		// Invalid
		{".50", false},
		{"1.", false},
		{"abc", false},
		{"-1.00", false},
		{"1.2.3", false},
		{"1,000.00", false},
		{"", false},
	}

	for _, tc := range tests {
		result := IsValidAmount(tc.value)
		if result != tc.valid {
			t.Errorf("IsValidAmount(%q) = %v, want %v", tc.value, result, tc.valid)
		}
	}
}

func TestIsValidEntityID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"txn_a1b2c3d4-e5f6-7890-abcd-ef0123456789", true},
		{"alr_a1b2c3d4-e5f6-7890-abcd-ef0123456789", true},

		// Invalid
		{"txn_short", false},
		{"a1b2c3d4-e5f6-7890-abcd-ef0123456789", false}, // No prefix
		{"TXN_a1b2c3d4-e5f6-7890-abcd-ef0123456789", false},
		{"", false},
	}

	for _, tc := range tests {
		result := IsValidEntityID(tc.id)
		if result != tc.valid {
			t.Errorf("IsValidEntityID(%q) = %v, want %v", tc.id, result, tc.valid)
		}
	}
}

func TestIsValidActor(t *testing.T) {
	tests := []struct {
		actor string
		valid bool
	}{
		{"admin", true},
		{"fraud-analyzer", true},
		{"jane.doe@rewards360.example", true},

		// Invalid
		{"", false},
		{"jane doe", false},
		{"drop;table", false},
		{strings.Repeat("a", 129), false},
	}

	for _, tc := range tests {
		result := IsValidActor(tc.actor)
		if result != tc.valid {
			t.Errorf("IsValidActor(%q) = %v, want %v", tc.actor, result, tc.valid)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"  hello  ", "hello"},
		{"hello\x00world", "helloworld"},
		{strings.Repeat("a", MaxFieldLength+50), strings.Repeat("a", MaxFieldLength)},
	}

	for _, tc := range tests {
		result := Sanitize(tc.input)
		if result != tc.expected {
			t.Errorf("Sanitize(%q) = %q, want %q", tc.input, result, tc.expected)
		}
	}
}
