package config

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Setenv("SV_ADDRESS", "abc123")
	t.Setenv("SV_EMPTY", "")
	t.Setenv("SV_REGION", "eu-west-1")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set var", "address: ${SV_ADDRESS}", "address: abc123"},
		{"unset var", "address: ${SV_UNSET_12345}", "address: "},
		{"default when unset", "level: ${SV_UNSET_12345:-info}", "level: info"},
		{"default when empty", "level: ${SV_EMPTY:-info}", "level: info"},
		{"default ignored when set", "address: ${SV_ADDRESS:-nobody}", "address: abc123"},
		{"multiple vars", "${SV_ADDRESS}@${SV_REGION}", "abc123@eu-west-1"},
		{"no vars", "path: ./cache.db", "path: ./cache.db"},
		{"bare dollar untouched", "price: $5", "price: $5"},
		{"default with url", "url: ${SV_UNSET_12345:-http://127.0.0.1:8787}", "url: http://127.0.0.1:8787"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandEnv_NestedInYAML(t *testing.T) {
	t.Setenv("SV_HOOK_SECRET", "s3cret")

	input := "adapter:\n  type: webhook\n  secret: ${SV_HOOK_SECRET}\n  url: ${SV_HOOK_URL:-https://hooks.example.com}\n"
	want := "adapter:\n  type: webhook\n  secret: s3cret\n  url: https://hooks.example.com\n"
	if got := ExpandEnv(input); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
