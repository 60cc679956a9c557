package cmd

import "testing"

func TestSuggestCommand(t *testing.T) {
	commands := []string{"auth", "api", "list", "get", "upload", "products", "orders", "shop", "categories", "webhooks", "cache", "version"}
	tests := []struct {
		input string
		want  string
	}{
		{"prodcts", "products"},
		{"ordres", "orders"},
		{"webhoks", "webhooks"},
		{"catgories", "categories"},
		{"uplaod", "upload"},
		{"VERSION", "version"},
		{"xyzzyplugh", ""},
	}
	for _, tt := range tests {
		if got := suggestCommand(tt.input, commands); got != tt.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	flags := []string{"--output", "--json", "--query", "--size", "--page", "--all", "-o", "-a"}
	tests := []struct {
		input string
		want  string
	}{
		{"--ouput", "--output"},
		{"--sizee", "--size"},
		{"--pag", "--page"},
		{"--", ""},
		{"--completely-different", ""},
	}
	for _, tt := range tests {
		if got := suggestFlag(tt.input, flags); got != tt.want {
			t.Errorf("suggestFlag(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
