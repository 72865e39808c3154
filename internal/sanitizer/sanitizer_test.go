package sanitizer

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain", "take leaflet", "take leaflet", true},
		{"quoted", `"take leaflet"`, "take leaflet", true},
		{"prefixed command", "Command: take leaflet", "take leaflet", true},
		{"prefixed rewrite", "Rewrite: open door", "open door", true},
		{"angle prompt prefix", "> take leaflet", "take leaflet", true},
		{"trailing punctuation", "take leaflet.", "take leaflet", true},
		{"extra whitespace", "take   leaflet", "take leaflet", true},
		{"sentinel exact", "<NO_VALID_REWRITE>", "", false},
		{"sentinel lowercase", "<no_valid_rewrite>", "", false},
		{"blank after cleaning", "   ", "", false},
		{"mixed case lowered", "Take Leaflet", "take leaflet", true},
		{"colon label", "The command is: open door", "open door", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Sanitize(tt.in)
			if ok != tt.ok {
				t.Fatalf("Sanitize(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
