package util

import "testing"

func TestDigest(t *testing.T) {
	prompt := "Analyse le segment vin à Gap"
	got := Digest(prompt)
	if got != Digest(prompt) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
	if short := ShortDigest(prompt); len(short) != 12 || short != got[:12] {
		t.Fatalf("ShortDigest = %q", short)
	}
}

func TestKeySegment(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "req-1", want: "req-1"},
		{in: " a/b\\c ", want: "a_b_c"},
		{in: "équipe 7", want: "_quipe_7"},
		{in: "../etc", wantErr: true},
		{in: "  ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := KeySegment(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("KeySegment(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("KeySegment(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
