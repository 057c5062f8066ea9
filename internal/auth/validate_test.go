package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	longSession := "_session=" + strings.Repeat("a", 100)
	bareJWT := strings.Repeat("e", 40) + "." + strings.Repeat("f", 40) + "." + strings.Repeat("g", 38)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "session marker with long value",
			input: longSession,
			want:  longSession,
		},
		{
			name:  "full cookie string containing session marker",
			input: "theme=dark; " + longSession + "; other=1",
			want:  "theme=dark; " + longSession + "; other=1",
		},
		{
			name:  "bare JWT gets marker prefixed",
			input: bareJWT,
			want:  "_session=" + bareJWT,
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  " + longSession + "  ",
			want:  longSession,
		},
		{
			name:  "newlines collapsed to spaces",
			input: "theme=dark;\n" + longSession,
			want:  "theme=dark; " + longSession,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "too short",
			input:   "short",
			wantErr: true,
		},
		{
			name:    "long but no marker and not a JWT",
			input:   strings.Repeat("x y", 40),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Normalize(%q) succeeded, want error", tt.input)
				}
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("error is %T, want *ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractSessionValue(t *testing.T) {
	if got := ExtractSessionValue("a=b; _session=tok123; c=d"); got != "tok123" {
		t.Errorf("ExtractSessionValue() = %q, want %q", got, "tok123")
	}
	if got := ExtractSessionValue("no marker here"); got != "" {
		t.Errorf("ExtractSessionValue() = %q, want empty", got)
	}
}

func TestSanitizeForLogging(t *testing.T) {
	long := "_session=" + strings.Repeat("a", 30)
	got := SanitizeForLogging(long)
	if strings.Contains(got, strings.Repeat("a", 30)) {
		t.Errorf("sanitized output leaks full session value: %q", got)
	}
	if !strings.HasPrefix(got, "_session=aaaaaaaaaa...") {
		t.Errorf("unexpected sanitized format: %q", got)
	}

	if got := SanitizeForLogging(""); got != "[empty]" {
		t.Errorf("SanitizeForLogging(\"\") = %q", got)
	}
	if got := SanitizeForLogging("_session=short"); got != "[invalid format]" {
		t.Errorf("SanitizeForLogging(short) = %q", got)
	}
}
