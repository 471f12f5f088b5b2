package payload_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/johnwards/backoffice/internal/payload"
)

func TestNumericID(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{in: "", want: nil},
		{in: "   ", want: nil},
		{in: nil, want: nil},
		{in: "42", want: int64(42)},
		{in: " 7 ", want: int64(7)},
		{in: "-3", want: int64(-3)},
		{in: "abc", want: "abc"},
		{in: int64(9), want: int64(9)},
		{in: 5, want: int64(5)},
		{in: true, want: true},
	}
	for _, tt := range tests {
		got, present := payload.NumericID(tt.in)
		if !present {
			t.Errorf("NumericID(%#v) removed the value", tt.in)
		}
		if got != tt.want {
			t.Errorf("NumericID(%#v) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestCheckbox(t *testing.T) {
	tests := map[any]any{
		"on":    true,
		"true":  true,
		"1":     true,
		"YES":   true,
		"off":   false,
		"false": false,
		"":      false,
		"0":     false,
		"maybe": "maybe",
		true:    true,
	}
	for in, want := range tests {
		got, _ := payload.Checkbox(in)
		if got != want {
			t.Errorf("Checkbox(%#v) = %#v, want %#v", in, got, want)
		}
	}
}

func TestEmptyTransformers(t *testing.T) {
	if v, present := payload.EmptyToNull(" "); !present || v != nil {
		t.Errorf("EmptyToNull(blank) = %#v, %v", v, present)
	}
	if v, _ := payload.EmptyToNull("x"); v != "x" {
		t.Errorf("EmptyToNull(x) = %#v", v)
	}
	if _, present := payload.EmptyToUndefined(""); present {
		t.Error("EmptyToUndefined(\"\") should remove the value")
	}
	if _, present := payload.Integer(""); present {
		t.Error("Integer(\"\") should remove the value")
	}
	if _, present := payload.Number(" "); present {
		t.Error("Number(blank) should remove the value")
	}
}

func TestSanitizeStripsMarkup(t *testing.T) {
	reg := payload.NewTransformerRegistry()
	sanitize, ok := reg.Lookup(payload.TransformSanitize)
	if !ok {
		t.Fatal("sanitize transformer not registered")
	}

	got, _ := sanitize(`  <b>Bold</b> choice<script>alert(1)</script> `)
	if got != "Bold choice" {
		t.Errorf("sanitize = %q, want %q", got, "Bold choice")
	}
}

func TestSanitizeKeepsPlainText(t *testing.T) {
	reg := payload.NewTransformerRegistry()
	sanitize, _ := reg.Lookup(payload.TransformSanitize)

	tests := []struct {
		in   string
		want string
	}{
		{in: `Tom's "best" nuts & bolts, 5 < 6`, want: `Tom's "best" nuts & bolts, 5 < 6`},
		{in: "<b>x</b>", want: "x"},
		{in: "&lt;b&gt;x&lt;/b&gt;", want: "x"},
		{in: "AT&T", want: "AT&T"},
	}
	for _, tt := range tests {
		got, _ := sanitize(tt.in)
		if got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{in: "2024-03-01", want: "2024-03-01"},
		{in: "2024-03-01T23:30:00+02:00", want: "2024-03-01"},
		{in: "", want: nil},
		{in: "next tuesday", want: "next tuesday"},
	}
	for _, tt := range tests {
		got, _ := payload.Date(tt.in)
		if got != tt.want {
			t.Errorf("Date(%#v) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

// Every built-in must be idempotent once its output is normalised.
func TestTransformersAreIdempotent(t *testing.T) {
	reg := payload.NewTransformerRegistry()
	samples := []any{
		nil, "", "  ", "42", " 7 ", "abc", "on", "off", "3.25", "Mixed Case ",
		"<i>x</i> & y", `Tom's "best" & 5 < 6`, "&lt;b&gt;x", "2024-01-31", "2024-01-31T10:00:00Z", true, false, int64(8), 2.5,
	}

	for _, name := range reg.Names() {
		tr, _ := reg.Lookup(name)
		for _, v := range samples {
			once, present := tr(v)
			if !present {
				continue
			}
			twice, present := tr(once)
			if !present {
				t.Errorf("%s: second application removed %#v", name, once)
				continue
			}
			if !cmp.Equal(once, twice) {
				t.Errorf("%s: t(%#v) = %#v but t(t(v)) = %#v", name, v, once, twice)
			}
		}
	}
}

func TestTransformerRegistryRegister(t *testing.T) {
	reg := payload.NewTransformerRegistry()

	if err := reg.Register("", payload.Trim); err == nil {
		t.Error("expected error for empty name")
	}
	if err := reg.Register("upper", nil); err == nil {
		t.Error("expected error for nil transformer")
	}
	if err := reg.Register("slug", payload.Chain(payload.Trim, payload.Lower, payload.EmptyToUndefined)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	slug, ok := reg.Lookup("slug")
	if !ok {
		t.Fatal("slug not found after Register")
	}
	if v, _ := slug("  Hello "); v != "hello" {
		t.Errorf("slug = %#v, want hello", v)
	}
	if _, present := slug("   "); present {
		t.Error("slug of blank should be removed")
	}
}
