package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{name: "config error", code: "T101", wantMsg: "Invalid configuration", wantCat: CategoryConfig},
		{name: "fetch error", code: "T120", wantMsg: "Remote request failed", wantCat: CategoryFetch},
		{name: "protocol error", code: "T160", wantMsg: "Malformed live event", wantCat: CategoryProtocol},
		{name: "unknown error code", code: "T999", wantMsg: "Unknown error", wantCat: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := New("T120").Wrap(cause)

	want := "T120: Remote request failed: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !Is(err, cause) {
		t.Error("wrapped cause should be reachable with Is")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "T120") != nil {
		t.Error("FromError(nil) should be nil")
	}

	inner := New("T101").WithDetail("port out of range")
	wrapped := fmt.Errorf("loading: %w", inner)
	if got := FromError(wrapped, "T120"); got != inner {
		t.Errorf("FromError should return the Error in the chain, got %v", got)
	}

	plain := stderrors.New("boom")
	got := FromError(plain, "T180")
	if got.Code != "T180" || got.Wrapped != plain {
		t.Errorf("FromError(plain) = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("T101").
		WithDetail("port must be between 1 and 65535").
		WithSuggestion("Set server.port in tabledash.json")
	out := err.Format()

	for _, want := range []string{
		"ERROR T101: Invalid configuration",
		"port must be between 1 and 65535",
		"Hint: Set server.port in tabledash.json",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("Fprint plain = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six seven" {
		t.Errorf("wrapText lost words: %v", lines)
	}
}

func TestGetAllCodesSorted(t *testing.T) {
	codes := GetAllCodes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	if _, ok := GetTemplate("T100"); !ok {
		t.Error("T100 should be registered")
	}
}
