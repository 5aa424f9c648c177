package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestHumanize(t *testing.T) {
	if got := Humanize("Albert_Einstein"); got != "Albert Einstein" {
		t.Errorf("Humanize = %q, want %q", got, "Albert Einstein")
	}
	if got := Humanize("plain"); got != "plain" {
		t.Errorf("Humanize = %q, want %q", got, "plain")
	}
}
