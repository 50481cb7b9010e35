package config

import (
	"reflect"
	"testing"
	"time"

	kit "github.com/masteryoda101/fake-star-check/internal/platform/testkit"
)

func TestPrefixComposes(t *testing.T) {
	c := New().Prefix("INGEST_").Prefix("PYPI_")
	if got := c.key("FEED"); got != "INGEST_PYPI_FEED" {
		t.Fatalf("key() = %q", got)
	}
}

func TestMust(t *testing.T) {
	c := New().Prefix("T_")
	t.Setenv("T_NAME", "  starcheck ")
	t.Setenv("T_N", "8")
	t.Setenv("T_BAD", "x")

	if got := c.MustString("NAME"); got != "starcheck" {
		t.Fatalf("MustString = %q", got)
	}
	if got := c.MustInt("N"); got != 8 {
		t.Fatalf("MustInt = %d", got)
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
	kit.MustPanic(t, func() { _ = c.MustInt("BAD") })
	kit.MustPanic(t, func() { c.Require("NAME", "MISSING") })
}

func TestMayGetters(t *testing.T) {
	c := New().Prefix("M_")
	t.Setenv("M_INT", "12")
	t.Setenv("M_INT_BAD", "twelve")
	t.Setenv("M_F", "0.75")
	t.Setenv("M_B", "true")
	t.Setenv("M_D", "720h")
	t.Setenv("M_CSV", " pypi, ,npm ")
	t.Setenv("M_CSV_BLANK", " , ")

	if got := c.MayString("MISSING", "def"); got != "def" {
		t.Fatalf("MayString = %q", got)
	}
	if got := c.MayInt("INT", 1); got != 12 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := c.MayInt("INT_BAD", 3); got != 3 {
		t.Fatalf("MayInt invalid = %d", got)
	}
	if got := c.MayFloat64("F", 0); got != 0.75 {
		t.Fatalf("MayFloat64 = %v", got)
	}
	if !c.MayBool("B", false) {
		t.Fatalf("MayBool")
	}
	if got := c.MayDuration("D", time.Second); got != 30*24*time.Hour {
		t.Fatalf("MayDuration = %s", got)
	}
	if got := c.MayCSV("CSV", nil); !reflect.DeepEqual(got, []string{"pypi", "npm"}) {
		t.Fatalf("MayCSV = %v", got)
	}
	if got := c.MayCSV("CSV_BLANK", []string{"x"}); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("MayCSV blank = %v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")
	t.Setenv("E_BACKEND", "Badger")
	t.Setenv("E_BAD", "redis")

	if got := c.MayEnum("BACKEND", "memory", "memory", "badger", "pg"); got != "badger" {
		t.Fatalf("MayEnum = %q", got)
	}
	if got := c.MayEnum("UNSET", "memory", "memory", "badger"); got != "memory" {
		t.Fatalf("MayEnum default = %q", got)
	}
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "memory", "memory", "badger") })
}
