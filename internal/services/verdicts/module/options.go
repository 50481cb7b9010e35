package module

import (
	"time"

	"github.com/masteryoda101/fake-star-check/internal/platform/config"
)

// Options tunes the sink and the read side
type Options struct {
	Buffer       int
	WriteTimeout time.Duration
	MemoryMax    int
	Console      bool
}

// FromConfig reads VERDICTS_* keys
func FromConfig(cfg config.Conf) Options {
	v := cfg.Prefix("VERDICTS_")
	return Options{
		Buffer:       v.MayInt("BUFFER", 256),
		WriteTimeout: v.MayDuration("WRITE_TIMEOUT", 10*time.Second),
		MemoryMax:    v.MayInt("MEMORY_MAX", 1000),
		Console:      v.MayBool("CONSOLE", true),
	}
}
