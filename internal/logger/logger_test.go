package logger

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	var tests = []struct {
		in       string
		level    Level
		errIsNil bool
	}{
		{"debug", DebugLevel, true},
		{"", InfoLevel, true},
		{"INFO", InfoLevel, true},
		{" warning ", WarnLevel, true},
		{"error", ErrorLevel, true},
		{"verbose", InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			level, err := ParseLevel(tt.in)
			if level != tt.level {
				t.Errorf("\ngot level %v, wanted %v", level, tt.level)
			} else if (err == nil) != tt.errIsNil {
				t.Errorf("\ngot error %v", err)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	flags := log.Flags()
	log.SetFlags(0)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
		SetLevel(InfoLevel)
	}()

	SetLevel(WarnLevel)
	Debug("debug %d", 1)
	Info("info %d", 2)
	Warn("warn %d", 3)
	Error("error %d", 4)

	assert.Equal(t, "[WARN ] warn 3\n[ERROR] error 4\n", buf.String())

	buf.Reset()
	SetLevel(DebugLevel)
	Debug("lookup %s", "employees")
	assert.Equal(t, "[DEBUG] lookup employees\n", buf.String())
}
