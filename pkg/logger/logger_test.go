package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLayerField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Output: &buf})

	log.Layer("decoder").Info().Str("summary", "IPv4 TCP").Msg("frame decoded")

	out := buf.String()
	if !strings.Contains(out, `"layer":"decoder"`) {
		t.Errorf("missing layer field: %s", out)
	}
	if !strings.Contains(out, `"summary":"IPv4 TCP"`) {
		t.Errorf("missing summary field: %s", out)
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Output: &buf})

	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug message written at info level: %s", buf.String())
	}

	log.SetLevel("debug")
	log.Debug().Msg("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug message not written after SetLevel")
	}
}

func TestQuiet(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Output: &buf, Quiet: true})

	log.Error().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote output: %s", buf.String())
	}
}

func TestPrepareLogFileName(t *testing.T) {
	name := prepareLogFileName("framescope-%Y.log")
	if strings.Contains(name, "%Y") || !strings.HasPrefix(name, "framescope-") {
		t.Errorf("wrong file name %s", name)
	}
}
