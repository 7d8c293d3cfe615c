package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	lg := initTo(&buf, "movie-rental", "prod", "warn", "json")
	lg.Info().Msg("dropped")
	lg.Warn().Str("k", "v").Msg("kept")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "movie-rental" || line["message"] != "kept" || line["k"] != "v" {
		t.Fatalf("unexpected line %v", line)
	}
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("level = %v", zerolog.GlobalLevel())
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func TestInitBadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	initTo(&buf, "svc", "prod", "loud", "")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("level = %v", zerolog.GlobalLevel())
	}
}
