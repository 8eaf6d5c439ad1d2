package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/fieldbot/lockon/config"
)

const (
	defaultDuration      = 10 * time.Second
	defaultVisionPeriod  = 100 * time.Millisecond
	defaultVisionLatency = 40 * time.Millisecond
)

func printConfig(w io.Writer, cfg *config.Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(cfg), "cannot encode config")
}
