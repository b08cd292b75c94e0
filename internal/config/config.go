/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the server reads from the environment.
// All variables share the STUDYHUB_ prefix, e.g. STUDYHUB_SERVER_PORT.
type Config struct {
	ServerPort   uint16 `envconfig:"SERVER_PORT" default:"8000"`
	ReadTimeout  int64  `envconfig:"READ_TIMEOUT" default:"15"`  // seconds
	WriteTimeout int64  `envconfig:"WRITE_TIMEOUT" default:"15"` // seconds

	DatabasePath string `envconfig:"DATABASE_PATH" default:"studyhub.db"`
	LogDirectory string `envconfig:"LOG_DIRECTORY" default:"logs"`
	LogEnabled   bool   `envconfig:"LOG_ENABLED" default:"true"`

	SessionSecret string `envconfig:"SESSION_SECRET" required:"true"`

	// Number of messages returned per load_history page.
	HistoryPageSize int `envconfig:"HISTORY_PAGE_SIZE" default:"50"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("studyhub", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.HistoryPageSize <= 0 {
		return nil, fmt.Errorf("config: history page size must be positive")
	}
	return &cfg, nil
}
