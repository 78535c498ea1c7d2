package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the interactive session banner.
func PrintBanner(w io.Writer, config *Config, logger *Logger) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 50) + banner.ColorReset

	fmt.Fprintf(w, "\n%s\n", hr)
	fmt.Fprintf(w, "%s  FOLIO | PORTFOLIO MANAGER%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n\n", hr)

	source := "eodhd"
	if config.Clients.EODHD.APIKey == "" {
		source = "manual entry (no EODHD key)"
	}

	kvLines := [][2]string{
		{"Version", GetVersion()},
		{"Holdings", config.Portfolio.HoldingsFile()},
		{"Currency", config.Portfolio.Currency},
		{"Prices", source},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-10s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n", hr)

	logger.Info().
		Str("version", GetVersion()).
		Str("holdings", config.Portfolio.HoldingsFile()).
		Str("price_source", source).
		Msg("Session started")
}
