// Command ecowitt-translate runs one captured gateway upload through the
// translator and prints the resulting Signal K delta. Translator settings
// (WIND_TRUE, CHANNEL<n>_*, INTEGRATED_MODEL_PREFIXES, SOURCE_LABEL) come from
// the environment exactly as for the service.
//
// Usage:
//
//	go run ./cmd/ecowitt-translate -input testdata/gw2000.form
//	echo 'tempinf=68&humidityin=50' | go run ./cmd/ecowitt-translate -timestamp 2024-04-26T15:10:00Z
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/ecowitt-bridge/internal/config"
	"github.com/couchcryptid/ecowitt-bridge/internal/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("ecowitt-translate", flag.ContinueOnError)
	input := fs.String("input", "", "file holding a form-encoded upload body (default stdin)")
	timestamp := fs.String("timestamp", "", "fixed RFC3339 delta timestamp for reproducible output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if *timestamp != "" {
		ts, err := time.Parse(time.RFC3339, *timestamp)
		if err != nil {
			return fmt.Errorf("parse -timestamp: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(ts))
		defer domain.SetClock(nil)
	}

	body, err := readInput(*input, stdin)
	if err != nil {
		return err
	}
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return fmt.Errorf("decode upload: %w", err)
	}

	batch := domain.NewTranslator(cfg.Translator).Translate(domain.FieldSetFromValues(values))
	data, err := domain.EncodeDelta(domain.NewDelta(cfg.SourceLabel, batch))
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("format delta: %w", err)
	}
	out.WriteByte('\n')
	_, err = stdout.Write(out.Bytes())
	return err
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
