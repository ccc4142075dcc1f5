package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bookpilot/booking-nlu/internal/nlu"
	"github.com/bookpilot/booking-nlu/pkg/logging"
)

// resolve runs one utterance through the pipeline and prints the result as
// JSON. Useful for eyeballing stage outputs without standing up the server.
func main() {
	domain := flag.String("domain", "service", "resolution domain: service or reservation")
	timezone := flag.String("tz", "UTC", "IANA timezone for calendar binding")
	nowFlag := flag.String("now", "", "reference instant, RFC3339 (default: current time)")
	aliasesFlag := flag.String("aliases", "", `tenant aliases as JSON, e.g. {"mens cut":{"canonical_family":"haircut","priority":10}}`)
	pretty := flag.Bool("pretty", true, "indent JSON output")
	flag.Parse()

	text := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "usage: resolve [flags] <utterance>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	req := nlu.Request{
		Text:     text,
		Domain:   nlu.Domain(*domain),
		Timezone: *timezone,
	}
	if *nowFlag != "" {
		now, err := time.Parse(time.RFC3339, *nowFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -now value: %v\n", err)
			os.Exit(2)
		}
		req.Now = now
	}
	if *aliasesFlag != "" {
		if err := json.Unmarshal([]byte(*aliasesFlag), &req.TenantAliases); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -aliases value: %v\n", err)
			os.Exit(2)
		}
	}

	pipeline := nlu.NewPipeline(nlu.DefaultVocabulary(), nil, logging.New("error"))
	result := pipeline.Resolve(context.Background(), req)

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
	if !result.Success {
		os.Exit(1)
	}
}
