package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/velotrail/velotrail/pkg/validate"
)

// CLI-приложение для офлайн-проверки файлов импорта: GPX-трек либо
// JSON-конверт сообщения (как в Kafka-топике).
func main() {
	inputPath := flag.String("in", "", "path to input (.gpx or .json). If empty, reads from stdin.")
	formatStr := flag.String("format", "auto", "input format: auto|gpx|json")
	flag.Parse()

	ctx := context.Background()
	tripValidator := validate.NewTripValidator()

	format := validate.InputFormat(*formatStr)

	path := *inputPath
	if path == "" {
		// stdin без расширения: auto не сработает, по умолчанию считаем GPX
		if format == validate.FormatAuto {
			format = validate.FormatGPX
		}
		path = "/dev/stdin"
	}

	summary, err := validate.ValidateFile(ctx, tripValidator, path, format, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validation: %v (%s)\n", err, summary)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "validation ok (%s)\n", summary)
}
