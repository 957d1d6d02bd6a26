package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tether-dev/tether-go/pkg/trace"
)

// RunExport exports the trace file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := trace.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	// Determine output writer
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

// jsonEvent is the JSONL representation of a trace event. Enums are
// exported as their names so downstream tooling does not need the
// numeric mapping.
type jsonEvent struct {
	Timestamp  string      `json:"timestamp"`
	InstanceID string      `json:"instance_id"`
	Kind       string      `json:"kind"`
	Op         string      `json:"op"`
	Outcome    string      `json:"outcome"`
	Label      string      `json:"label,omitempty"`
	Access     *jsonAccess `json:"access,omitempty"`
	Counts     *jsonCounts `json:"counts,omitempty"`
	Err        string      `json:"error,omitempty"`
}

type jsonAccess struct {
	Shared    int  `json:"shared"`
	Exclusive bool `json:"exclusive"`
	Poisoned  bool `json:"poisoned"`
}

type jsonCounts struct {
	Strong int64 `json:"strong"`
	Weak   int64 `json:"weak"`
}

func exportJSONL(reader *trace.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		je := jsonEvent{
			Timestamp:  event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			InstanceID: event.InstanceID,
			Kind:       event.Kind.String(),
			Op:         event.Op.String(),
			Outcome:    event.Outcome.String(),
			Label:      event.Label,
			Err:        event.Err,
		}
		if event.Access != nil {
			je.Access = &jsonAccess{
				Shared:    event.Access.Shared,
				Exclusive: event.Access.Exclusive,
				Poisoned:  event.Access.Poisoned,
			}
		}
		if event.Counts != nil {
			je.Counts = &jsonCounts{
				Strong: event.Counts.Strong,
				Weak:   event.Counts.Weak,
			}
		}
		if err := encoder.Encode(je); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *trace.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	// Write header
	header := []string{"timestamp", "instance_id", "label", "kind", "op", "outcome", "shared", "exclusive", "poisoned", "strong", "weak", "error"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		var shared, exclusive, poisoned, strong, weak string
		if event.Access != nil {
			shared = strconv.Itoa(event.Access.Shared)
			exclusive = strconv.FormatBool(event.Access.Exclusive)
			poisoned = strconv.FormatBool(event.Access.Poisoned)
		}
		if event.Counts != nil {
			strong = strconv.FormatInt(event.Counts.Strong, 10)
			weak = strconv.FormatInt(event.Counts.Weak, 10)
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.InstanceID,
			event.Label,
			event.Kind.String(),
			event.Op.String(),
			event.Outcome.String(),
			shared,
			exclusive,
			poisoned,
			strong,
			weak,
			event.Err,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
