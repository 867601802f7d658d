package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/arche"
	"github.com/aretw0/arche/pkg/progress"
	"github.com/aretw0/arche/pkg/record"
)

// readRecordFile decodes a record file, inferring the format from its extension.
func readRecordFile(path string) (record.Record, error) {
	format, err := record.FormatFromPath(path)
	if err != nil {
		return record.Record{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return record.Record{}, err
	}
	defer f.Close()
	return record.Decode(f, format)
}

// addSourceFlags registers the flags shared by commands that read one project.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("project", "", "Load the project from the configured store instead of a file")
	cmd.Flags().String("events", "", "Replay a JSONL file of deliveries before rendering")
}

// openSource builds the project named by a record file argument or --project.
// When the command registers --events and it is set, its deliveries are
// replayed first.
func openSource(cmd *cobra.Command, args []string, opts ...arche.Option) (*arche.Project, error) {
	ctx := cmd.Context()
	opts = append([]arche.Option{arche.WithLogger(logger)}, opts...)

	var (
		p   *arche.Project
		err error
	)
	projectID, _ := cmd.Flags().GetString("project")
	switch {
	case len(args) > 0 && projectID != "":
		return nil, fmt.Errorf("pass either a record file or --project, not both")
	case len(args) > 0:
		rec, rerr := readRecordFile(args[0])
		if rerr != nil {
			return nil, rerr
		}
		p, err = arche.FromRecord(rec, opts...)
	case projectID != "":
		p, err = loadStored(ctx, projectID, opts...)
	default:
		return nil, fmt.Errorf("a record file or --project is required")
	}
	if err != nil {
		return nil, err
	}

	if f := cmd.Flags().Lookup("events"); f != nil && f.Value.String() != "" {
		events := f.Value.String()
		if _, err := replayFile(p, events); err != nil {
			p.Close()
			return nil, err
		}
	}
	return p, nil
}

func loadStored(ctx context.Context, projectID string, opts ...arche.Option) (*arche.Project, error) {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer b.close()
	return arche.Load(ctx, b.store, projectID, opts...)
}

// replayStats counts the outcome of a replay.
type replayStats struct {
	Delivered int `json:"delivered"`
	Rejected  int `json:"rejected"`
}

func replayFile(p *arche.Project, path string) (replayStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return replayStats{}, err
	}
	defer f.Close()
	return replay(p, f)
}

// replay delivers one JSON-encoded arche.Delivery per line. Blank lines and
// lines starting with '#' are skipped. Rejected deliveries are logged and
// counted, including events with a missing or unknown type; malformed JSON
// aborts the replay.
func replay(p *arche.Project, r io.Reader) (replayStats, error) {
	var stats replayStats
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var d arche.Delivery
		if err := json.Unmarshal([]byte(text), &d); err != nil {
			if !errors.Is(err, progress.ErrInvalidEvent) {
				return stats, fmt.Errorf("line %d: %w", line, err)
			}
			logger.Warn("Delivery rejected", "line", line, "err", err)
			stats.Rejected++
			continue
		}
		if err := p.Deliver(d); err != nil {
			logger.Warn("Delivery rejected", "line", line, "err", err)
			stats.Rejected++
			continue
		}
		stats.Delivered++
	}
	return stats, scanner.Err()
}
