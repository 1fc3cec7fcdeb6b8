// Command mapf-run reads a RunInput JSON from a file argument (or stdin), plays
// the plan headlessly, and writes the sampled RunLog JSON to stdout.
//
// With -record the frames are also written as a JSONL recording, with -report
// as an HTML chart page, and with -db the run is added to the sqlite run
// history.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cxd309/mapf-player/internal/engine"
	"github.com/cxd309/mapf-player/internal/recorder"
	"github.com/cxd309/mapf-player/internal/report"
	"github.com/cxd309/mapf-player/internal/store"
)

func main() {
	var (
		recordDir  string
		reportPath string
		dbPath     string
	)
	flag.StringVar(&recordDir, "record", "", "directory for a JSONL recording of the frames")
	flag.StringVar(&reportPath, "report", "", "write an HTML chart report of the run to this file")
	flag.StringVar(&dbPath, "db", "", "sqlite run history to add the run to")
	flag.Parse()

	var (
		data []byte
		err  error
	)

	if flag.NArg() > 0 {
		data, err = os.ReadFile(flag.Arg(0))
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading input: %v\n", err)
		os.Exit(1)
	}

	if recordDir == "" && reportPath == "" && dbPath == "" {
		result, err := engine.RunJSON(string(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "playback error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(result)
		return
	}

	var input engine.RunInput
	if err := json.Unmarshal(data, &input); err != nil {
		fmt.Fprintf(os.Stderr, "invalid input JSON: %v\n", err)
		os.Exit(1)
	}
	if input.Meta.RunID == "" {
		input.Meta.RunID = recorder.NewRunID()
	}
	runLog, err := engine.Run(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "playback error: %v\n", err)
		os.Exit(1)
	}

	run := store.Run{
		ID:       runLog.Meta.RunID,
		Source:   "mapf-run",
		Agents:   len(input.Plan.Agents),
		Makespan: runLog.Makespan,
		Finished: true,
	}
	if flag.NArg() > 0 {
		run.Source = flag.Arg(0)
	}
	if recordDir != "" {
		if run.RecordingPath, run.Entries, err = record(recordDir, runLog); err != nil {
			fmt.Fprintf(os.Stderr, "recording error: %v\n", err)
			os.Exit(1)
		}
	}
	if reportPath != "" {
		if err := writeReport(reportPath, runLog); err != nil {
			fmt.Fprintf(os.Stderr, "report error: %v\n", err)
			os.Exit(1)
		}
	}
	if dbPath != "" {
		if err := addRun(dbPath, run); err != nil {
			fmt.Fprintf(os.Stderr, "run history error: %v\n", err)
			os.Exit(1)
		}
	}

	out, err := json.Marshal(runLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshaling output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func record(dir string, runLog engine.RunLog) (string, int64, error) {
	rec, err := recorder.Create(dir, runLog.Meta.RunID)
	if err != nil {
		return "", 0, err
	}
	for _, f := range runLog.Frames {
		if err := rec.Append(recorder.Entry{Kind: recorder.KindFrame, Frame: f}); err != nil {
			rec.Close()
			return "", 0, err
		}
	}
	if err := rec.Close(); err != nil {
		return "", 0, err
	}
	return rec.Path, rec.Len(), nil
}

func writeReport(path string, runLog engine.RunLog) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteHTML(f, runLog); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func addRun(path string, run store.Run) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return st.RecordRun(ctx, run)
}
