// Command loggerparse parses logger exports from disk and prints the result
// as JSON, without touching the database.
//
//	loggerparse [-summary] [-log-level debug] file.vi2 file.xlsx ...
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/thermomap/internal/logging"
	"github.com/JonMunkholm/thermomap/internal/models"
	"github.com/JonMunkholm/thermomap/internal/parser"
)

// fileSummary is printed instead of the full record list with -summary.
type fileSummary struct {
	FileName      string                `json:"fileName"`
	Format        models.FileFormat     `json:"format"`
	Success       bool                  `json:"success"`
	Error         string                `json:"error,omitempty"`
	RecordCount   int                   `json:"recordCount"`
	InvalidCount  int                   `json:"invalidCount"`
	Device        models.DeviceMetadata `json:"device"`
	FirstRecordAt string                `json:"firstRecordAt,omitempty"`
	LastRecordAt  string                `json:"lastRecordAt,omitempty"`
}

func main() {
	summary := flag.Bool("summary", false, "print per-file totals instead of every record")
	level := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	maxSize := flag.Int64("max-size", 10<<20, "maximum file size in bytes")
	flag.Parse()

	logger := logging.New(os.Stderr, *level, "text")

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: loggerparse [flags] file...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	registry := parser.NewRegistry()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	failed := 0
	for _, path := range flag.Args() {
		result, err := parseFile(registry, path, *maxSize)
		if err != nil {
			logger.Error("read failed", "file", path, "error", err)
			failed++
			continue
		}
		if !result.OK() {
			logger.Warn("parse failed", "file", path, "error", result.ErrorMessage)
			failed++
		} else {
			logger.Debug("parsed", "file", path, "records", result.RecordCount)
		}

		var out any = result
		if *summary {
			out = summarize(result)
		}
		if err := enc.Encode(out); err != nil {
			logger.Error("write output", "error", err)
			os.Exit(1)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func parseFile(registry *parser.Registry, path string, maxSize int64) (models.ParsedFileData, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.ParsedFileData{}, err
	}
	if info.Size() > maxSize {
		return models.ParsedFileData{}, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), maxSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ParsedFileData{}, err
	}
	return registry.Parse(filepath.Base(path), data), nil
}

func summarize(p models.ParsedFileData) fileSummary {
	s := fileSummary{
		FileName:     p.FileName,
		Format:       p.Format,
		Success:      p.OK(),
		Error:        p.ErrorMessage,
		RecordCount:  p.RecordCount,
		InvalidCount: p.InvalidCount(),
		Device:       p.DeviceMetadata,
	}
	if p.StartDate != nil {
		s.FirstRecordAt = p.StartDate.Format("2006-01-02 15:04:05")
	}
	if p.EndDate != nil {
		s.LastRecordAt = p.EndDate.Format("2006-01-02 15:04:05")
	}
	return s
}
