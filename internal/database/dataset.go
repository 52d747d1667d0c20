package database

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/pageza/mealplan-bot/backend/config"
	"github.com/pageza/mealplan-bot/backend/internal/logger"
	"github.com/pageza/mealplan-bot/backend/internal/model"
)

// Column candidates, tried as exact (case-insensitive) header names first
// and then as header substrings.
var (
	nameColumns     = []string{"item", "food", "name", "description"}
	caloriesColumns = []string{"calories", "kcal", "energy_kcal"}
	proteinColumns  = []string{"protein"}
	fatColumns      = []string{"fat"}
	carbsColumns    = []string{"carbs", "carbohydrate"}
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrMissingColumns is returned when the dataset has no name or calories column
var ErrMissingColumns = errors.New("missing required nutrition columns")

// ObjectOpener opens objects in remote storage
type ObjectOpener interface {
	OpenObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// LoadStats summarises a dataset load
type LoadStats struct {
	Rows    int
	Loaded  int
	Skipped int
}

// OpenDataset opens a local file or, for s3://bucket/key sources, an S3 object
func OpenDataset(ctx context.Context, source string, s3 ObjectOpener) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "s3://") {
		if s3 == nil {
			return nil, fmt.Errorf("no S3 client configured for %s", source)
		}
		bucket, key, err := config.ParseS3URI(source)
		if err != nil {
			return nil, err
		}
		return s3.OpenObject(ctx, bucket, key)
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	return f, nil
}

// LoadNutritionDataset opens source and parses it as a nutrition CSV
func LoadNutritionDataset(ctx context.Context, source string, s3 ObjectOpener) ([]model.NutritionRecord, LoadStats, error) {
	rc, err := OpenDataset(ctx, source, s3)
	if err != nil {
		return nil, LoadStats{}, err
	}
	defer rc.Close()

	records, stats, err := ReadNutritionCSV(rc)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read dataset %s: %w", source, err)
	}

	logger.Info("nutrition dataset loaded",
		zap.String("source", source),
		zap.Int("rows", stats.Rows),
		zap.Int("loaded", stats.Loaded),
		zap.Int("skipped", stats.Skipped),
	)
	return records, stats, nil
}

// ReadNutritionCSV parses a nutrition CSV with loosely named columns.
// Each physical line is one row, so an unbalanced quote only costs its own line.
// Rows that cannot be parsed, or that lack a name or numeric calories, are skipped.
func ReadNutritionCSV(r io.Reader) ([]model.NutritionRecord, LoadStats, error) {
	var stats LoadStats

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, stats, err
	}
	lines := bufio.NewReader(bytes.NewReader(decodeDataset(raw)))

	var (
		header    []string
		nameCol   int
		kcalCol   int
		macroCols map[string]int
		records   []model.NutritionRecord
		lineNo    int
	)
	for {
		line, readErr := lines.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, stats, readErr
		}
		lineNo++
		line = strings.TrimRight(line, "\r\n")

		if strings.TrimSpace(line) != "" {
			row, err := parseLine(line)
			switch {
			case header == nil:
				if err != nil {
					return nil, stats, fmt.Errorf("failed to read header: %w", err)
				}
				header = row
				nameCol = pickColumn(header, nameColumns)
				kcalCol = pickColumn(header, caloriesColumns)
				if nameCol < 0 || kcalCol < 0 {
					return nil, stats, ErrMissingColumns
				}
				macroCols = map[string]int{
					model.MacroProtein: pickColumn(header, proteinColumns),
					model.MacroFat:     pickColumn(header, fatColumns),
					model.MacroCarbs:   pickColumn(header, carbsColumns),
				}
			case err != nil:
				stats.Rows++
				stats.Skipped++
				logger.Debug("skipping malformed dataset row", zap.Int("line", lineNo), zap.Error(err))
			default:
				stats.Rows++
				rec, ok := parseRow(row, nameCol, kcalCol, macroCols)
				if !ok {
					stats.Skipped++
					logger.Debug("skipping incomplete dataset row", zap.Int("line", lineNo))
					break
				}
				records = append(records, rec)
				stats.Loaded++
			}
		}

		if readErr != nil {
			break
		}
	}

	if header == nil {
		return nil, stats, fmt.Errorf("empty dataset: %w", ErrMissingColumns)
	}
	return records, stats, nil
}

// parseLine splits a single CSV line. A quote left open runs to the end of the line.
func parseLine(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	return reader.Read()
}

func parseRow(row []string, nameCol, kcalCol int, macroCols map[string]int) (model.NutritionRecord, bool) {
	name := strings.TrimSpace(field(row, nameCol))
	if name == "" {
		return model.NutritionRecord{}, false
	}
	kcal, ok := parseNumber(field(row, kcalCol))
	if !ok {
		return model.NutritionRecord{}, false
	}

	rec := model.NutritionRecord{FoodName: name, Calories: kcal, Macros: model.Macros{}}
	for macro, col := range macroCols {
		if col < 0 {
			continue
		}
		if v, ok := parseNumber(field(row, col)); ok {
			rec.Macros[macro] = v
		}
	}
	return rec, true
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// pickColumn returns the index of the best header for candidates, or -1
func pickColumn(header []string, candidates []string) int {
	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for _, cand := range candidates {
		for i, h := range lower {
			if h == cand {
				return i
			}
		}
	}

	for i, h := range lower {
		for _, cand := range candidates {
			if strings.Contains(h, cand) {
				return i
			}
		}
	}

	return -1
}

// decodeDataset strips a UTF-8 BOM and falls back to Latin-1 for non-UTF-8 input
func decodeDataset(raw []byte) []byte {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return raw
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return raw
	}
	return decoded
}
