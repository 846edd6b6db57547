package exchange

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/stratevo/pkg/core"
)

var (
	ErrEmptyFile     = errors.New("csv file has no rows")
	csvHeaders       = []string{"time", "open", "close", "low", "high", "volume"}
	defaultHeaderMap = map[string]int{
		"time": 0, "open": 1, "close": 2, "low": 3, "high": 4, "volume": 5,
	}
)

// PairFeed describes the CSV file holding one pair's history
type PairFeed struct {
	Pair      string
	File      string
	Timeframe string
}

// CSVFeed is a historical bar source backed by CSV files.
// Candles are kept per pair, ordered by time, at the target timeframe.
type CSVFeed struct {
	Feeds           map[string]PairFeed
	CandlesByPair   map[string][]core.Candle
	TargetTimeframe string
}

// NewCSVFeed loads every feed and resamples it to targetTimeframe.
// An empty target keeps each file at its own timeframe.
func NewCSVFeed(targetTimeframe string, feeds ...PairFeed) (*CSVFeed, error) {
	csvFeed := &CSVFeed{
		Feeds:           make(map[string]PairFeed),
		CandlesByPair:   make(map[string][]core.Candle),
		TargetTimeframe: targetTimeframe,
	}

	for _, feed := range feeds {
		csvFeed.Feeds[feed.Pair] = feed

		candles, err := readCandlesFromFile(feed)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", feed.File, err)
		}

		if targetTimeframe != "" && targetTimeframe != feed.Timeframe {
			if candles, err = Resample(candles, feed.Timeframe, targetTimeframe); err != nil {
				return nil, fmt.Errorf("resample %s: %w", feed.Pair, err)
			}
		}

		csvFeed.CandlesByPair[feed.Pair] = candles
	}

	return csvFeed, nil
}

func readCandlesFromFile(feed PairFeed) ([]core.Candle, error) {
	csvFile, err := os.Open(feed.File)
	if err != nil {
		return nil, err
	}
	defer csvFile.Close()

	return ReadCandles(csvFile, feed.Pair)
}

// ReadCandles parses CSV rows in the time,open,close,low,high,volume layout.
// A header row is optional; extra named columns become candle metadata.
// Rows are sorted by time and duplicate timestamps are rejected.
func ReadCandles(r io.Reader, pair string) ([]core.Candle, error) {
	csvLines, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(csvLines) == 0 {
		return nil, ErrEmptyFile
	}

	headerMap, additionalHeaders, hasCustomHeaders := parseHeaders(csvLines[0])
	if hasCustomHeaders {
		csvLines = csvLines[1:]
	}
	for _, name := range csvHeaders {
		if _, ok := headerMap[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	candles := make([]core.Candle, 0, len(csvLines))
	for i, line := range csvLines {
		candle, err := parseCandleFromLine(line, headerMap, additionalHeaders, pair)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		candles = append(candles, candle)
	}

	sort.SliceStable(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	if err := core.CheckOrdered(candles); err != nil {
		return nil, err
	}

	return candles, nil
}

// parseHeaders maps column names to indexes; a numeric first cell means there is no header
func parseHeaders(headers []string) (headerMap map[string]int, additional []string, hasCustomHeaders bool) {
	if _, err := strconv.Atoi(headers[0]); err == nil {
		return defaultHeaderMap, nil, false
	}

	headerMap = make(map[string]int)
	for index, header := range headers {
		headerMap[header] = index

		if _, exists := defaultHeaderMap[header]; !exists {
			additional = append(additional, header)
		}
	}

	return headerMap, additional, true
}

func parseCandleFromLine(line []string, headerMap map[string]int, additionalHeaders []string, pair string) (core.Candle, error) {
	field := func(name string) (string, error) {
		index := headerMap[name]
		if index >= len(line) {
			return "", fmt.Errorf("missing value for %q", name)
		}
		return line[index], nil
	}

	raw, err := field("time")
	if err != nil {
		return core.Candle{}, err
	}
	timestamp, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return core.Candle{}, err
	}

	candle := core.Candle{
		Time: time.Unix(timestamp, 0).UTC(),
		Pair: pair,
	}

	targets := []struct {
		name string
		dst  *float64
	}{
		{"open", &candle.Open},
		{"close", &candle.Close},
		{"low", &candle.Low},
		{"high", &candle.High},
		{"volume", &candle.Volume},
	}
	for _, target := range targets {
		if raw, err = field(target.name); err != nil {
			return core.Candle{}, err
		}
		if *target.dst, err = strconv.ParseFloat(raw, 64); err != nil {
			return core.Candle{}, err
		}
	}

	if len(additionalHeaders) > 0 {
		candle.Metadata = make(map[string]float64, len(additionalHeaders))
		for _, header := range additionalHeaders {
			if raw, err = field(header); err != nil {
				return core.Candle{}, err
			}
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return core.Candle{}, err
			}
			candle.Metadata[header] = value
		}
	}

	return candle, nil
}

// WriteCandles writes candles in the layout read by ReadCandles, header included
func WriteCandles(w io.Writer, candles []core.Candle) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeaders); err != nil {
		return err
	}
	for _, candle := range candles {
		if err := writer.Write(candle.ToSlice(8)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Limit keeps only the trailing duration of every pair's history
func (c *CSVFeed) Limit(duration time.Duration) *CSVFeed {
	for pair, candles := range c.CandlesByPair {
		if len(candles) == 0 {
			continue
		}

		start := candles[len(candles)-1].Time.Add(-duration)
		c.CandlesByPair[pair] = lo.Filter(candles, func(candle core.Candle, _ int) bool {
			return candle.Time.After(start)
		})
	}
	return c
}

// CandlesByPeriod returns the candles of pair within [start, end].
// Zero times leave that side of the range open.
func (c *CSVFeed) CandlesByPeriod(_ context.Context, pair string, start, end time.Time) ([]core.Candle, error) {
	candles, ok := c.CandlesByPair[pair]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrPairNotFound, pair)
	}

	return lo.Filter(candles, func(candle core.Candle, _ int) bool {
		if !start.IsZero() && candle.Time.Before(start) {
			return false
		}
		return end.IsZero() || !candle.Time.After(end)
	}), nil
}

// Resample aggregates candles from one timeframe into a coarser one.
// Leading candles before the first period boundary and a trailing
// incomplete period are dropped.
func Resample(candles []core.Candle, sourceTimeframe, targetTimeframe string) ([]core.Candle, error) {
	if sourceTimeframe == "" {
		return nil, fmt.Errorf("source timeframe is required to resample to %s", targetTimeframe)
	}
	if len(candles) == 0 || sourceTimeframe == targetTimeframe {
		return candles, nil
	}

	startIdx, err := findFirstPeriodCandle(candles, sourceTimeframe, targetTimeframe)
	if err != nil {
		return nil, err
	}

	targetCandles := make([]core.Candle, 0, len(candles)/4)
	var (
		current  core.Candle
		inPeriod bool
	)

	for _, candle := range candles[startIdx:] {
		isLast, err := isLastCandlePeriod(candle.Time, sourceTimeframe, targetTimeframe)
		if err != nil {
			return nil, err
		}

		if !inPeriod {
			current = candle
			inPeriod = true
		} else {
			current.High = math.Max(current.High, candle.High)
			current.Low = math.Min(current.Low, candle.Low)
			current.Close = candle.Close
			current.Volume += candle.Volume
		}

		if isLast {
			targetCandles = append(targetCandles, current)
			inPeriod = false
		}
	}

	return targetCandles, nil
}

func findFirstPeriodCandle(candles []core.Candle, sourceTimeframe, targetTimeframe string) (int, error) {
	for i := range candles {
		isFirst, err := isFirstCandlePeriod(candles[i].Time, sourceTimeframe, targetTimeframe)
		if err != nil {
			return 0, err
		}
		if isFirst {
			return i, nil
		}
	}
	return 0, nil
}

func isFirstCandlePeriod(t time.Time, fromTimeframe, targetTimeframe string) (bool, error) {
	fromDuration, err := str2duration.ParseDuration(fromTimeframe)
	if err != nil {
		return false, err
	}

	prev := t.Add(-fromDuration).UTC()
	return isLastCandlePeriod(prev, fromTimeframe, targetTimeframe)
}

func isLastCandlePeriod(t time.Time, fromTimeframe, targetTimeframe string) (bool, error) {
	if fromTimeframe == targetTimeframe {
		return true, nil
	}

	fromDuration, err := str2duration.ParseDuration(fromTimeframe)
	if err != nil {
		return false, err
	}

	next := t.Add(fromDuration).UTC()
	return isTimeOnPeriodBoundary(next, targetTimeframe)
}

func isTimeOnPeriodBoundary(t time.Time, targetTimeframe string) (bool, error) {
	switch targetTimeframe {
	case "1m":
		return t.Second() == 0, nil
	case "5m":
		return t.Minute()%5 == 0 && t.Second() == 0, nil
	case "15m":
		return t.Minute()%15 == 0 && t.Second() == 0, nil
	case "30m":
		return t.Minute()%30 == 0 && t.Second() == 0, nil
	case "1h":
		return t.Minute() == 0 && t.Second() == 0, nil
	case "4h":
		return t.Hour()%4 == 0 && t.Minute() == 0 && t.Second() == 0, nil
	case "1d":
		return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0, nil
	case "1w":
		return t.Weekday() == time.Sunday && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0, nil
	default:
		return false, fmt.Errorf("invalid timeframe: %s", targetTimeframe)
	}
}
