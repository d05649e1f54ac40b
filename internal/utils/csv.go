package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"equitySim/internal/domain"
)

var barHeader = []string{"timestamp", "ticker", "open", "high", "low", "close", "adj_close", "volume"}

// WriteBarsToCSV saves a bar series to a CSV file.
func WriteBarsToCSV(bars []domain.Bar, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write(barHeader)
	for _, b := range bars {
		writer.Write([]string{
			b.Timestamp.Format(time.RFC3339),
			b.Ticker,
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.AdjClose, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		})
	}
	return writer.Error()
}

// ReadBarsFromCSV loads a bar series previously written by WriteBarsToCSV.
func ReadBarsFromCSV(filename string) ([]domain.Bar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("read %s: no data rows", filename)
	}

	bars := make([]domain.Bar, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(barHeader) {
			return nil, fmt.Errorf("read %s: row %d has %d columns, want %d", filename, i+2, len(rec), len(barHeader))
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("read %s: row %d timestamp: %w", filename, i+2, err)
		}
		vals := make([]float64, 6)
		for j := 0; j < 6; j++ {
			v, err := strconv.ParseFloat(rec[j+2], 64)
			if err != nil {
				return nil, fmt.Errorf("read %s: row %d column %s: %w", filename, i+2, barHeader[j+2], err)
			}
			vals[j] = v
		}
		bars = append(bars, domain.Bar{
			Timestamp: ts,
			Ticker:    rec[1],
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			AdjClose:  vals[4],
			Volume:    vals[5],
		})
	}
	return bars, nil
}
