package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"finch/internal/market"
)

// CSV 历史数据：open_time,open,high,low,close,volume，
// open_time 为毫秒时间戳，可带表头，# 开头的行视为注释。

// LoadCSV 从文件读取 K 线。
func LoadCSV(path string) ([]market.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV 从任意 reader 读取 K 线。
func ReadCSV(r io.Reader) ([]market.Candle, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var out []market.Candle
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) < 6 {
			return nil, fmt.Errorf("backtest: csv line %d: want 6 columns, got %d", line, len(rec))
		}
		if line == 1 && !isNumeric(rec[0]) {
			continue // header
		}
		openTime, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("backtest: csv line %d: open_time: %w", line, err)
		}
		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("backtest: csv line %d col %d: %w", line, i+2, err)
			}
			vals[i] = v
		}
		out = append(out, market.Candle{
			OpenTime: openTime,
			Open:     vals[0],
			High:     vals[1],
			Low:      vals[2],
			Close:    vals[3],
			Volume:   vals[4],
		})
	}
	return out, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
