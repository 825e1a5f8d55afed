package series

import (
	"errors"
	"fmt"
	"sync"

	"finch/internal/indicator"
	"finch/internal/market"
)

// Store 持有单一 symbol+interval 的有界 K 线表和至多一根未收盘 K 线。
// 所有读写走同一把锁；指标列在表内容变化后全量重算，保证回放一致性。

const (
	// DefaultMaxCandles 是历史表的默认容量上限。
	DefaultMaxCandles = 500
	// DefaultLookback 是快照的默认回看行数。
	DefaultLookback = 100
)

var (
	// ErrBadCandle 表示 K 线缺少必要字段（OpenTime 为零）。
	ErrBadCandle = errors.New("series: candle missing open time")
	// ErrNotAscending 表示批量序列的 OpenTime 不是严格递增。
	ErrNotAscending = errors.New("series: open times not strictly ascending")
	// ErrStaleCandle 表示收盘 K 线不晚于表中最后一根。
	ErrStaleCandle = errors.New("series: closed candle not newer than table head")
)

// Store 的零值不可用，必须经 New 构造。
type Store struct {
	mu      sync.Mutex
	max     int
	cfg     indicator.Config
	candles []market.Candle
	rows    []indicator.Row
	live    *market.Candle
}

// New 构造一个容量为 max 的存储；max<=0 回退 DefaultMaxCandles。
func New(max int, cfg indicator.Config) *Store {
	if max <= 0 {
		max = DefaultMaxCandles
	}
	return &Store{max: max, cfg: cfg}
}

// LoadHistory 用给定序列整体替换历史表并重算指标。
// 序列校验失败时表保持原状。
func (s *Store) LoadHistory(candles []market.Candle) error {
	if err := validateAscending(candles); err != nil {
		return err
	}
	dst := make([]market.Candle, len(candles))
	copy(dst, candles)
	if len(dst) > s.max {
		dst = dst[len(dst)-s.max:]
	}
	rows := indicator.Compute(dst, s.cfg)

	s.mu.Lock()
	s.candles = dst
	s.rows = rows
	s.live = nil
	s.mu.Unlock()
	return nil
}

// ApplyUpdate 处理一次行情推送。未收盘：整体替换未收盘 K 线，不动历史表，
// 指标在快照时惰性合并。已收盘：追加入表、按容量淘汰最旧、清空未收盘
// K 线并全量重算指标。
func (s *Store) ApplyUpdate(u market.CandleUpdate) error {
	if u.OpenTime <= 0 {
		return ErrBadCandle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !u.Closed {
		c := u.Candle
		s.live = &c
		return nil
	}

	if n := len(s.candles); n > 0 && u.OpenTime <= s.candles[n-1].OpenTime {
		return fmt.Errorf("%w: got %d, last %d", ErrStaleCandle, u.OpenTime, s.candles[n-1].OpenTime)
	}
	s.candles = append(s.candles, u.Candle)
	if len(s.candles) > s.max {
		s.candles = s.candles[len(s.candles)-s.max:]
	}
	s.rows = indicator.Compute(s.candles, s.cfg)
	s.live = nil
	return nil
}

// Snapshot 返回最近 lookback 行的只读拷贝。存在未收盘 K 线时把它合并进
// 视图：OpenTime 与最后一行相同则替换该行，更新则追加为额外一行；合并视图
// 的指标在全部留存 K 线上一次性重算，不落回存储。
func (s *Store) Snapshot(lookback int) Snapshot {
	if lookback <= 0 {
		lookback = DefaultLookback
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.candles) == 0 {
		return Snapshot{}
	}

	if s.live == nil {
		return Snapshot{Rows: cloneRows(tail(s.rows, lookback))}
	}

	merged := make([]market.Candle, len(s.candles))
	copy(merged, s.candles)
	want := lookback
	last := merged[len(merged)-1]
	switch {
	case s.live.OpenTime == last.OpenTime:
		merged[len(merged)-1] = *s.live
	case s.live.OpenTime > last.OpenTime:
		merged = append(merged, *s.live)
		want = lookback + 1
	default:
		// 过期的未收盘帧（断线重放），不进视图
	}
	rows := indicator.Compute(merged, s.cfg)
	return Snapshot{Rows: tail(rows, want)}
}

// HasData 报告历史表是否非空。
func (s *Store) HasData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.candles) > 0
}

// Len 返回历史表当前长度。
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.candles)
}

// Candles 返回历史表的值拷贝（供分析/展示，不含指标列）。
func (s *Store) Candles(limit int) []market.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.candles
	if limit > 0 && limit < len(src) {
		src = src[len(src)-limit:]
	}
	out := make([]market.Candle, len(src))
	copy(out, src)
	return out
}

// Clear 清空历史表和未收盘 K 线。
func (s *Store) Clear() {
	s.mu.Lock()
	s.candles = nil
	s.rows = nil
	s.live = nil
	s.mu.Unlock()
}

func validateAscending(candles []market.Candle) error {
	for i, c := range candles {
		if c.OpenTime <= 0 {
			return fmt.Errorf("%w: index %d", ErrBadCandle, i)
		}
		if i > 0 && c.OpenTime <= candles[i-1].OpenTime {
			return fmt.Errorf("%w: index %d (%d after %d)", ErrNotAscending, i, c.OpenTime, candles[i-1].OpenTime)
		}
	}
	return nil
}

func tail(rows []indicator.Row, n int) []indicator.Row {
	if n >= len(rows) {
		return rows
	}
	return rows[len(rows)-n:]
}

func cloneRows(rows []indicator.Row) []indicator.Row {
	out := make([]indicator.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
