package signallog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"finch/internal/strategy"
)

// 信号流水落 SQLite，供 HTTP 查询与事后复盘。指标状态本身不持久化。

// Record 是一条已触发信号。Params 保存触发时刻的策略参数快照。
type Record struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SignalID  string         `gorm:"size:36;uniqueIndex" json:"signal_id"`
	Symbol    string         `gorm:"size:32;index" json:"symbol"`
	Interval  string         `gorm:"size:8" json:"interval"`
	Strategy  string         `gorm:"size:64" json:"strategy"`
	Action    string         `gorm:"size:8" json:"action"`
	Price     float64        `json:"price"`
	Timestamp int64          `gorm:"index" json:"timestamp"`
	Reason    string         `json:"reason"`
	Params    datatypes.JSON `json:"params"`
	CreatedAt time.Time      `json:"created_at"`
}

// TableName 固定表名，避免复数化。
func (Record) TableName() string { return "signal_log" }

// Store 包装一个 gorm/SQLite 连接。
type Store struct {
	db *gorm.DB
}

// Open 打开（必要时创建）信号库。WAL + busy_timeout，读写并存时不互卡。
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("signallog: database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

// Append 写入一条信号，SignalID 缺省时生成 uuid。
func (s *Store) Append(ctx context.Context, symbol, interval, strategyKey string, sig strategy.Signal, params strategy.Params) (Record, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Record{}, fmt.Errorf("signallog: marshal params: %w", err)
	}
	rec := Record{
		SignalID:  uuid.NewString(),
		Symbol:    symbol,
		Interval:  interval,
		Strategy:  strategyKey,
		Action:    string(sig.Action),
		Price:     sig.Price,
		Timestamp: sig.Timestamp,
		Reason:    sig.Reason,
		Params:    datatypes.JSON(raw),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Recent 返回最近 limit 条，新的在前。
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []Record
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// Close 释放底层连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
