package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finch/internal/logger"
	"finch/internal/strategy"
)

// 信号外发通知。引擎对通知失败只记日志，不回滚信号。

// Notifier 把一条已触发信号推送到某个外部渠道。
type Notifier interface {
	NotifySignal(ctx context.Context, symbol, interval, strategyName string, sig strategy.Signal) error
}

// FormatSignal 渲染统一的通知文本。
func FormatSignal(symbol, interval, strategyName string, sig strategy.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* %s %s\n", strings.ToUpper(string(sig.Action)), symbol, interval)
	fmt.Fprintf(&b, "策略: %s\n", strategyName)
	fmt.Fprintf(&b, "价格: %.8g\n", sig.Price)
	fmt.Fprintf(&b, "时间: %s\n", time.UnixMilli(sig.Timestamp).UTC().Format("2006-01-02 15:04:05"))
	if sig.Reason != "" {
		fmt.Fprintf(&b, "依据: %s", sig.Reason)
	}
	return b.String()
}

// Log 是兜底通知器，把信号打进结构化日志。
type Log struct{}

func (Log) NotifySignal(_ context.Context, symbol, interval, strategyName string, sig strategy.Signal) error {
	logger.Infof("signal %s %s %s strategy=%s price=%.8g reason=%q",
		sig.Action, symbol, interval, strategyName, sig.Price, sig.Reason)
	return nil
}
