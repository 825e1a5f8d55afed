package market

import (
	"strconv"
	"strings"
	"time"
)

// ParseInterval 将交易所周期字符串（1m/5m/1h/4h/1d/1w）转为时长。
func ParseInterval(interval string) (time.Duration, bool) {
	iv := strings.ToLower(strings.TrimSpace(interval))
	if len(iv) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(iv[:len(iv)-1])
	if err != nil || n <= 0 {
		return 0, false
	}
	switch iv[len(iv)-1] {
	case 's':
		return time.Duration(n) * time.Second, true
	case 'm':
		return time.Duration(n) * time.Minute, true
	case 'h':
		return time.Duration(n) * time.Hour, true
	case 'd':
		return time.Duration(n) * 24 * time.Hour, true
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, true
	default:
		return 0, false
	}
}
