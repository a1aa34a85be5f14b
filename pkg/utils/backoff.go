package utils

import "time"

// Backoff 指数退避，消息重试与模型调用重试共用
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// Delay 第 retry 次重试前的等待时间（retry 从 0 开始），不超过 Max
func (b Backoff) Delay(retry int) time.Duration {
	d := b.Initial
	for i := 0; i < retry; i++ {
		d = time.Duration(float64(d) * b.Multiplier)
		if d > b.Max {
			return b.Max
		}
	}
	return d
}

// Normalize 非法配置回退到 def，Max 不小于 Initial
func (b Backoff) Normalize(def Backoff) Backoff {
	if b.Initial <= 0 || b.Multiplier < 1 {
		b = def
	}
	if b.Max < b.Initial {
		b.Max = b.Initial
	}
	return b
}
