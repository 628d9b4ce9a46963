package economy

import "time"

// Clock supplies wall time in unix milliseconds.
type Clock interface {
	NowMs() int64
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) NowMs() int64 { return time.Now().UnixMilli() }
