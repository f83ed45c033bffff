package port

import "time"

// Clock нужен, чтобы featured_until и временные метки можно было проверять в тестах
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
