package cartstore_test

import "time"

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)
