package domain

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"time"
)

// NewID returns a unique identifier that sorts by creation time:
// the millisecond unix timestamp followed by a random base36 suffix.
func NewID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + randomSuffix()
}

func randomSuffix() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// rand.Read failing means the platform entropy source is broken;
		// fall back to the clock rather than panic.
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	s := strconv.FormatUint(binary.BigEndian.Uint64(b[:]), 36)
	if len(s) > 9 {
		s = s[:9]
	}
	for len(s) < 9 {
		s = "0" + s
	}
	return s
}
