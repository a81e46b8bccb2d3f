// Package idgen generates the two identifier shapes the engine persists:
// a lexicographically time-sortable test-run id, and an opaque project id.
package idgen

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// TestRunID returns a 26-character ULID-like identifier: a 48-bit
// millisecond timestamp followed by 80 bits of crypto-random entropy,
// both Crockford base32 encoded. Two ids generated in increasing wall-clock
// order sort lexicographically in that same order, which google/uuid's v4
// output does not guarantee and spec §3.1 calls for on test_run_id.
func TestRunID() string {
	return testRunIDAt(time.Now())
}

func testRunIDAt(t time.Time) string {
	ms := uint64(t.UnixMilli())

	var entropy [10]byte
	if _, err := rand.Read(entropy[:]); err != nil {
		// crypto/rand failure on this platform is not recoverable here;
		// fall back to entropy derived from the timestamp alone rather
		// than panic mid-request. Ids made in the same millisecond on this
		// path are identical.
		for i := range entropy {
			entropy[i] = byte(ms >> (uint(i) % 8))
		}
	}

	var buf [16]byte
	buf[0] = byte(ms >> 40)
	buf[1] = byte(ms >> 32)
	buf[2] = byte(ms >> 24)
	buf[3] = byte(ms >> 16)
	buf[4] = byte(ms >> 8)
	buf[5] = byte(ms)
	copy(buf[6:], entropy[:])

	return encodeCrockford(buf)
}

// encodeCrockford base32-encodes 16 bytes (128 bits) into 26 Crockford
// characters, 5 bits at a time from the most significant bit; the final
// character holds the last 3 bits followed by two zero bits. (A canonical
// ULID pads at the front instead, so the strings differ from a ULID
// library's, but they still sort in byte order.)
func encodeCrockford(data [16]byte) string {
	out := make([]byte, 26)
	var acc uint64
	var bits uint
	pos := 0

	// Bytes are fed in one at a time; only the low, not-yet-emitted bits
	// of acc are ever read, so its overflow past 64 bits is harmless.
	write := func(b byte) {
		acc = acc<<8 | uint64(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = crockford[(acc>>bits)&0x1F]
			pos++
		}
	}
	for _, b := range data {
		write(b)
	}
	if bits > 0 {
		out[pos] = crockford[(acc<<(5-bits))&0x1F]
		pos++
	}
	return string(out[:pos])
}

// ProjectID returns a random v4 UUID string. Projects are looked up by
// name, not enumerated by creation order, so unlike TestRunID there is no
// sortability requirement to satisfy.
func ProjectID() string {
	return uuid.NewString()
}

// FormatTestRunTimestamp renders a time in the ISO-8601 form TestRun
// records use (spec §3.1).
func FormatTestRunTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
