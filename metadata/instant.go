package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

const nanosPerSecond = int64(time.Second)

var errInstantFormat = errors.New("instant must be decimal epoch seconds")

// Instant is a point in time with nanosecond precision. It encodes as decimal
// epoch seconds (JSON) or a [seconds, nanoseconds] pair (CBOR) and is always
// held in UTC so that decoded values compare equal to their originals.
type Instant struct {
	time.Time
}

// At wraps t, dropping its location and monotonic reading.
func At(t time.Time) Instant {
	return Instant{Time: t.UTC()}
}

// Unix returns the Instant sec seconds and nsec nanoseconds after the epoch.
func Unix(sec, nsec int64) Instant {
	return At(time.Unix(sec, nsec))
}

// Now returns the current instant.
func Now() Instant {
	return At(time.Now())
}

// Add returns i+d.
func (i Instant) Add(d time.Duration) Instant {
	return At(i.Time.Add(d))
}

func (i Instant) appendDecimal(dst []byte) []byte {
	sec := i.Unix()
	nsec := int64(i.Nanosecond())
	if sec < 0 && nsec > 0 {
		// -1s + 0.25s must print as -0.750000000
		dst = append(dst, '-')
		sec = -sec - 1
		nsec = nanosPerSecond - nsec
	}
	dst = strconv.AppendInt(dst, sec, 10)
	dst = append(dst, '.')
	frac := strconv.FormatInt(nsec, 10)
	for n := len(frac); n < 9; n++ {
		dst = append(dst, '0')
	}
	return append(dst, frac...)
}

// String renders the instant in the same decimal form used on the wire.
func (i Instant) String() string {
	return string(i.appendDecimal(nil))
}

// MarshalJSON implements json.Marshaler.
func (i Instant) MarshalJSON() ([]byte, error) {
	return i.appendDecimal(make([]byte, 0, 24)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *Instant) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	parsed, err := parseDecimal(s)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// MarshalCBOR implements cbor.Marshaler.
func (i Instant) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal([2]int64{i.Unix(), int64(i.Nanosecond())})
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (i *Instant) UnmarshalCBOR(data []byte) error {
	var pair [2]int64
	if err := cbor.Unmarshal(data, &pair); err != nil {
		return err
	}
	if pair[1] < 0 || pair[1] >= nanosPerSecond {
		return fmt.Errorf("instant nanoseconds out of range: %d", pair[1])
	}
	*i = Unix(pair[0], pair[1])
	return nil
}

func parseDecimal(s string) (Instant, error) {
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if !isDigits(whole) || (hasFrac && !isDigits(frac)) {
		return Instant{}, errInstantFormat
	}
	if len(frac) > 9 {
		frac = frac[:9]
	}
	frac += strings.Repeat("0", 9-len(frac))

	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Instant{}, fmt.Errorf("%w: %v", errInstantFormat, err)
	}
	nsec, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return Instant{}, fmt.Errorf("%w: %v", errInstantFormat, err)
	}

	if negative {
		if nsec > 0 {
			sec = -sec - 1
			nsec = nanosPerSecond - nsec
		} else {
			sec = -sec
		}
	}
	return Unix(sec, nsec), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
