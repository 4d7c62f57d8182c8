package replication

import (
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// timestampLayout matches the upstream TIMESTAMP entry format, e.g.
// "2024-03-01 17:00:02.123456+00".
const timestampLayout = "2006-01-02 15:04:05.999999-07:00"

// readTimestamp parses a packet's TIMESTAMP entry. Upstream writes a
// two-character zone offset ("+00"/"-00") rather than Go's expected
// "+00:00", so it is expanded before parsing.
func readTimestamp(r io.Reader) (time.Time, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "reading timestamp entry")
	}
	s := strings.TrimSpace(string(raw))
	s = fixUTCOffset(s)
	t, err := time.Parse(timestampLayout, s)
	return t, errors.Wrapf(err, "parsing timestamp %q", s)
}

// fixUTCOffset rewrites a trailing "+00" or "-00" offset to "+00:00" or
// "-00:00" so the "-07:00" zone directive in timestampLayout, which needs
// minutes, accepts it. Any other suffix is left untouched.
func fixUTCOffset(s string) string {
	if strings.HasSuffix(s, "+00") || strings.HasSuffix(s, "-00") {
		return s + ":00"
	}
	return s
}
