package api

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"layerctl/pkg/logging"
)

// maxParamLen drops attribute values too long for a one-line status display,
// such as layer ids.
const maxParamLen = 20

// logAttr matches key=value and key="quoted value" pairs of the slog text format.
var logAttr = regexp.MustCompile(`([a-zA-Z0-9_\-.]+)=(?:"([^"]*)"|([^ ]+))`)

// handleLatestLog returns the last captured server log line.
func handleLatestLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"log": formatLogLine(logging.GlobalLogCapture.LastLine()),
	})
}

// formatLogLine renders a slog text line as "HH:MM:SS msg (k=v, ...)" with the
// attributes sorted and level, source and long values removed.
func formatLogLine(raw string) string {
	var msg, ts string
	var attrs []string

	for _, m := range logAttr.FindAllStringSubmatch(raw, -1) {
		key, val := m[1], m[2]
		if val == "" {
			val = m[3]
		}
		val = strings.TrimSpace(val)

		switch key {
		case "time":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				ts = t.Format("15:04:05")
			}
		case "level", "source":
		case "msg":
			msg = val
		default:
			if val != "" && len(val) <= maxParamLen {
				attrs = append(attrs, key+"="+val)
			}
		}
	}

	if msg == "" {
		return raw
	}
	sort.Strings(attrs)

	out := msg
	if ts != "" {
		out = ts + " " + msg
	}
	if len(attrs) > 0 {
		out = fmt.Sprintf("%s (%s)", out, strings.Join(attrs, ", "))
	}
	return out
}
