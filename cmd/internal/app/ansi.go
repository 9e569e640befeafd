package app

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	ansiReset   = "\x1b[0m"
	ansiBright  = "\x1b[1m"
	ansiDim     = "\x1b[2m"
	ansiRed     = "\x1b[31m"
	ansiGreen   = "\x1b[32m"
	ansiYellow  = "\x1b[33m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string { return ansiPattern.ReplaceAllString(s, "") }

func paint(s, code string, on bool) string {
	if !on || code == "" {
		return s
	}
	return code + s + ansiReset
}

func colorizeMethod(m string, on bool) string {
	switch m {
	case "GET":
		return paint(m, ansiBlue, on)
	case "POST":
		return paint(m, ansiGreen, on)
	case "PATCH", "PUT":
		return paint(m, ansiYellow, on)
	case "DELETE":
		return paint(m, ansiRed, on)
	default:
		return paint(m, ansiMagenta, on)
	}
}

func colorizeStatus(code int, on bool) string {
	return paint(strconv.Itoa(code), statusColor(statusClass(code)), on)
}

func colorizeClass(class string, on bool) string {
	return paint(class, statusColor(class), on)
}

func statusColor(class string) string {
	switch class {
	case "2xx":
		return ansiGreen
	case "3xx":
		return ansiCyan
	case "4xx":
		return ansiYellow
	case "5xx":
		return ansiRed
	default:
		return ""
	}
}

// colorizeDuration renders milliseconds with a suffix; slow calls stand out.
func colorizeDuration(ms int64, on bool) string {
	s := strconv.FormatInt(ms, 10) + "ms"
	switch {
	case ms >= 1000:
		return paint(s, ansiRed, on)
	case ms >= 250:
		return paint(s, ansiYellow, on)
	default:
		return paint(s, ansiDim, on)
	}
}

// colorizeState paints realtime connection states.
func colorizeState(s string, on bool) string {
	switch strings.ToLower(s) {
	case "connected":
		return paint(s, ansiGreen, on)
	case "connecting", "closing":
		return paint(s, ansiYellow, on)
	case "disconnected":
		return paint(s, ansiRed, on)
	default:
		return s
	}
}

func colorizeResult(r string, on bool) string {
	switch r {
	case "success", "ok":
		return paint(r, ansiGreen, on)
	case "redirect":
		return paint(r, ansiCyan, on)
	case "client_error":
		return paint(r, ansiYellow, on)
	case "server_error", "fail", "error":
		return paint(r, ansiRed, on)
	default:
		return r
	}
}
