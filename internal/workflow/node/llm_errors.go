package node

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
)

func IsResponseFormatUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "response_format"):
		return true
	case strings.Contains(msg, "json_schema"):
		return true
	case strings.Contains(msg, "unknown parameter") && strings.Contains(msg, "response"):
		return true
	case strings.Contains(msg, "invalid") && strings.Contains(msg, "response"):
		return true
	case strings.Contains(msg, "response_schema"):
		return true
	case strings.Contains(msg, "failed to parse"):
		return true
	default:
		return false
	}
}

// IsRetryableLLMError 超时、限流/配额与服务端 5xx 视为可重试，其余错误直接失败。
// 消息中带有明确状态码时只按状态码判断。
func IsRetryableLLMError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if m := statusCodePattern.FindStringSubmatch(msg); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code == 429 || (code >= 500 && code <= 504)
	}
	if statusNamePattern.MatchString(msg) {
		return true
	}
	for _, s := range retryableMarkers {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

var (
	// "status code: 429" (openai)、"error 503," (genai)、"http 502"
	statusCodePattern = regexp.MustCompile(`\b(?:status(?:\s*code)?|error|http)\s*[:=]?\s*([1-5]\d\d)\b`)
	// gRPC 风格状态名，如 genai 的 "status: unavailable"
	statusNamePattern = regexp.MustCompile(`\bstatus\s*[:=]\s*(?:unavailable|resource_exhausted|deadline_exceeded)\b`)
)

var retryableMarkers = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"rate limit",
	"rate_limit",
	"too many requests",
	"quota",
	"resource_exhausted",
	"internal server error",
	"bad gateway",
	"service unavailable",
	"gateway timeout",
	"overloaded",
	"connection reset",
}
