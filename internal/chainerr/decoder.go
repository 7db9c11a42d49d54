package chainerr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// DecodedError is a failure classified into a Category. Raw keeps the
// original text for logs.
type DecodedError struct {
	Category Category
	Message  string
	Raw      string
	Code     *uint64
}

// New builds a DecodedError for failures detected locally, before any
// network round-trip.
func New(category Category, format string, args ...any) *DecodedError {
	msg := fmt.Sprintf(format, args...)
	return &DecodedError{Category: category, Message: msg, Raw: msg}
}

func (e *DecodedError) Error() string {
	if e == nil {
		return string(Unknown)
	}
	if e.Raw != "" {
		return fmt.Sprintf("%s: %s", e.Category, e.Raw)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// UserMessage is what callers show to end users. Raw text is only exposed
// when nothing better is known.
func (e *DecodedError) UserMessage() string {
	if e.Category == Unknown && e.Raw != "" {
		return e.Raw
	}
	return e.Message
}

func (e *DecodedError) Retryable() bool {
	return e.Category.Retryable()
}

var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)MoveAbort\((.*),\s*(\d+)\)`),
	regexp.MustCompile(`(?i)error code:?\s*(\d+)`),
	regexp.MustCompile(`(?i)abort code:?\s*(\d+)`),
}

var structuredCodePaths = []string{"code", "errorCode", "details.code"}

// Decode classifies any failure signal: an error, a string, a JSON payload
// or a decoded JSON value. It never panics and never returns nil.
func Decode(signal any) (decoded *DecodedError) {
	defer func() {
		if r := recover(); r != nil {
			decoded = &DecodedError{Category: Unknown, Message: Unknown.Message(), Raw: fmt.Sprint(signal)}
		}
	}()

	if signal == nil {
		return &DecodedError{Category: Unknown, Message: Unknown.Message()}
	}
	if err, ok := signal.(error); ok {
		var de *DecodedError
		if errors.As(err, &de) {
			if de == nil {
				return &DecodedError{Category: Unknown, Message: Unknown.Message()}
			}
			return de
		}
	}

	raw := rawText(signal)
	code, found := structuredCode(signal)
	if !found {
		code, found = textCode(raw)
	}
	if found {
		c := code
		if category, ok := abortCodes[code]; ok {
			return &DecodedError{Category: category, Message: category.Message(), Raw: raw, Code: &c}
		}
		category := classify(signal, raw)
		return &DecodedError{Category: category, Message: category.Message(), Raw: raw, Code: &c}
	}

	category := classify(signal, raw)
	return &DecodedError{Category: category, Message: category.Message(), Raw: raw}
}

func rawText(signal any) string {
	switch s := signal.(type) {
	case error:
		return s.Error()
	case string:
		return s
	case []byte:
		return string(s)
	case json.RawMessage:
		return string(s)
	case fmt.Stringer:
		return s.String()
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprint(s)
		}
		return string(b)
	}
}

func structuredCode(signal any) (uint64, bool) {
	switch s := signal.(type) {
	case error:
		var dataErr rpc.DataError
		if errors.As(s, &dataErr) {
			if data := dataErr.ErrorData(); data != nil {
				if code, ok := structuredCode(data); ok {
					return code, true
				}
				if text, ok := data.(string); ok {
					if code, ok := textCode(text); ok {
						return code, true
					}
				}
			}
		}
		var rpcErr rpc.Error
		if errors.As(s, &rpcErr) && rpcErr.ErrorCode() >= 0 {
			return uint64(rpcErr.ErrorCode()), true
		}
		return probeJSON(s.Error())
	case string:
		return probeJSON(s)
	case []byte:
		return probeJSON(string(s))
	case json.RawMessage:
		return probeJSON(string(s))
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return 0, false
		}
		return probeJSON(string(b))
	}
}

func probeJSON(text string) (uint64, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") || !gjson.Valid(text) {
		return 0, false
	}
	res := gjson.Parse(text)
	for _, path := range structuredCodePaths {
		v := res.Get(path)
		switch v.Type {
		case gjson.Number:
			// negative values are JSON-RPC protocol codes, not aborts
			if v.Num >= 0 && v.Num == float64(uint64(v.Num)) {
				return uint64(v.Num), true
			}
		case gjson.String:
			if code, err := strconv.ParseUint(v.Str, 10, 64); err == nil {
				return code, true
			}
		}
	}
	// nested messages carry the abort text
	for _, path := range []string{"message", "error", "details.message"} {
		if v := res.Get(path); v.Type == gjson.String {
			if code, ok := textCode(v.Str); ok {
				return code, true
			}
		}
	}
	return 0, false
}

func textCode(text string) (uint64, bool) {
	for _, re := range codePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		code, err := strconv.ParseUint(m[len(m)-1], 10, 64)
		if err != nil {
			continue
		}
		return code, true
	}
	return 0, false
}

type substringRule struct {
	category Category
	needles  []string
}

var substringRules = []substringRule{
	{InsufficientFunds, []string{"insufficient", "gas"}},
	{NotAuthorized, []string{"unauthorized", "not authorized", "sender", "signature", "user rejected"}},
	{ResourceNotFound, []string{"notexists", "not found", "does not exist", "deleted"}},
	{EventClosed, []string{"closed"}},
	{AlreadyClaimed, []string{"already"}},
	{NotWhitelisted, []string{"whitelist"}},
	{InvalidInput, []string{"invalid"}},
}

var transportNeedles = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"timed out",
	"timeout",
	"unexpected eof",
	"broken pipe",
	"tls handshake",
	"service unavailable",
	"bad gateway",
}

func classify(signal any, raw string) Category {
	if err, ok := signal.(error); ok && isTransport(err) {
		return TransportFailure
	}
	lower := strings.ToLower(raw)
	for _, needle := range transportNeedles {
		if strings.Contains(lower, needle) {
			return TransportFailure
		}
	}
	for _, rule := range substringRules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				return rule.category
			}
		}
	}
	return Unknown
}

func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr rpc.HTTPError
	return errors.As(err, &httpErr)
}
