package logging

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorDim    = "\x1b[2m"
)

// subject holds the fields the console handler lifts into the line prefix.
type subject struct {
	lesson    string
	stage     string
	component string
}

// take claims key for the prefix. It reports false for ordinary fields.
func (s *subject) take(key string, v slog.Value) bool {
	var slot *string
	switch key {
	case FieldLesson:
		slot = &s.lesson
	case FieldStage:
		slot = &s.stage
	case FieldComponent:
		slot = &s.component
	default:
		return false
	}
	if *slot == "" {
		*slot = strings.TrimSpace(plainValue(v))
	}
	return true
}

// String renders "lesson · stage (component)", dropping empty parts.
func (s subject) String() string {
	head := s.lesson
	if s.stage != "" {
		if head != "" {
			head += " · "
		}
		head += s.stage
	}
	switch {
	case head == "":
		return s.component
	case s.component == "":
		return head
	}
	return head + " (" + s.component + ")"
}

// consoleHandler writes one human-readable line per record:
//
//	2024-05-01T10:00:00Z INFO lesson · stage (component): message key=value
//
// Attributes bound with WithAttrs are rendered once and reused.
type consoleHandler struct {
	mu         *sync.Mutex
	sinks      sinkSet
	level      slog.Leveler
	withSource bool
	group      string
	subject    subject
	bound      string
}

func newConsoleHandler(sinks sinkSet, level slog.Leveler, withSource bool) *consoleHandler {
	return &consoleHandler{mu: new(sync.Mutex), sinks: sinks, level: level, withSource: withSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	var tail strings.Builder
	tail.WriteString(h.bound)
	for _, attr := range attrs {
		writeAttr(&tail, &next.subject, h.group, attr)
	}
	next.bound = tail.String()
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = joinKey(h.group, name)
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	subj := h.subject
	var tail strings.Builder
	tail.WriteString(h.bound)
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(&tail, &subj, h.group, attr)
		return true
	})

	var body strings.Builder
	if prefix := subj.String(); prefix != "" {
		body.WriteString(prefix)
		body.WriteString(": ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	body.WriteString(msg)
	if h.withSource {
		if src := record.Source(); src != nil {
			body.WriteString(" [" + sourceLocation(src) + "]")
		}
	}
	body.WriteString(tail.String())
	body.WriteByte('\n')

	when := record.Time
	if when.IsZero() {
		when = time.Now()
	}
	stamp := when.UTC().Format(time.RFC3339)
	label := levelLabel(record.Level)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, out := range h.sinks {
		var line string
		if out.tty {
			line = colorDim + stamp + colorReset + " " + paintLevel(record.Level, label) + " " + body.String()
		} else {
			line = stamp + " " + label + " " + body.String()
		}
		if _, err := out.w.Write([]byte(line)); err != nil {
			return err
		}
	}
	return nil
}

// writeAttr appends " key=value" for attr, descending into groups. Subject
// fields at the top level are diverted into subj instead.
func writeAttr(b *strings.Builder, subj *subject, group string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := group
		if attr.Key != "" {
			inner = joinKey(group, attr.Key)
		}
		for _, member := range attr.Value.Group() {
			writeAttr(b, subj, inner, member)
		}
		return
	}
	if group == "" && subj.take(attr.Key, attr.Value) {
		return
	}
	key := joinKey(group, attr.Key)
	if key == "" {
		return
	}
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(renderValue(attr.Value))
}

func joinKey(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}

func plainValue(v slog.Value) string {
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.String()
}

// renderValue formats v for a key=value pair, quoting strings that contain
// whitespace, '=' or quotes.
func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindBool, slog.KindInt64, slog.KindUint64, slog.KindDuration:
		return v.String()
	}
	s := plainValue(v)
	if s == "" || strings.ContainsAny(s, "=\"") || strings.IndexFunc(s, func(r rune) bool { return r <= ' ' }) >= 0 {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}

func paintLevel(level slog.Level, label string) string {
	switch {
	case level >= slog.LevelError:
		return colorRed + label + colorReset
	case level >= slog.LevelWarn:
		return colorYellow + label + colorReset
	}
	return label
}
