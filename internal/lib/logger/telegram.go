package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Messenger pushes a log line to operator chats, filtered by the level each
// admin subscribed to.
type Messenger interface {
	SendMessageWithLevel(msg string, level slog.Level)
}

// telegramHandler tees records at or above minLevel to a Messenger while
// delegating everything to the wrapped handler.
type telegramHandler struct {
	next     slog.Handler
	msg      Messenger
	minLevel slog.Level
	attrs    []slog.Attr
}

// SetupTelegramHandler wraps the logger so records at or above minLevel
// also reach the operator bot.
func SetupTelegramHandler(lg *slog.Logger, msg Messenger, minLevel slog.Level) *slog.Logger {
	return slog.New(&telegramHandler{
		next:     lg.Handler(),
		msg:      msg,
		minLevel: minLevel,
	})
}

func (h *telegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.minLevel || h.next.Enabled(ctx, level)
}

func (h *telegramHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.minLevel && h.msg != nil {
		var b strings.Builder
		b.WriteString(fmt.Sprintf("[%s] %s", r.Level.String(), r.Message))
		for _, a := range h.attrs {
			b.WriteString(fmt.Sprintf("\n%s: %v", a.Key, a.Value))
		}
		r.Attrs(func(a slog.Attr) bool {
			b.WriteString(fmt.Sprintf("\n%s: %v", a.Key, a.Value))
			return true
		})
		h.msg.SendMessageWithLevel(b.String(), r.Level)
	}
	if h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *telegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &telegramHandler{
		next:     h.next.WithAttrs(attrs),
		msg:      h.msg,
		minLevel: h.minLevel,
		attrs:    merged,
	}
}

func (h *telegramHandler) WithGroup(name string) slog.Handler {
	return &telegramHandler{
		next:     h.next.WithGroup(name),
		msg:      h.msg,
		minLevel: h.minLevel,
		attrs:    h.attrs,
	}
}
