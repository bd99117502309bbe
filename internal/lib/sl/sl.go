package sl

import "log/slog"

// Err wraps an error as a uniform slog attribute.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Module tags log records with the emitting component.
func Module(name string) slog.Attr {
	return slog.Attr{
		Key:   "module",
		Value: slog.StringValue(name),
	}
}

// Secret logs a sensitive value truncated to its first characters.
func Secret(key, value string) slog.Attr {
	masked := value
	if len(masked) > 6 {
		masked = masked[:6] + "..."
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(masked),
	}
}
