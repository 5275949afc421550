package log

// Level of a log entry. The lower the value, the more severe the entry.
type Level uint32

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

// Fields are attached to every entry written by a logger created with WithFields.
type Fields map[string]interface{}

// Logger is used by every component of the provisioner. Implementations must be safe for concurrent use.
type Logger interface {
	Log(level Level, v ...interface{})
	Logf(level Level, template string, args ...interface{})
	SetLevel(level Level)
	WithFields(fields Fields) Logger
}

// ParseLevel converts a textual level into Level. Unknown values fall back to InfoLevel.
func ParseLevel(lvl string) Level {
	for level, name := range levelNames {
		if name == lvl {
			return level
		}
	}

	return InfoLevel
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}

	return "unknown"
}

var levelNames = map[Level]string{
	PanicLevel: "panic",
	FatalLevel: "fatal",
	ErrorLevel: "error",
	WarnLevel:  "warn",
	InfoLevel:  "info",
	DebugLevel: "debug",
	TraceLevel: "trace",
}
