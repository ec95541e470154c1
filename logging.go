package inherit

// Operations reported through Logger.
const (
	OpLevelCreated     = "level.created"
	OpBindingPut       = "binding.put"
	OpScopePut         = "scope.put"
	OpConverterAdded   = "converter.added"
	OpAspectAdded      = "aspect.added"
	OpKeyReserved      = "key.reserved"
	OpConverterAmbig   = "converter.ambiguous"
	OpReservationSweep = "reservations.swept"
)

// LogEvent describes one state operation for logging.
type LogEvent struct {
	Op        string
	LevelID   string
	LevelName string
	Depth     int
	Key       string
	Detail    string
	Count     int
	Err       error
}

// Logger records state events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

// WithLogger attaches a logger to a level. Children inherit it unless they
// set their own.
func WithLogger(logger Logger) LevelOption {
	return func(cfg *levelConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
