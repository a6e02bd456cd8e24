package app

import "errors"

// Command names the operation the CLI selected.
type Command string

const (
	CommandDescribe Command = "describe"
	CommandRefine   Command = "refine"
	CommandCompile  Command = "compile"
)

// Config holds everything an App needs to run one command.
type Config struct {
	Command   Command
	ModelPath string

	// OptionsPath points at an HCL options file; empty means defaults.
	OptionsPath string

	// OutputPath receives the refined model (refine) or the generated
	// header (compile). Compile also writes the lowered model archive
	// next to the header, with an .emb extension.
	OutputPath string

	MaxIterations int

	LogFormat string
	LogLevel  string
}

// NewConfig validates a config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("a model path is required")
	}
	switch cfg.Command {
	case CommandDescribe:
	case CommandRefine, CommandCompile:
		if cfg.OutputPath == "" {
			return nil, errors.New("an output path is required")
		}
	default:
		return nil, errors.New("unknown command " + string(cfg.Command))
	}
	return &cfg, nil
}
