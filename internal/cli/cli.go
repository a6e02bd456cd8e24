package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/emberlab/emberc/internal/app"
)

// ExitError carries a specific process exit code alongside its message.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usage(output io.Writer) {
	fmt.Fprint(output, `emberc - an ahead-of-time compiler for layer graph models.

Usage:
  emberc <command> [options] MODEL_PATH

Commands:
  describe   Print the structure of a saved model.
  refine     Rewrite composite nodes into compilable primitives.
  compile    Refine and emit the model's C interface header.

Run 'emberc <command> -h' for the command's options.
`)
}

// Parse processes command-line arguments. It returns a populated config,
// a boolean indicating the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	if len(args) == 0 {
		usage(output)
		return nil, true, nil
	}

	command := app.Command(args[0])
	switch command {
	case app.CommandDescribe, app.CommandRefine, app.CommandCompile:
	case "help", "-h", "--help":
		usage(output)
		return nil, true, nil
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", args[0])}
	}

	flagSet := flag.NewFlagSet("emberc "+string(command), flag.ContinueOnError)
	flagSet.SetOutput(output)

	optionsFlag := flagSet.String("options", "", "Path to an HCL compilation options file.")
	outputFlag := flagSet.String("o", "", "Output path for the refined model or generated header.")
	iterationsFlag := flagSet.Int("max-iterations", 0, "Refinement pass limit. 0 uses the default.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		return nil, false, &ExitError{Code: 2, Message: "a model path is required"}
	}
	modelPath := flagSet.Arg(0)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		Command:       command,
		ModelPath:     modelPath,
		OptionsPath:   *optionsFlag,
		OutputPath:    *outputFlag,
		MaxIterations: *iterationsFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, false, nil
}
