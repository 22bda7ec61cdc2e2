package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrHelp and ErrVersion are returned by ParseArgs when the user asked for
// usage or version information instead of a run.
var (
	ErrHelp    = errors.New("help requested")
	ErrVersion = errors.New("version requested")
)

// CustomAttribute is a NAME=EXPR pair attached to exported facts.
type CustomAttribute struct {
	Name       string
	Expression string
}

// Config holds the parsed command-line configuration
type Config struct {
	// InputPath is the audit log to read
	InputPath string
	// CustomAttributes are evaluated per fact and attached to exported spans
	CustomAttributes []CustomAttribute
	// Filter is a boolean expression selecting reported facts
	Filter string
	// ExportOTEL sends facts as OpenTelemetry spans
	ExportOTEL bool
	// DecodeSaddr decodes raw saddr= blobs of SOCKADDR records without enrichment
	DecodeSaddr bool
	// NoResolve disables reverse DNS lookups
	NoResolve bool
}

// Usage returns the command-line help text.
func Usage(program string) string {
	return fmt.Sprintf(`Usage: %s [options] <audit.log>

Reports which process, as which user, connected where, from a Linux audit log.

Options:
  -a, --attribute NAME=EXPR  Custom span attribute (repeatable, or NAME=EXPR;NAME=EXPR)
  -f, --filter EXPR          Only report facts matching EXPR (e.g. 'kind == "network"')
      --otel                 Export facts as OpenTelemetry spans (OTEL_* environment)
      --decode-saddr         Decode raw saddr= blobs when the record has no enrichment
      --no-resolve           Do not resolve peer addresses to host names
  -h, --help                 Show this help
  -v, --version              Show version information
`, program)
}

// ParseArgs parses command-line arguments and returns a Config.
// Expected format: program_name [options] <audit.log>
func ParseArgs(args []string) (*Config, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no arguments provided")
	}

	cfg := &Config{}
	var positional []string

	for i := 1; i < len(args); i++ {
		arg := args[i]

		// value returns the argument following a flag.
		value := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s requires a value", arg)
			}
			i++
			return args[i], nil
		}

		switch arg {
		case "-h", "--help":
			return nil, ErrHelp
		case "-v", "--version":
			return nil, ErrVersion
		case "-a", "--attribute":
			v, err := value()
			if err != nil {
				return nil, err
			}
			attrs, err := parseAttributeString(v)
			if err != nil {
				return nil, err
			}
			cfg.CustomAttributes = append(cfg.CustomAttributes, attrs...)
		case "-f", "--filter":
			v, err := value()
			if err != nil {
				return nil, err
			}
			cfg.Filter = strings.TrimSpace(v)
		case "--otel":
			cfg.ExportOTEL = true
		case "--decode-saddr":
			cfg.DecodeSaddr = true
		case "--no-resolve":
			cfg.NoResolve = true
		case "--":
			positional = append(positional, args[i+1:]...)
			i = len(args)
		default:
			if strings.HasPrefix(arg, "-") && arg != "-" {
				return nil, fmt.Errorf("unknown option %q", arg)
			}
			positional = append(positional, arg)
		}
	}

	switch len(positional) {
	case 0:
		return nil, fmt.Errorf("no input file specified\n\n%s", Usage(args[0]))
	case 1:
		cfg.InputPath = positional[0]
	default:
		return nil, fmt.Errorf("unexpected argument %q: only one input file is supported", positional[1])
	}

	return cfg, nil
}

// parseAttributeString parses "NAME=EXPR" or a ';'-separated list of them.
// The expression is everything after the first '='.
func parseAttributeString(s string) ([]CustomAttribute, error) {
	var attrs []CustomAttribute

	for _, section := range strings.Split(s, ";") {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		name, expression, ok := strings.Cut(section, "=")
		if !ok {
			return nil, fmt.Errorf("invalid attribute format %q: expected NAME=EXPR", section)
		}

		name = strings.TrimSpace(name)
		expression = strings.TrimSpace(expression)
		if name == "" {
			return nil, fmt.Errorf("invalid attribute %q: name cannot be empty", section)
		}
		if expression == "" {
			return nil, fmt.Errorf("invalid attribute %q: expression cannot be empty", section)
		}

		attrs = append(attrs, CustomAttribute{Name: name, Expression: expression})
	}

	return attrs, nil
}
