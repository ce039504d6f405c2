package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Justice4Joffrey/log-parser/pkg/humanfmt"
	"github.com/Justice4Joffrey/log-parser/pkg/logging"
	"github.com/Justice4Joffrey/log-parser/pkg/membudget"
	"github.com/Justice4Joffrey/log-parser/pkg/parser"
)

// Viper keys. Each is also a flag name; the environment variable is
// LOGPARSER_ followed by the key upper-cased with dashes as underscores.
const (
	keyConfig        = "config"
	keyJSON          = "json"
	keyFormat        = "format"
	keyOut           = "out"
	keyDelimiter     = "delimiter"
	keyParser        = "parser"
	keyMaxRecordSize = "max-record-size"
	keyLogLevel      = "log-level"
	keyHumanLogs     = "human-logs"
	keyBufferCap     = "buffer-capacity"
	keyBatchSize     = "batch-size"
	keyQueueSize     = "reducer-channel-size"
	keyWorkers       = "workers"
	keyMemBudget     = "mem-budget"
)

const (
	envPrefix     = "LOGPARSER"
	envMemBudget  = envPrefix + "_MEM_BUDGET"
	configName    = "log-parser"
	formatText    = "text"
	formatJSON    = "json"
	formatParquet = "parquet"
)

// settings are the global options after flag, env and file resolution.
type settings struct {
	format        string
	out           string
	delimiter     byte
	parser        parser.Parser
	maxRecordSize int
}

// configure binds the command's flags into viper, reads the optional config
// file, initializes logging and resolves the global settings.
func (a *app) configure(cmd *cobra.Command) error {
	v := a.v
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString(keyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	if err := logging.Init(logging.Config{
		Level: v.GetString(keyLogLevel),
		Human: v.GetBool(keyHumanLogs),
		Out:   a.stderr,
	}); err != nil {
		return err
	}

	s, err := resolveSettings(v)
	if err != nil {
		return err
	}
	a.settings = s
	return nil
}

func resolveSettings(v *viper.Viper) (settings, error) {
	var s settings

	s.format = strings.ToLower(strings.TrimSpace(v.GetString(keyFormat)))
	if v.GetBool(keyJSON) {
		s.format = formatJSON
	}
	switch s.format {
	case formatText, formatJSON:
	case formatParquet:
		if v.GetString(keyOut) == "" {
			return settings{}, errors.New("--format parquet requires --out")
		}
	default:
		return settings{}, fmt.Errorf("invalid --format %q (want text, json or parquet)", s.format)
	}
	s.out = v.GetString(keyOut)

	delim, err := parseDelimiter(v.GetString(keyDelimiter))
	if err != nil {
		return settings{}, fmt.Errorf("invalid --delimiter: %w", err)
	}
	s.delimiter = delim

	p, err := parser.Lookup(v.GetString(keyParser))
	if err != nil {
		return settings{}, fmt.Errorf("invalid --parser: %w", err)
	}
	s.parser = p

	maxRecord, err := parseSize(v.GetString(keyMaxRecordSize))
	if err != nil {
		return settings{}, fmt.Errorf("invalid --max-record-size: %w", err)
	}
	s.maxRecordSize = maxRecord
	return s, nil
}

// parseDelimiter accepts a single character, one of the escapes \n \t \r \0,
// or a decimal or 0x-prefixed byte value of two or more characters.
func parseDelimiter(s string) (byte, error) {
	switch s {
	case "":
		return 0, errors.New("empty delimiter")
	case `\n`:
		return '\n', nil
	case `\t`:
		return '\t', nil
	case `\r`:
		return '\r', nil
	case `\0`:
		return 0, nil
	}
	if len(s) == 1 {
		return s[0], nil
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%q is not a single byte", s)
	}
	return byte(n), nil
}

// parseSize parses a human-readable byte count into an int.
func parseSize(s string) (int, error) {
	n, err := humanfmt.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative size %q", s)
	}
	if int64(int(n)) != n {
		return 0, fmt.Errorf("size %q overflows int", s)
	}
	return int(n), nil
}

// determineMemoryBudget resolves the async memory budget. The flag value wins,
// then LOGPARSER_MEM_BUDGET, then the config file; otherwise the budget is
// half of system RAM.
func determineMemoryBudget(cliValue, configValue string) (*membudget.Budget, error) {
	if cliValue != "" {
		n, err := humanfmt.ParseBytes(cliValue)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid --mem-budget %q: %w", cliValue, budgetErr(n, err))
		}
		return membudget.New(membudget.Config{TotalBytes: n, Source: membudget.BudgetSourceCLI}), nil
	}

	if envValue := os.Getenv(envMemBudget); envValue != "" {
		n, err := humanfmt.ParseBytes(envValue)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid %s %q: %w", envMemBudget, envValue, budgetErr(n, err))
		}
		return membudget.New(membudget.Config{TotalBytes: n, Source: membudget.BudgetSourceEnv}), nil
	}

	if configValue != "" {
		n, err := humanfmt.ParseBytes(configValue)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid mem-budget %q in config file: %w", configValue, budgetErr(n, err))
		}
		return membudget.New(membudget.Config{TotalBytes: n, Source: membudget.BudgetSourceConfig}), nil
	}

	return membudget.NewFromSystemRAM(), nil
}

func budgetErr(n int64, err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("budget must be positive, got %d", n)
}
