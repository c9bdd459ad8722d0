package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"rpy/internal/log"
	"rpy/internal/repl"
	"rpy/internal/util"
	"syscall"
)

var (
	// Version is set at build time with -ldflags.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	watch     bool
	startRepl bool
	// logging
	logLevel string
	logFile  string
	// config vars
	configFile   string
	maxCallDepth int
	debugAST     bool
	reportDriver string
	reportDSN    string
	tests        arrayFlags
)

// arrayFlags collects a repeatable string flag.
type arrayFlags []string

func (a *arrayFlags) String() string {
	return fmt.Sprint([]string(*a))
}

func (a *arrayFlags) Set(value string) error {
	*a = append(*a, value)
	return nil
}

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.BoolVar(&watch, "watch", false, "Run again every time the program file changes")
	flag.BoolVar(&startRepl, "repl", false, "Read JSON statements from stdin, one per line")
	// evaluator config
	flag.StringVar(&configFile, "config", "", "Read configuration from a TOML file")
	flag.IntVar(&maxCallDepth, "max-depth", 0, "Maximum depth of nested function calls")
	flag.BoolVar(&debugAST, "debug-ast", false, "Print the decoded AST as JSON before running")
	flag.Var(&tests, "test", "Run a test module, 'module::test' or 'all' (repeatable)")
	// report config
	flag.StringVar(&reportDriver, "report-driver", "", "Database driver for test reports: sqlite3, mysql, postgres")
	flag.StringVar(&reportDSN, "report-dsn", "", "Data source name for test reports (empty disables reports)")
	// log config
	flag.StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	if version {
		printVersion()
		return
	}

	if help {
		printHelp()
		return
	}

	config, err := loadConfiguration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, closer := log.New(log.ParseLevel(config.LogLevel), config.LogFile)
	slog.SetDefault(logger)
	defer closer.Close()

	if startRepl {
		repl.Start(os.Stdin, os.Stdout, config.MaxCallDepth)
		return
	}

	if flag.NArg() != 1 {
		printHelp()
		os.Exit(2)
	}

	r := &runner{
		config:  config,
		program: flag.Arg(0),
		tests:   tests,
		out:     os.Stdout,
		errOut:  os.Stderr,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watch {
		if err := watchProgram(ctx, r); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	code := r.run(ctx)
	closer.Close()
	os.Exit(code)
}

// loadConfiguration layers defaults, the -config file and explicit flags.
func loadConfiguration() (util.Configuration, error) {
	config := util.DefaultConfiguration()
	config.Version = Version
	config.BuildDate = BuildDate
	config.Commit = Commit
	config.Home = os.Getenv("RPY_HOME")

	if configFile != "" {
		if err := util.LoadConfiguration(configFile, &config); err != nil {
			return config, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-depth":
			config.MaxCallDepth = maxCallDepth
		case "debug-ast":
			config.DebugJsonAST = debugAST
		case "report-driver":
			config.Report.Driver = reportDriver
		case "report-dsn":
			config.Report.DSN = reportDSN
		case "log-level":
			config.LogLevel = logLevel
		case "log-file":
			config.LogFile = logFile
		}
	})

	if config.MaxCallDepth <= 0 {
		return config, fmt.Errorf("max-depth must be positive, got %d", config.MaxCallDepth)
	}
	return config, nil
}

func printVersion() {
	fmt.Printf("rpy version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: rpy [options] program.json
       rpy -repl

Options:
  -config <path>          Read configuration from a TOML file.
  -test <selection>       Run tests after the program: 'module', 'module::test' or 'all'. Repeatable.
  -watch                  Run again every time the program file changes.
  -repl                   Read JSON statements or expressions from stdin, one per line.
  -max-depth <n>          Maximum depth of nested function calls. Default is %d.
  -debug-ast              Print the decoded AST as JSON before running.
  -report-driver <name>   Database driver for test reports: sqlite3, mysql, postgres. Default is 'sqlite3'.
  -report-dsn <dsn>       Data source name for test reports. Reports are off when empty.
  -help                   Display this help information and exit.
  -version                Display version information and exit.
  -log-level <level>      Set the log level: trace, debug, info, warn, error, none. Default is 'none'.
  -log-file <path>        Specify a log file to write logs. Default is stderr.

Details:
The program is a JSON encoded syntax tree. It runs to completion and the
bindings of the top-level scope are printed, or the value it returned.

Examples:
  rpy fib.json                               Run a program
  rpy -test all shapes.json                  Run a program and every test module it defines
  rpy -test math::test_add -watch math.json  Re-run one test whenever math.json changes
  rpy -test all -report-dsn runs.db p.json   Record the test results in a sqlite database

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, util.DefaultMaxCallDepth, Version, BuildDate, Commit)
}
