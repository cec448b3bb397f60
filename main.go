package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/justina-lang/justina/api"
	"github.com/justina-lang/justina/config"
	"github.com/justina-lang/justina/debugger"
	"github.com/justina-lang/justina/eval"
	"github.com/justina-lang/justina/flow"
	"github.com/justina-lang/justina/host"
	"github.com/justina-lang/justina/loader"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		debugMode   = flag.Bool("debug", false, "Start in debugger mode")
		tuiMode     = flag.Bool("tui", false, "Use TUI (Text User Interface) debugger")
		apiServer   = flag.Bool("api-server", false, "Start HTTP API server mode")
		apiPort     = flag.Int("port", 8080, "API server port (used with -api-server)")
		verboseMode = flag.Bool("verbose", false, "Verbose output")
		fsRoot      = flag.String("fsroot", "", "Restrict file operations to this directory (default: current directory)")
		dumpSymbols = flag.Bool("dump-symbols", false, "Dump the top-level variable/function table and exit")
		symbolsFile = flag.String("symbols-file", "", "Symbol dump output file (default: stdout)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("Justina %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	if *apiServer {
		runAPIServer(*apiPort)
		return
	}

	if flag.NArg() == 0 {
		printHelp()
		os.Exit(0)
	}

	sourceFile := flag.Arg(0)
	if _, err := os.Stat(sourceFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found: %s\n", sourceFile)
		os.Exit(1)
	}

	if *verboseMode {
		fmt.Printf("Loading and parsing source file: %s\n", sourceFile)
	}

	f, err := os.Open(sourceFile) // #nosec G304 -- user-specified source path
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", sourceFile, err)
		os.Exit(1)
	}
	program, err := loader.Load(f)
	_ = f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error:\n%v\n", err)
		os.Exit(1)
	}

	if *verboseMode {
		fmt.Printf("Parsed %d source line(s), %d function(s)\n",
			len(program.Lines)-1, len(program.Parser.Functions))
	}

	filesystemRoot := *fsRoot
	if filesystemRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting current directory: %v\n", err)
			os.Exit(1)
		}
		filesystemRoot = cwd
	}
	absRoot, err := filepath.Abs(filesystemRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving filesystem root path: %v\n", err)
		os.Exit(1)
	}
	fs, err := host.NewOSFileSystem(absRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening filesystem root: %v\n", err)
		os.Exit(1)
	}

	if *verboseMode {
		fmt.Printf("Filesystem root: %s\n", absRoot)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load config, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}

	in, out := host.NewConsole()
	h := &host.Host{
		Console:   in,
		Out:       out,
		FS:        fs,
		Clock:     host.NewSystemClock(),
		Housekeep: newHousekeeping(cfg),
	}

	engine := flow.NewEngine(program.Parser.Tables, program.Parser.Buf, h, eval.NewBuiltinTable(), program.Parser.Functions)

	if *dumpSymbols {
		if err := dumpSymbolTable(program, *symbolsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error dumping symbols: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *debugMode || *tuiMode {
		dbg := debugger.NewDebugger(engine, program)

		if *tuiMode {
			if err := debugger.RunTUI(dbg); err != nil {
				fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Println("Justina Debugger - Type 'help' for commands")
			fmt.Printf("Program loaded: %s\n", sourceFile)
			fmt.Println()

			if err := debugger.RunCLI(dbg); err != nil {
				fmt.Fprintf(os.Stderr, "Debugger error: %v\n", err)
				os.Exit(1)
			}
		}
		return
	}

	if *verboseMode {
		fmt.Println("\nStarting execution...")
		fmt.Println("----------------------------------------")
	}

	runErr := engine.RunProgram()

	if *verboseMode {
		fmt.Println("\n----------------------------------------")
		fmt.Println("Execution complete")
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "\nRuntime error: %v\n", runErr)
		os.Exit(1)
	}
}

// newHousekeeping builds the host.Housekeeping callback flow.Engine polls
// every flow.HousekeepEvery statements: it requests a kill once Ctrl+C is
// pressed, and once the configured statement budget (cfg.Execution
// .MaxStatements, the CLI host's counterpart to the teacher's CycleLimit)
// is exhausted.
func newHousekeeping(cfg *config.Config) host.Housekeeping {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	var interrupted bool
	var statements uint64

	return func(flags *host.Flags) {
		select {
		case <-sigChan:
			interrupted = true
		default:
		}
		if interrupted {
			flags.Kill = true
			return
		}

		statements += flow.HousekeepEvery
		if cfg.Execution.MaxStatements > 0 && statements >= cfg.Execution.MaxStatements {
			flags.Kill = true
		}
	}
}

// runAPIServer starts the HTTP API server and blocks until it receives a
// shutdown signal (Ctrl+C, SIGTERM, or its parent process disappearing).
func runAPIServer(port int) {
	server := api.NewServer(port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Create shutdown function with sync.Once to ensure it runs only once.
	// This prevents race conditions between the signal handler and the
	// parent-process monitor below.
	var shutdownOnce sync.Once
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nShutting down API server...")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
				os.Exit(1)
			}

			fmt.Println("API server stopped")
			os.Exit(0)
		})
	}

	// Start a process monitor to detect parent death (a GUI frontend
	// crashing or being force-quit), so the backend never orphans itself.
	monitor := api.NewProcessMonitor(performShutdown)
	monitor.Start()

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	performShutdown()
}

func printHelp() {
	fmt.Printf(`Justina %s

Usage: justina [options] <source-file>
       justina -api-server [-port N]

Options:
  -help              Show this help message
  -version           Show version information
  -api-server        Start HTTP API server mode (no source file required)
  -port N            API server port (default: 8080, used with -api-server)
  -debug             Start in debugger mode (CLI)
  -tui               Start in TUI debugger mode
  -verbose           Enable verbose output
  -fsroot DIR        Restrict file operations to directory (default: current directory)

Symbol Options:
  -dump-symbols      Dump the top-level variable/function table and exit
  -symbols-file FILE Symbol dump output file (default: stdout)

Examples:
  # Start API server for GUI frontends
  justina -api-server
  justina -api-server -port 3000

  # Run a program directly
  justina examples/hello.just

  # Run with the command-line debugger
  justina -debug examples/fibonacci.just

  # Run with the TUI debugger
  justina -tui examples/loops.just

  # Restrict file operations to a specific directory
  justina -fsroot /tmp/sandbox program.just

Debugger Commands (when in -debug mode):
  run, r             Start/restart program execution
  continue, c        Continue execution
  step, s            Execute single statement
  next, n            Step over function calls
  break LINE         Set breakpoint at a source line
  info locals        Show global variables, evaluated in the current frame
  print EXPR         Evaluate and print an expression
  help               Show debugger help
`, Version)
}

// dumpSymbolTable outputs the program's top-level global and function
// names in a readable format.
func dumpSymbolTable(program *loader.Program, filename string) error {
	var writer *os.File
	var err error

	if filename == "" {
		writer = os.Stdout
	} else {
		writer, err = os.Create(filename) // #nosec G304 -- user-specified symbol output path
		if err != nil {
			return fmt.Errorf("failed to create symbol file: %w", err)
		}
		defer func() {
			if cerr := writer.Close(); cerr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close symbol file: %v\n", cerr)
			}
		}()
	}

	globals := program.Parser.Tables.GlobalNames()
	functions := program.Parser.Functions

	if len(globals) == 0 && len(functions) == 0 {
		_, _ = fmt.Fprintln(writer, "No symbols defined")
		return nil
	}

	_, _ = fmt.Fprintln(writer, "Symbol Table")
	_, _ = fmt.Fprintln(writer, "============")
	_, _ = fmt.Fprintln(writer)

	_, _ = fmt.Fprintf(writer, "%-30s %s\n", "Name", "Kind")
	_, _ = fmt.Fprintln(writer, "--------------------------------------------------------------------------------")

	names := append([]string(nil), globals...)
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(writer, "%-30s %s\n", name, "Variable")
	}

	fnNames := make([]string, len(functions))
	for i, fn := range functions {
		fnNames[i] = fn.Name
	}
	sort.Strings(fnNames)
	for _, name := range fnNames {
		_, _ = fmt.Fprintf(writer, "%-30s %s\n", name, "Function")
	}

	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "Total symbols: %d\n", len(globals)+len(functions))

	return nil
}
