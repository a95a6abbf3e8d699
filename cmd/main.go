// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"

	"github.com/salmasaleem01/SQL-Agent/gollm"
	"github.com/salmasaleem01/SQL-Agent/pkg/agent"
	"github.com/salmasaleem01/SQL-Agent/pkg/journal"
	"github.com/salmasaleem01/SQL-Agent/pkg/sessions"
	"github.com/salmasaleem01/SQL-Agent/pkg/tools"
	"github.com/salmasaleem01/SQL-Agent/pkg/ui"
)

// Using the defaults from goreleaser as per https://goreleaser.com/cookbooks/using-main.version/
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func BuildRootCommand(opt *Options) (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:   "sql-agent",
		Short: "A CLI tool to query a SQLite database using natural language",
		Long:  "sql-agent is a command-line tool that answers natural language questions about a local SQLite database. It leverages large language models to translate your intent into SQL, run it, and explain the results.",
		Args:  cobra.MaximumNArgs(1), // Only one positional arg is allowed.
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunRootCommand(cmd.Context(), *opt, args)
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of sql-agent",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("version: %s\ncommit: %s\ndate: %s\n", version, commit, date)
			os.Exit(0)
		},
	})

	if err := opt.bindCLIFlags(rootCmd.Flags()); err != nil {
		return nil, err
	}
	return rootCmd, nil
}

type Options struct {
	ProviderID string `json:"llmProvider,omitempty"`
	ModelID    string `json:"model,omitempty"`

	// DBPath is the path to the SQLite database file.
	DBPath string `json:"dbPath,omitempty"`

	// UnsafeAllowWrites disables the read-only guard on the database tools.
	UnsafeAllowWrites bool `json:"unsafeAllowWrites,omitempty"`

	// NoTools starts a session without any database tools registered.
	// The model answers from conversation alone.
	NoTools bool `json:"noTools,omitempty"`

	// Quiet flag indicates if the agent should run in non-interactive mode.
	// It requires a query to be provided as a positional argument or stdin.
	Quiet bool `json:"quiet,omitempty"`

	MaxIterations int `json:"maxIterations,omitempty"`

	PromptTemplateFilePath string `json:"promptTemplateFilePath,omitempty"`
	TracePath              string `json:"tracePath,omitempty"`

	// SkipVerifySSL is a flag to skip verifying the SSL certificate of the LLM provider.
	SkipVerifySSL bool `json:"skipVerifySSL,omitempty"`
}

var defaultConfigPaths = []string{
	filepath.Join("{CONFIG}", "sql-agent", "config.yaml"),
	filepath.Join("{HOME}", ".config", "sql-agent", "config.yaml"),
}

func (o *Options) InitDefaults() {
	o.ProviderID = "gemini"
	o.ModelID = ""
	o.DBPath = ""
	// by default, refuse SQL statements that modify the database.
	o.UnsafeAllowWrites = false
	o.NoTools = false
	o.Quiet = false
	o.MaxIterations = 20
	o.PromptTemplateFilePath = ""
	o.TracePath = filepath.Join(os.TempDir(), "sql-agent-trace.txt")
	o.SkipVerifySSL = false
}

func (o *Options) LoadConfiguration(b []byte) error {
	if err := yaml.Unmarshal(b, &o); err != nil {
		return fmt.Errorf("parsing configuration: %w", err)
	}
	return nil
}

func (o *Options) LoadConfigurationFile() error {
	configPaths := defaultConfigPaths
	for _, configPath := range configPaths {
		pathWithPlaceholdersExpanded := configPath

		if strings.Contains(pathWithPlaceholdersExpanded, "{CONFIG}") {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("getting user config directory (for config file path %q): %w", configPath, err)
			}
			pathWithPlaceholdersExpanded = strings.ReplaceAll(pathWithPlaceholdersExpanded, "{CONFIG}", configDir)
		}

		if strings.Contains(pathWithPlaceholdersExpanded, "{HOME}") {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("getting user home directory (for config file path %q): %w", configPath, err)
			}
			pathWithPlaceholdersExpanded = strings.ReplaceAll(pathWithPlaceholdersExpanded, "{HOME}", homeDir)
		}

		configPath = filepath.Clean(pathWithPlaceholdersExpanded)
		configBytes, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				// ignore missing config files, they are optional
			} else {
				fmt.Fprintf(os.Stderr, "warning: could not load defaults from %q: %v\n", configPath, err)
			}
		} else if len(configBytes) > 0 {
			if err := o.LoadConfiguration(configBytes); err != nil {
				fmt.Fprintf(os.Stderr, "warning: error loading configuration from %q: %v\n", configPath, err)
			}
		}
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		// restore default behavior for a second signal
		signal.Stop(make(chan os.Signal))
		cancel()
		klog.Flush()
		fmt.Fprintf(os.Stderr, "\nReceived signal, shutting down gracefully... (press Ctrl+C again to force)\n")
	}()

	if err := run(ctx); err != nil {
		// Don't print error if it's a context cancellation
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		// Exit with non-zero status code on error, unless it's a graceful shutdown.
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// klog setup must happen before Cobra parses any flags

	// add commandline flags for logging
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)

	klogFlags.Set("logtostderr", "false")
	klogFlags.Set("log_file", filepath.Join(os.TempDir(), "sql-agent.log"))

	defer klog.Flush()

	var opt Options

	opt.InitDefaults()

	// load YAML config values
	if err := opt.LoadConfigurationFile(); err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}

	rootCmd, err := BuildRootCommand(&opt)
	if err != nil {
		return err
	}

	// cobra has to know that we pass flags with flag lib, otherwise it creates conflict with flags.parse() method
	// We add just the klog flags we want, not all the klog flags (there are a lot, most of them are very niche)
	rootCmd.PersistentFlags().AddGoFlag(klogFlags.Lookup("v"))
	rootCmd.PersistentFlags().AddGoFlag(klogFlags.Lookup("alsologtostderr"))

	// do this early, before the third-party code logs anything.
	redirectStdLogToKlog()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return err
	}

	return nil
}

func (opt *Options) bindCLIFlags(f *pflag.FlagSet) error {
	f.StringVar(&opt.DBPath, "db", opt.DBPath, "path to the SQLite database file (or set SQL_AGENT_DB)")
	f.BoolVar(&opt.UnsafeAllowWrites, "unsafe-allow-writes", opt.UnsafeAllowWrites, "(dangerous) allow SQL statements that modify the database")
	f.BoolVar(&opt.NoTools, "no-tools", opt.NoTools, "start the session without database tools")
	f.IntVar(&opt.MaxIterations, "max-iterations", opt.MaxIterations, "maximum number of iterations agent will try before giving up")
	f.StringVar(&opt.PromptTemplateFilePath, "prompt-template-file-path", opt.PromptTemplateFilePath, "path to custom prompt template file")
	f.StringVar(&opt.TracePath, "trace-path", opt.TracePath, "path to the trace file")

	f.StringVar(&opt.ProviderID, "llm-provider", opt.ProviderID, "language model provider")
	f.StringVar(&opt.ModelID, "model", opt.ModelID, "language model e.g. gemini-2.0-flash, gpt-4o")
	f.BoolVar(&opt.Quiet, "quiet", opt.Quiet, "run in non-interactive mode, requires a query to be provided as a positional argument or stdin")
	f.BoolVar(&opt.SkipVerifySSL, "skip-verify-ssl", opt.SkipVerifySSL, "skip verifying the SSL certificate of the LLM provider")

	return nil
}

// resolveClientOptions gathers provider credentials from the
// environment once, at startup. A provider that needs a key and does
// not get one fails here, before the prompt is ever shown.
func resolveClientOptions(opt *Options) (gollm.ClientOptions, error) {
	clientOpts := gollm.ClientOptions{
		SkipVerifySSL: opt.SkipVerifySSL,
	}

	switch opt.ProviderID {
	case "gemini":
		clientOpts.APIKey = os.Getenv("GEMINI_API_KEY")
		if clientOpts.APIKey == "" {
			return clientOpts, fmt.Errorf("GEMINI_API_KEY is not set")
		}
	case "openai":
		clientOpts.APIKey = os.Getenv("OPENAI_API_KEY")
		if clientOpts.APIKey == "" {
			return clientOpts, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		clientOpts.BaseURL = os.Getenv("OPENAI_ENDPOINT")
	case "ollama":
		// Local server, no credential required.
	}

	return clientOpts, nil
}

// resolveDBPath resolves the database path with priority: flag > SQL_AGENT_DB env.
func resolveDBPath(opt *Options) error {
	if opt.DBPath == "" {
		opt.DBPath = os.Getenv("SQL_AGENT_DB")
	}
	if opt.DBPath == "" {
		if opt.NoTools {
			return nil
		}
		return fmt.Errorf("no database specified: use --db or set SQL_AGENT_DB (or pass --no-tools)")
	}

	// Resolve to an absolute path so it survives working-directory changes.
	p, err := filepath.Abs(opt.DBPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database file %q: %w", opt.DBPath, err)
	}
	opt.DBPath = p
	return nil
}

func RunRootCommand(ctx context.Context, opt Options, args []string) error {
	var err error

	if err = resolveDBPath(&opt); err != nil {
		return err
	}

	// After reading stdin, it is consumed
	var hasInputData bool
	hasInputData, err = hasStdInData()
	if err != nil {
		return fmt.Errorf("failed to check if stdin has data: %w", err)
	}

	// Handles positional args or stdin
	var queryFromCmd string
	queryFromCmd, err = resolveQueryInput(hasInputData, args)
	if err != nil {
		return fmt.Errorf("failed to resolve query input: %w", err)
	}

	if opt.Quiet && queryFromCmd == "" {
		return fmt.Errorf("quiet mode requires a query from a positional argument or stdin")
	}

	klog.Info("Application started", "pid", os.Getpid())

	clientOpts, err := resolveClientOptions(&opt)
	if err != nil {
		return err
	}

	llmClient, err := gollm.NewClient(ctx, opt.ProviderID, clientOpts)
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}
	defer llmClient.Close()

	var recorder journal.Recorder
	if opt.TracePath != "" {
		fileRecorder, err := journal.NewFileRecorder(opt.TracePath)
		if err != nil {
			return fmt.Errorf("creating trace recorder: %w", err)
		}
		defer fileRecorder.Close()
		recorder = fileRecorder
	} else {
		// Ensure we always have a recorder, to avoid nil checks
		recorder = &journal.LogRecorder{}
		defer recorder.Close()
	}

	toolset := tools.NewTools()
	if !opt.NoTools {
		toolkit, err := tools.NewSQLToolkit(opt.DBPath, !opt.UnsafeAllowWrites)
		if err != nil {
			return err
		}
		defer toolkit.Close()

		for _, tool := range toolkit.Tools() {
			if !opt.UnsafeAllowWrites {
				tool = tools.ReadOnly(tool)
			}
			toolset.RegisterTool(tool)
		}
	}

	sqlAgent := &agent.Conversation{
		Model:              opt.ModelID,
		LLM:                llmClient,
		MaxIterations:      opt.MaxIterations,
		PromptTemplateFile: opt.PromptTemplateFilePath,
		Tools:              toolset,
		Recorder:           recorder,
		ChatStore:          sessions.NewInMemoryChatStore(),
	}

	if err := sqlAgent.Init(ctx); err != nil {
		return fmt.Errorf("starting sql agent: %w", err)
	}
	defer sqlAgent.Close()

	if opt.Quiet {
		return runOnce(ctx, queryFromCmd, sqlAgent)
	}

	userInterface, err := ui.NewTerminalUI()
	if err != nil {
		return fmt.Errorf("creating terminal UI: %w", err)
	}
	defer userInterface.Close()

	return repl(ctx, queryFromCmd, userInterface, sqlAgent)
}

// Redirect standard log output to our custom klog writer
// This is primarily to suppress warning messages from
// third-party libraries that log via the standard logger.
func redirectStdLogToKlog() {
	log.SetOutput(klogWriter{})

	// Disable standard log's prefixes (date, time, file info)
	// because klog will add its own more detailed prefix.
	log.SetFlags(0)
}

// Define a custom writer that forwards messages to klog.Warning
type klogWriter struct{}

// Implement the io.Writer interface
func (writer klogWriter) Write(data []byte) (n int, err error) {
	// We trim the trailing newline because klog adds its own.
	message := string(bytes.TrimSuffix(data, []byte("\n")))
	klog.Warning(message)
	return len(data), nil
}
