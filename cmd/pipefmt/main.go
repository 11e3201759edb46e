// pipefmt converts between pipe blocks and JSON, manages service
// history of users and runs the spreadsheet API proxy.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/petopia/pipecodec/config"
	"github.com/petopia/pipecodec/log"
	"github.com/petopia/pipecodec/pipe"
	"github.com/petopia/pipecodec/u"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/toon-format/toon-go"
)

type app struct {
	configPath string
	envPath    string
	verbose    bool
	logDir     string
	toon       bool

	cfg   *config.Config
	codec *pipe.Codec
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "pipefmt",
		Short: "Pipe block codec and service history tool",
		Long: `pipefmt converts between pipe blocks and JSON.

A pipe block has one record per line, fields separated with '|':

  id:'a1'|date:'1/2/2026'|status:'pending'|notes:''

Input files can be compressed with gzip, bzip2, zstd or brotli.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Close()
		},
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "pipecodec.yaml", "YAML config file")
	flags.StringVar(&a.envPath, "env", ".env", ".env file with secrets")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&a.logDir, "log-dir", "", "Directory for log files (overrides config)")
	flags.BoolVar(&a.toon, "toon", false, "Output toon instead of JSON")

	rootCmd.AddCommand(
		a.decodeCmd(),
		a.encodeCmd(),
		a.normalizeCmd(),
		a.valueCmd(),
		a.lookupCmd(),
		a.historyCmd(),
		a.serveCmd(),
		a.backupCmd(),
		a.restoreCmd(),
	)
	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envPath)
	if err != nil {
		return err
	}
	if a.logDir != "" {
		cfg.LogDir = a.logDir
	}
	if a.verbose {
		cfg.Verbose = true
	}
	if err = cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	log.Verbose = cfg.Verbose
	if cfg.LogDir != "" {
		log.Init(&log.Config{Dir: cfg.LogDir})
	}
	// stdout is for output so diagnostics go to stderr
	stderr := cmd.ErrOrStderr()
	a.codec = pipe.New(func(d pipe.Diagnostic) {
		if d.Level == pipe.LevelDebug && !cfg.Verbose {
			return
		}
		fmt.Fprintf(stderr, "pipe: %s\n", d)
	})
	return nil
}

// readInput reads the file in args[0] or stdin if there are no args
// or the file is "-"
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return u.ReadAllMaybeCompressed(cmd.InOrStdin())
	}
	if !u.FileExists(args[0]) {
		return nil, fmt.Errorf("file '%s' doesn't exist", args[0])
	}
	return u.ReadFileMaybeCompressed(args[0])
}

func (a *app) writeValue(w io.Writer, v pipe.Value) error {
	var d []byte
	if a.toon {
		var err error
		d, err = toon.Marshal(v.Any())
		if err != nil {
			return err
		}
	} else {
		d = pretty.Pretty(pipe.MarshalJSON(v))
	}
	_, err := w.Write(d)
	if err == nil && (len(d) == 0 || d[len(d)-1] != '\n') {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
