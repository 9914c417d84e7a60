package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/lightc"
	"github.com/deepnoodle-ai/lightc/astjson"
	"github.com/deepnoodle-ai/lightc/builtins"
	"github.com/deepnoodle-ai/lightc/errors"
)

// setup binds the command's flags, loads the config file and configures
// color and logging. It runs before every command.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := a.readConfig(); err != nil {
		return err
	}
	a.useColor = !a.v.GetBool("no-color") && isTerminal(a.stdout)
	color.NoColor = !a.useColor

	level, err := zerolog.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level %q", a.v.GetString("log-level"))
	}
	a.log = zerolog.New(zerolog.ConsoleWriter{
		Out:        a.stderr,
		NoColor:    !isTerminal(a.stderr) || a.v.GetBool("no-color"),
		TimeFormat: time.Kitchen,
	}).Level(level).With().Timestamp().Logger()
	return nil
}

func (a *app) readConfig() error {
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		return a.v.ReadInConfig()
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	a.v.SetConfigName(".lightc")
	a.v.AddConfigPath(home)
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if stderrors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// readInput reads the tree named by args[0], or stdin when the argument
// is "-" or when --stdin is set.
func (a *app) readInput(args []string) ([]byte, string, error) {
	stdin := a.v.GetBool("stdin")
	switch {
	case stdin && len(args) > 0:
		return nil, "", stderrors.New("multiple input sources specified")
	case stdin || (len(args) > 0 && args[0] == "-"):
		data, err := io.ReadAll(a.stdin)
		return data, "<stdin>", err
	case len(args) == 0:
		return nil, "", stderrors.New("no input file specified")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", err
	}
	return data, filepath.Base(args[0]), nil
}

func (a *app) registry() *builtins.Registry {
	return builtins.New(builtins.WithOutput(a.stdout))
}

func (a *app) options() []lightc.Option {
	opts := []lightc.Option{
		lightc.WithLogger(a.log),
		lightc.WithRegistry(a.registry()),
		lightc.WithVerify(a.v.GetBool("verify")),
	}
	if a.v.IsSet("tier-threshold") {
		opts = append(opts, lightc.WithTierThreshold(a.v.GetInt64("tier-threshold")))
	}
	if depth := a.v.GetInt("max-frame-depth"); depth > 0 {
		opts = append(opts, lightc.WithMaxFrameDepth(depth))
	}
	return opts
}

// load reads and compiles the input tree.
func (a *app) load(args []string) (*lightc.Program, error) {
	data, filename, err := a.readInput(args)
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("file", filename).Int("bytes", len(data)).Msg("loading tree")
	return lightc.CompileJSON(data, append(a.options(), lightc.WithFilename(filename))...)
}

func (a *app) printError(err error) {
	f := errors.NewFormatter(a.useColor)
	if errs := astjson.DecodeErrors(err); len(errs) > 0 {
		formatted := make([]*errors.FormattedError, len(errs))
		for i, e := range errs {
			formatted[i] = e.ToFormatted()
		}
		fmt.Fprint(a.stderr, f.FormatMultiple(formatted))
		return
	}
	var fe errors.FormattableError
	if stderrors.As(err, &fe) {
		fmt.Fprint(a.stderr, f.Format(fe.ToFormatted()))
		return
	}
	msg := "error: " + err.Error()
	if a.useColor {
		msg = color.RedString(msg)
	}
	fmt.Fprintln(a.stderr, msg)
}
