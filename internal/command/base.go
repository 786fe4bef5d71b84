package command

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

// Program is the executable name shown in usage lines.
const Program = "bmpbridge"

// ErrUsage marks errors caused by bad command-line arguments.
var ErrUsage = errors.New("usage")

// Command is a bmpbridge subcommand.
type Command interface {
	Name() string
	// Description is the one-line summary listed by help.
	Description() string
	// Usage is the synopsis after the program name, e.g. "run [options] <script.js>".
	Usage() string
	// SetupFlags registers the command's flags. It is called once per parse,
	// before Execute.
	SetupFlags(fs *flag.FlagSet)
	// Execute runs the command with the arguments left after flag parsing.
	Execute(args []string, stdout, stderr io.Writer) error
}

// BaseCommand carries the fixed metadata of a command. Commands embed it and
// override SetupFlags when they take flags.
type BaseCommand struct {
	name        string
	description string
	usage       string
}

func NewBaseCommand(name, description, usage string) *BaseCommand {
	return &BaseCommand{name: name, description: description, usage: usage}
}

func (c *BaseCommand) Name() string        { return c.name }
func (c *BaseCommand) Description() string { return c.description }
func (c *BaseCommand) Usage() string       { return c.usage }

func (c *BaseCommand) SetupFlags(*flag.FlagSet) {}

// UsageError prints the command's usage line to w and returns an error
// wrapping ErrUsage.
func (c *BaseCommand) UsageError(w io.Writer, format string, args ...any) error {
	_, _ = fmt.Fprintf(w, "Usage: %s %s\n", Program, c.usage)
	return fmt.Errorf("%s: %w: %s", c.name, ErrUsage, fmt.Sprintf(format, args...))
}

// NewFlagSet returns a FlagSet for cmd with its flags registered. Its usage
// output lists the synopsis, description and flags on w.
func NewFlagSet(cmd Command, handling flag.ErrorHandling, w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd.Name(), handling)
	fs.SetOutput(w)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(w, "Usage: %s %s\n\n%s\n", Program, cmd.Usage(), cmd.Description())
		if hasFlags(fs) {
			_, _ = fmt.Fprintln(w, "\nOptions:")
			fs.PrintDefaults()
		}
	}
	cmd.SetupFlags(fs)
	return fs
}

func hasFlags(fs *flag.FlagSet) bool {
	n := 0
	fs.VisitAll(func(*flag.Flag) { n++ })
	return n > 0
}
