package command

import (
	"flag"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/config"
)

// HelpCommand displays help information for commands.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

// NewHelpCommand creates a new help command.
func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(
			"help",
			"Display help information for commands",
			"help [command]",
		),
		registry: registry,
	}
}

// Execute displays help information.
func (c *HelpCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, "bmpbridge - run player scripts against the native bridge")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Usage: bmpbridge <command> [options] [args...]")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Available commands:")

		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, name := range c.registry.List() {
			if cmd, err := c.registry.Get(name); err == nil {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", name, cmd.Description())
			}
		}
		_ = w.Flush()

		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Use 'bmpbridge help <command>' for more information about a specific command (includes flags).")
		return nil
	}

	cmdName := args[0]
	cmd, err := c.registry.Get(cmdName)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", cmdName)
		return err
	}

	NewFlagSet(cmd, flag.ContinueOnError, stdout).Usage()
	return nil
}

// VersionCommand displays version information.
type VersionCommand struct {
	*BaseCommand
	version string
}

// NewVersionCommand creates a new version command.
func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{
		BaseCommand: NewBaseCommand(
			"version",
			"Display version information",
			"version",
		),
		version: version,
	}
}

// Execute displays version information.
func (c *VersionCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		return c.UsageError(stderr, "unexpected arguments %v", args)
	}
	_, _ = fmt.Fprintf(stdout, "bmpbridge version %s\n", c.version)
	return nil
}

// ConfigCommand inspects configuration.
type ConfigCommand struct {
	*BaseCommand
	config *config.Config
}

// NewConfigCommand creates a new config command.
func NewConfigCommand(cfg *config.Config) *ConfigCommand {
	return &ConfigCommand{
		BaseCommand: NewBaseCommand(
			"config",
			"Inspect configuration settings",
			"config [show|schema|validate|<key>]",
		),
		config: cfg,
	}
}

// Execute inspects configuration.
func (c *ConfigCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, "Configuration:")
		_, _ = fmt.Fprintln(stdout, "  config show      - Show effective values of every option")
		_, _ = fmt.Fprintln(stdout, "  config schema    - Show configuration schema")
		_, _ = fmt.Fprintln(stdout, "  config validate  - Validate configuration")
		_, _ = fmt.Fprintln(stdout, "  config <key>     - Get the effective value of one option")
		return nil
	}
	if len(args) > 1 {
		return c.UsageError(stderr, "expected at most one argument, got %d", len(args))
	}

	schema := config.DefaultSchema()
	switch args[0] {
	case "validate":
		return c.executeValidate(stdout)
	case "schema":
		_, _ = fmt.Fprint(stdout, schema.FormatHelp())
		return nil
	case "show":
		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, opt := range schema.SectionOptions("") {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", opt.Key, schema.Resolve(c.config, opt.Key))
		}
		for _, name := range slices.Sorted(maps.Keys(c.config.Commands)) {
			_, _ = fmt.Fprintf(w, "[%s]\t\n", name)
			options := c.config.Commands[name]
			for _, key := range slices.Sorted(maps.Keys(options)) {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", key, options[key])
			}
		}
		return w.Flush()
	}

	// Schema-aware lookup: env, then config file, then default.
	key := args[0]
	if !schema.IsKnown("", key) {
		_, _ = fmt.Fprintf(stdout, "Configuration key '%s' not found\n", key)
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "%s: %s\n", key, schema.Resolve(c.config, key))
	return nil
}

// executeValidate validates the current config against the schema.
func (c *ConfigCommand) executeValidate(stdout io.Writer) error {
	issues := config.ValidateConfig(c.config, config.DefaultSchema())
	if len(issues) == 0 {
		_, _ = fmt.Fprintln(stdout, "Configuration is valid.")
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "Configuration has %d issue(s):\n", len(issues))
	for _, issue := range issues {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", issue)
	}
	return nil
}
