package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/verse-service/internal/adapters/codec"
	"github.com/jsamuelsen/verse-service/internal/adapters/render"
	"github.com/jsamuelsen/verse-service/internal/bootstrap"
	"github.com/jsamuelsen/verse-service/internal/domain"
	"github.com/jsamuelsen/verse-service/internal/platform/config"
	"github.com/jsamuelsen/verse-service/internal/platform/logging"
)

// cli carries the global flags and the content stack of one invocation.
type cli struct {
	configDir string
	profile   string
	logLevel  string

	stdout io.Writer
	stderr io.Writer

	components *bootstrap.Components
}

// execute runs one invocation and releases the content stack however the
// command ended.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{stdout: stdout, stderr: stderr}

	root := c.rootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)

	return errors.Join(err, c.teardown())
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "versectl",
		Short:             "Browse and edit the poems and quotes collection",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configDir, "config-dir", config.DefaultConfigDir, "directory holding base.yaml and profile files")
	flags.StringVar(&c.profile, "profile", envOr("APP_ENVIRONMENT", "local"), "configuration profile")
	flags.StringVar(&c.logLevel, "log-level", "warn", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		c.listCommand(),
		c.showCommand(),
		c.categoriesCommand(),
		c.addCommand(),
		c.editCommand(),
		c.deleteCommand(),
		c.resetCommand(),
		c.exportCommand(),
		c.themeCommand(),
	)

	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

// setup loads configuration and the content. Every subcommand needs it.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFrom(c.configDir, c.profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewWithWriter(&logging.Config{
		Level:   c.logLevel,
		Format:  "pretty",
		Service: "versectl",
		Version: Version,
	}, c.stderr)

	ctx := cmd.Context()

	components, err := bootstrap.Build(ctx, bootstrap.Options{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}

	c.components = components

	if err := components.Orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	return nil
}

func (c *cli) teardown() error {
	if c.components == nil {
		return nil
	}

	components := c.components
	c.components = nil

	return components.Close()
}

func (c *cli) listCommand() *cobra.Command {
	var (
		category string
		query    string
		width    int
	)

	cmd := &cobra.Command{
		Use:       "list [poems|quotes|both]",
		Short:     "Print the filtered view",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"poems", "quotes", "both"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orch := c.components.Orchestrator

			if len(args) == 1 {
				mode, err := domain.ParseViewMode(args[0])
				if err != nil {
					return err
				}

				if err := orch.SetViewMode(ctx, mode); err != nil {
					return err
				}
			}

			if err := orch.SelectCategory(ctx, category); err != nil {
				return err
			}

			if err := orch.SearchNow(ctx, query); err != nil {
				return err
			}

			return render.NewTerminal(c.stdout, render.TerminalOptions{Width: width}).Render(ctx, orch.View())
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", domain.CategoryAll, "category to show")
	cmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive search")
	cmd.Flags().IntVarP(&width, "width", "w", 0, "wrap bodies at this width")

	return cmd
}

func (c *cli) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <poem|quote> <id>",
		Short: "Print one item as plain text",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			v, id, err := variantAndID(args)
			if err != nil {
				return err
			}

			item, err := c.components.Orchestrator.Item(v, id)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(c.stdout, item.PlainText())

			return err
		},
	}
}

func (c *cli) categoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories with their colors",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			r := lipgloss.NewRenderer(c.stdout)

			for _, opt := range c.components.Orchestrator.Categories() {
				swatch := r.NewStyle().Foreground(lipgloss.Color(opt.Color.Hex)).Render("■")
				if _, err := fmt.Fprintf(c.stdout, "%s %-16s %s\n", swatch, opt.Display, opt.Color.Hex); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

// fieldFlags binds the item fields shared by add and edit.
func fieldFlags(cmd *cobra.Command, f *domain.Fields) {
	cmd.Flags().StringVar(&f.Category, "category", "", "category (required)")
	cmd.Flags().StringVar(&f.Author, "author", "", "author")
	cmd.Flags().StringVar(&f.Date, "date", "", "date as YYYY-MM-DD, today when empty")
	cmd.Flags().StringVar(&f.Title, "title", "", "poem title")
	cmd.Flags().StringVar(&f.Content, "content", "", "poem body")
	cmd.Flags().StringVar(&f.Text, "text", "", "quote text")
}

func (c *cli) addCommand() *cobra.Command {
	var fields domain.Fields

	cmd := &cobra.Command{
		Use:   "add <poem|quote>",
		Short: "Add a user item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := domain.ParseVariant(args[0])
			if err != nil {
				return err
			}

			item, err := c.components.Orchestrator.Create(cmd.Context(), v, fields)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(c.stdout, "added %s %d\n", item.Variant, item.ID)

			return err
		},
	}

	fieldFlags(cmd, &fields)
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func (c *cli) editCommand() *cobra.Command {
	var fields domain.Fields

	cmd := &cobra.Command{
		Use:   "edit <poem|quote> <id>",
		Short: "Replace a user item's fields",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, id, err := variantAndID(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			orch := c.components.Orchestrator

			if _, err := orch.BeginEdit(ctx, v, id); err != nil {
				return err
			}

			item, _, err := orch.SaveEdit(ctx, v, fields)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(c.stdout, "updated %s %d\n", item.Variant, item.ID)

			return err
		},
	}

	fieldFlags(cmd, &fields)
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func (c *cli) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <poem|quote> <id>",
		Short: "Delete a user item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, id, err := variantAndID(args)
			if err != nil {
				return err
			}

			if err := c.components.Orchestrator.Delete(cmd.Context(), v, id); err != nil {
				return err
			}

			_, err = fmt.Fprintf(c.stdout, "deleted %s %d\n", v, id)

			return err
		},
	}
}

func (c *cli) resetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard every user change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.components.Orchestrator.Reset(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(c.stdout, "restored the original collection")

			return err
		},
	}
}

func (c *cli) exportCommand() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the working set as a document",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			f, err := codec.ParseFormat(format)
			if err != nil {
				return err
			}

			return writeExport(c.stdout, output, f, c.components.Orchestrator.Snapshot())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(codec.FormatJSON), "json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", `file to write; "-" or empty for stdout`)

	return cmd
}

func writeExport(stdout io.Writer, output string, f codec.Format, ds *domain.Dataset) error {
	if output == "" || output == "-" {
		return codec.ForFormat(f).Encode(stdout, ds)
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}

	if err := codec.ForFormat(f).Encode(file, ds); err != nil {
		_ = file.Close()
		return err
	}

	return file.Close()
}

func (c *cli) themeCommand() *cobra.Command {
	var toggle bool

	cmd := &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show, set or toggle the theme",
		Long:      "With an argument the theme is set; with --toggle it flips; otherwise it is printed.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"light", "dark"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orch := c.components.Orchestrator

			switch {
			case len(args) == 1:
				theme, err := domain.ParseTheme(args[0])
				if err != nil {
					return err
				}

				if err := orch.SetTheme(ctx, theme); err != nil {
					return err
				}
			case toggle:
				if _, err := orch.ToggleTheme(ctx); err != nil {
					return err
				}
			}

			_, err := fmt.Fprintln(c.stdout, orch.State().Theme)

			return err
		},
	}

	cmd.Flags().BoolVarP(&toggle, "toggle", "t", false, "flip between light and dark")

	return cmd
}

func variantAndID(args []string) (domain.Variant, int64, error) {
	v, err := domain.ParseVariant(args[0])
	if err != nil {
		return "", 0, err
	}

	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "", 0, domain.NewValidationErrorWithValue("id", "must be an integer", args[1])
	}

	return v, id, nil
}
