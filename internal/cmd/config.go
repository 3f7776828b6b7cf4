package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/stitch-sync/internal/catalog"
	"github.com/TechnicallyShaun/stitch-sync/internal/config"
	"github.com/TechnicallyShaun/stitch-sync/internal/logging"
	"github.com/TechnicallyShaun/stitch-sync/internal/prompt"
)

// ErrValueRequired is returned by config set for a key that needs a value.
var ErrValueRequired = errors.New("value is required")

// NewConfigCmd creates the config command group
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change saved settings",
		Long: fmt.Sprintf(`Show or change the settings stitch-sync remembers between runs.

Keys: %s. Each setting can also be overridden with an environment
variable named %s_<KEY>, e.g. %s_MACHINE.`,
			strings.Join(config.Keys(), ", "), config.EnvPrefix, config.EnvPrefix),
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigClearCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file: %s\n", store.Path())
			for _, key := range config.Keys() {
				value, err := store.Get(key)
				if err != nil {
					return err
				}
				switch {
				case value == "":
					value = "(not set)"
				case !store.IsPersisted(key):
					value += " (default)"
				}
				fmt.Fprintf(out, "  %-14s %s\n", key, value)
			}
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> [value]",
		Short: "Save a setting",
		Long: `Save a setting. Running "config set machine" without a value shows the
list of known machines to choose from.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openConfig(cmd)
			if err != nil {
				return err
			}

			key := configKey(args[0])
			if _, err := store.Get(key); err != nil {
				return err
			}
			value := ""
			if len(args) == 2 {
				value = args[1]
			}
			out := cmd.OutOrStdout()

			switch key {
			case config.KeyMachine:
				m, ok, err := selectMachine(value, prompterFor(cmd), out)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "No machine selected")
					return nil
				}
				value = m.Name
			case config.KeyOutputFormat:
				if value == "" {
					return fmt.Errorf("%s: %w", key, ErrValueRequired)
				}
				if _, ok := catalog.FindFormat(value); !ok {
					return fmt.Errorf("unknown output format %q (run 'stitch-sync formats' for the list)", value)
				}
			case config.KeyLogLevel:
				if _, err := logging.ParseLevel(value); err != nil {
					return err
				}
			default:
				if value == "" {
					return fmt.Errorf("%s: %w", key, ErrValueRequired)
				}
			}

			if err := store.Set(key, value); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s set to %s\n", key, value)
			return nil
		},
	}
}

func newConfigClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <key>",
		Short: "Remove a saved setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openConfig(cmd)
			if err != nil {
				return err
			}
			key := configKey(args[0])
			if err := store.Clear(key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s cleared\n", key)
			return nil
		},
	}
}

// configKey accepts watch-dir as well as watch_dir.
func configKey(arg string) string {
	return strings.ReplaceAll(strings.ToLower(arg), "-", "_")
}

// selectMachine resolves name against the catalog, or offers the full list
// of machine names when name is empty.
func selectMachine(name string, p prompt.Prompter, out io.Writer) (catalog.Machine, bool, error) {
	cat, err := catalog.Default()
	if err != nil {
		return catalog.Machine{}, false, err
	}
	if name != "" {
		return cat.InteractiveResolve(name, p, out)
	}

	refs := cat.Names()
	sort.SliceStable(refs, func(i, j int) bool {
		return strings.ToLower(refs[i].Name) < strings.ToLower(refs[j].Name)
	})
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}

	fmt.Fprintln(out, "Select your embroidery machine:")
	idx, err := prompt.Choose(p, out, names)
	if errors.Is(err, prompt.ErrCancelled) {
		return catalog.Machine{}, false, nil
	}
	if err != nil {
		return catalog.Machine{}, false, err
	}
	return cat.Machine(refs[idx].Index), true, nil
}
