package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/stitch-sync/internal/catalog"
)

// NewMachinesCmd creates the machines command
func NewMachinesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "machines",
		Short: "List supported embroidery machines",
		Args:  cobra.NoArgs,
		RunE:  runListMachines,
	}
	addListFlags(cmd)
	return cmd
}

// NewMachineCmd creates the machine command group
func NewMachineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "machine",
		Short: "Look up embroidery machines",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List supported embroidery machines",
		Args:  cobra.NoArgs,
		RunE:  runListMachines,
	}
	addListFlags(list)

	info := &cobra.Command{
		Use:   "info <name>",
		Short: "Show details for one machine",
		Long: `Show details for one machine. The name may be a synonym, and close
misspellings are offered as suggestions.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Default()
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			m, ok, err := cat.InteractiveResolve(name, prompterFor(cmd), out)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(out, "Machine '%s' not found\n", name)
				return nil
			}
			printMachineDetails(out, m)
			return nil
		},
	}

	cmd.AddCommand(list, info)
	return cmd
}

// NewFormatsCmd creates the formats command
func NewFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List known embroidery file formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, f := range catalog.Formats() {
				fmt.Fprintf(out, "%s: %s", f.Extension, f.Manufacturer)
				if f.Notes != "" {
					fmt.Fprintf(out, " -- %s", f.Notes)
				}
				fmt.Fprintln(out)
			}
		},
	}
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "", "only list machines that read this format")
	cmd.Flags().BoolP("verbose", "v", false, "show synonyms, notes, design size and USB path")
}

func runListMachines(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Default()
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	verbose, _ := cmd.Flags().GetBool("verbose")

	machines := cat.All()
	if format != "" {
		machines = cat.WithFormat(format)
	}

	out := cmd.OutOrStdout()
	if len(machines) == 0 {
		fmt.Fprintf(out, "No machines read %s files\n", format)
		return nil
	}
	for _, m := range machines {
		if verbose {
			printMachineDetails(out, m)
			continue
		}
		fmt.Fprintf(out, "%s (%s)\n", m.Name, strings.Join(m.Formats, ", "))
	}
	return nil
}

func printMachineDetails(out io.Writer, m catalog.Machine) {
	fmt.Fprintln(out, m.Name)
	if m.Notes != "" {
		fmt.Fprintf(out, "  Notes: %s\n", m.Notes)
	}
	if len(m.Synonyms) > 0 {
		fmt.Fprintf(out, "  Synonyms: %s\n", strings.Join(m.Synonyms, ", "))
	}
	if len(m.Formats) > 0 {
		fmt.Fprintf(out, "  Formats: %s\n", strings.Join(m.Formats, ", "))
	}
	if m.DesignSize != "" {
		fmt.Fprintf(out, "  Design size: %s\n", m.DesignSize)
	}
	if m.USBPath != nil {
		fmt.Fprintf(out, "  USB path: %s\n", *m.USBPath)
	}
}
