/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/go-ultiprint/gcode"
	"github.com/allbin/go-ultiprint/internal/tui/colors"
	"github.com/allbin/go-ultiprint/internal/tui/components"
	"github.com/allbin/go-ultiprint/printer"
)

var (
	preDump   bool
	preOutput string
)

// preprocessCmd represents the preprocess command
var preprocessCmd = &cobra.Command{
	Use:     "preprocess <file.gcode>",
	Aliases: []string{"pre"},
	Short:   "Encode a G-code file without a printer and report statistics",
	Long: `Encode a G-code file the way print and store would and report how much the
packed encoding saves. Commands that could not be packed are listed by
mnemonic.

No printer is needed. Use --dump to see every frame, or --output to write
the encoded stream to a file.

Examples:
  ultiprint preprocess part.gcode
  ultiprint pre part.gcode --dump | less
  ultiprint pre part.gcode -o part.bin`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, log := loadConfig()
		path := args[0]

		// wrapped like store, so the sequence numbers match what is sent
		prog, err := loadProgram(path, printer.ModeStore, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if preDump || preOutput != "" {
			if err := dumpFrames(prog); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		printStats(path, prog.Stats())
	},
}

func init() {
	rootCmd.AddCommand(preprocessCmd)

	preprocessCmd.Flags().BoolVar(&preDump, "dump", false, "Print every frame, packed frames as hex")
	preprocessCmd.Flags().StringVarP(&preOutput, "output", "o", "", "Write the encoded stream to a file")
}

func dumpFrames(prog *gcode.Program) error {
	frames, err := prog.Frames()
	if err != nil {
		return err
	}

	var out *os.File
	if preOutput != "" {
		out, err = os.Create(preOutput)
		if err != nil {
			return err
		}
		defer out.Close()
	}

	for i, fr := range frames {
		if preDump {
			fmt.Printf("%6d  %-40s  %s\n", fr.Seq, prog.Command(i).Text, fr)
		}
		if out != nil {
			if _, err := out.Write(fr.Data); err != nil {
				return err
			}
		}
	}
	if out != nil {
		return out.Sync()
	}
	return nil
}

func printStats(path string, stats *gcode.Stats) {
	title := lipgloss.NewStyle().Bold(true).Foreground(colors.Blue)
	label := lipgloss.NewStyle().Foreground(colors.Subtext0).Width(16)

	row := func(name string, value any) {
		fmt.Printf("  %s %v\n", label.Render(name), value)
	}

	fmt.Println(title.Render(path))
	row("Commands", stats.Commands.Load())
	row("Packed", stats.PackedCommands.Load())
	row("Text bytes", stats.OrigBytes.Load())
	row("Encoded bytes", stats.PackedBytes.Load())
	row("Ratio", fmt.Sprintf("%.1f%%", stats.Ratio()))

	if len(stats.Legacy()) > 0 {
		fmt.Println()
		fmt.Println(components.LegacyTable(stats))
	}
}
