package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tether/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tether",
	Short: "Tether object runtime inspector",
	Long:  `Tether is a dynamic object, property, and signal runtime; this tool registers manifests and inspects the resulting type lineage`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	cobra.OnInitialize(applyColorMode)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func applyColorMode() {
	mode, err := rootCmd.PersistentFlags().GetString("color")
	if err != nil {
		return
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		color.NoColor = !isTerminal(os.Stdout)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
