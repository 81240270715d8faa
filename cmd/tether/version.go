package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"tether"
	"tether/internal/version"
)

var versionJSON bool

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "emit machine-readable output")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build metadata and runtime facts",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		objects := len(lineageInOrder(tether.TypeObject))
		interfaces := len(lineageInOrder(tether.TypeInterface)) - 1

		if versionJSON {
			payload := struct {
				Tool       string `json:"tool"`
				Version    string `json:"version"`
				GitCommit  string `json:"git_commit,omitempty"`
				BuildDate  string `json:"build_date,omitempty"`
				GoVersion  string `json:"go_version"`
				Objects    int    `json:"object_types"`
				Interfaces int    `json:"interface_types"`
			}{
				Tool:       "tether",
				Version:    version.Version,
				GitCommit:  version.GitCommit,
				BuildDate:  version.BuildDate,
				GoVersion:  runtime.Version(),
				Objects:    objects,
				Interfaces: interfaces,
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		}

		fmt.Fprintf(out, "tether %s\n", version.Colored())
		if version.GitCommit != "" {
			fmt.Fprintf(out, "commit: %s\n", version.GitCommit)
		}
		if version.BuildDate != "" {
			fmt.Fprintf(out, "built:  %s\n", version.BuildDate)
		}
		fmt.Fprintf(out, "go:     %s\n", runtime.Version())
		fmt.Fprintf(out, "types:  %d object, %d interface\n", objects, interfaces)
		return nil
	},
}
