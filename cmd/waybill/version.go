package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"mercator-hq/waybill/pkg/cli"
)

var (
	// Version is the semantic version (set by build flags)
	Version = "0.1.0"
	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"
	// BuildDate is the build timestamp (set by build flags)
	BuildDate = "unknown"
)

type buildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, Git commit, build date and platform of this binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseOutputFormat(outputFormat)
		if err != nil {
			return err
		}
		info := buildInfo{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}
		if format != cli.FormatText {
			return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), info)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Waybill %s\n", info.Version)
		fmt.Fprintf(&b, "Git Commit: %s\n", info.GitCommit)
		fmt.Fprintf(&b, "Build Date: %s\n", info.BuildDate)
		fmt.Fprintf(&b, "Go Version: %s\n", info.GoVersion)
		fmt.Fprintf(&b, "OS/Arch: %s\n", info.Platform)
		_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
