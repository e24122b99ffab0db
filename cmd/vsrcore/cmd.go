// cmd.go - root CLI wiring
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seedvr2/infercore/envconfig"
)

// NewCLI builds the vsrcore root command and its subcommands.
func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vsrcore",
		Short:         "Video super-resolution diffusion inference core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := newRunCmd()
	appendEnvDocs(runCmd, []envconfig.EnvVar{
		envconfig.AsMap()["INFERCORE_PRESERVE_VRAM"],
		envconfig.AsMap()["INFERCORE_TILED_VAE"],
		envconfig.AsMap()["INFERCORE_BLOCK_SWAP"],
		envconfig.AsMap()["INFERCORE_BATCH_SIZE"],
		envconfig.AsMap()["INFERCORE_TEMPORAL_OVERLAP"],
		envconfig.AsMap()["INFERCORE_TARGET_WIDTH"],
	})

	rootCmd.AddCommand(runCmd)
	return rootCmd
}

// appendEnvDocs documents the env vars a command's flags can be
// overridden by, in the order given.
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}
	usage := "\nEnvironment Variables:\n"
	for _, e := range envs {
		usage += fmt.Sprintf("      %-28s %s\n", e.Name, e.Description)
	}
	cmd.SetUsageTemplate(cmd.UsageTemplate() + usage)
}
