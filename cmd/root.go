package cmd

import (
	"github.com/spf13/cobra"

	"linegraph/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "linegraph",
	Short:         "Merge line features into a deduplicated weighted graph",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides environment)")
	rootCmd.AddCommand(ingestCmd, serveCmd, tokenCmd)
}

// Execute 运行根命令
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// readConfig 不校验，供需要先应用命令行参数的子命令使用
func readConfig() (*config.Config, error) {
	return config.Read(configPath)
}
