package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/joho/godotenv/autoload"

	"github.com/bnema/ghcr-retention/internal/config"
	"github.com/bnema/ghcr-retention/internal/prune"
	"github.com/bnema/ghcr-retention/internal/registry"
	"github.com/bnema/ghcr-retention/pkg/logger"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "ghcr-retention <account-type> <org-name> <image-names> <timestamp-type> <cut-off> [token]",
	Short: "Delete outdated container image versions from the GitHub Container Registry",
	Long: `ghcr-retention deletes versions of a container image whose creation or
last-update timestamp predates a cut-off.

Arguments:
  account-type    'org' or 'personal'
  org-name        organization name, required when account-type is 'org'
  image-names     one or more comma-separated image names
  timestamp-type  'updated_at' or 'created_at'
  cut-off         timestamp or expression like '2 days ago UTC'; must carry
                  a timezone
  token           personal access token; falls back to GITHUB_TOKEN`,
	Args:          cobra.RangeArgs(5, 6),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func Execute(build, commit, date string) error {
	setBuildInfo(build, commit, date)
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Run failed", "error", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func run(cmd *cobra.Command, args []string) error {
	log := logger.GetLogger()
	log.ConfigureFromEnv()
	if logLevel != "" {
		log.SetLogLevel(logLevel)
	}

	token := os.Getenv("GITHUB_TOKEN")
	if len(args) == 6 && args[5] != "" {
		token = args[5]
	}
	if token == "" {
		return fmt.Errorf("a token is required: pass it as the sixth argument or set GITHUB_TOKEN")
	}

	cfg, err := config.Validate(args[0], args[1], args[3], args[4])
	if err != nil {
		return err
	}
	images := registry.ParseImageNames(args[2])

	ctx := cmd.Context()
	client := registry.NewClient(ctx, token, "")
	defer client.Close()

	pruner := prune.New(registry.NamespaceFor(client, cfg), cfg)
	return pruner.Run(ctx, images)
}
