// Command bearerauth verifies Cognito bearer tokens: "serve" runs a small
// protected API and "verify" checks a single token.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	// Variables already set in the environment win over .env.
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "bearerauth",
		Short:         "Verify Cognito-issued bearer tokens",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCommand(), newVerifyCommand())
	return root
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}
