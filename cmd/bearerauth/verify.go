package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lpforge/bearerauth/core"
	"github.com/lpforge/bearerauth/internal/config"
)

// errRejected makes the command exit non-zero after printing the outcome.
var errRejected = errors.New("token rejected")

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [token]",
		Short: "Verify one token and print the outcome; reads stdin when no token is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			token, err := tokenArg(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			s, err := newStack(cmd.Context(), cfg, newLogger(cfg.LogLevel))
			if err != nil {
				return err
			}
			defer s.Close()

			return verifyToken(cmd.Context(), s.validator, token, cmd.OutOrStdout())
		},
	}
}

func tokenArg(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("could not read token from stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}

type verifyResult struct {
	Authenticated bool        `json:"authenticated"`
	Subject       string      `json:"subject,omitempty"`
	Claims        core.Claims `json:"claims,omitempty"`
	Reason        core.Reason `json:"reason,omitempty"`
	Retryable     bool        `json:"retryable,omitempty"`
	Detail        string      `json:"detail,omitempty"`
}

// verifyToken prints the outcome, including the rejection reason and detail
// that an HTTP client would never see.
func verifyToken(ctx context.Context, v core.Validator, token string, out io.Writer) error {
	var outcome core.Outcome
	if token != "" {
		outcome = v.ValidateToken(ctx, token)
	}

	result := verifyResult{
		Authenticated: outcome.OK(),
		Subject:       outcome.Subject(),
		Claims:        outcome.Claims(),
		Reason:        outcome.Reason(),
		Retryable:     outcome.Retryable(),
	}
	if detail := outcome.Detail(); detail != nil {
		result.Detail = detail.Error()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if !outcome.OK() {
		return errRejected
	}
	return nil
}
