package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fentz26/radar/internal/config"
	"github.com/fentz26/radar/internal/service"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue an API token signed with the configured secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	authn := service.NewAuthenticator(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if !authn.Enabled() {
		return fmt.Errorf("auth is disabled: set auth.secret or RADAR_JWT_SECRET")
	}
	token, err := authn.Issue(args[0])
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
