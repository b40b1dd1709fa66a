// Package desktop is the command-line side of the web-to-desktop handoff. It
// decodes oceanml:// links and claims the annotation lease on the user's
// behalf.
package desktop

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yungbote/oceanml-backend/internal/handoff"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

var errInvalidHandoff = errors.New("handoff link is missing required parameters")

type commandContext struct {
	configFlag string
	cfg        *Config
	log        *logger.Logger
}

func (c *commandContext) ensureConfig() (*Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, _, err := LoadConfig(c.configFlag)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	c.cfg = cfg
	c.log = log
	return cfg, nil
}

func NewRootCommand() *cobra.Command {
	ctx := &commandContext{}

	root := &cobra.Command{
		Use:           "oceanml-desktop",
		Short:         "OceanML desktop handoff helper",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")

	root.AddCommand(newParseCommand(ctx))
	root.AddCommand(newOpenCommand(ctx))
	return root
}

type parseOutput struct {
	Action       string  `json:"action"`
	VideoID      *string `json:"video_id"`
	TokenPresent bool    `json:"token_present"`
	Valid        bool    `json:"valid"`
}

func newParseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <url>",
		Short: "Decode a handoff link and report whether it is usable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := handoff.Parse(args[0], ctx.cfg.Scheme)
			if err != nil {
				return err
			}
			out := parseOutput{
				Action:       req.Action,
				VideoID:      req.VideoID,
				TokenPresent: req.Token != nil,
				Valid:        handoff.Validate(req, ctx.log),
			}
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if !out.Valid {
				return errInvalidHandoff
			}
			return nil
		},
	}
}

func newOpenCommand(ctx *commandContext) *cobra.Command {
	var leaseMinutes int
	cmd := &cobra.Command{
		Use:   "open <url>",
		Short: "Claim the annotation lease named by a handoff link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			req, err := handoff.Parse(args[0], cfg.Scheme)
			if err != nil {
				return err
			}
			if !handoff.Validate(req, ctx.log) {
				return errInvalidHandoff
			}
			if req.Action != handoff.ActionAnnotate {
				return fmt.Errorf("unsupported handoff action %q", req.Action)
			}

			minutes := cfg.LeaseMinutes
			if cmd.Flags().Changed("lease-minutes") {
				if err := validateLeaseMinutes("--lease-minutes", leaseMinutes); err != nil {
					return err
				}
				minutes = leaseMinutes
			}

			client := NewClient(cfg.APIBaseURL, cfg.Timeout())
			decision, err := client.StartAnnotation(cmd.Context(), *req.VideoID, *req.Token, minutes)
			if err != nil {
				if IsUnauthorized(err) {
					return fmt.Errorf("handoff token was rejected; request a new link from the web app: %w", err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if !decision.Success {
				holder := "another user"
				if decision.LockedBy != nil && *decision.LockedBy != "" {
					holder = *decision.LockedBy
				}
				fmt.Fprintf(out, "Video %s is locked by %s", decision.VideoID, holder)
				if decision.LockedUntil != nil {
					fmt.Fprintf(out, " until %s", decision.LockedUntil.Local().Format("2006-01-02 15:04"))
				}
				fmt.Fprintln(out)
				return fmt.Errorf("lease not granted")
			}

			ctx.log.Info("lease granted", "video_id", decision.VideoID)
			fmt.Fprintf(out, "Lease granted for video %s\n", decision.VideoID)
			if decision.LockedUntil != nil {
				fmt.Fprintf(out, "Expires: %s\n", decision.LockedUntil.Local().Format("2006-01-02 15:04"))
			}
			if decision.DownloadURL != "" {
				fmt.Fprintf(out, "Download: %s\n", decision.DownloadURL)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&leaseMinutes, "lease-minutes", 0, "Lease duration in minutes (overrides config)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
