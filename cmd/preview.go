package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/render-gateway/internal/server"
)

const defaultPreviewUA = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var (
		path      string
		userAgent string
	)
	cmd := &cobra.Command{
		Use:   "preview <product-id>",
		Short: "Render the crawler view of one product page to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			app, err := server.Build(cmd.Context(), &cfg, server.Options{Version: Version, Logger: zap.NewNop()})
			if err != nil {
				return fmt.Errorf("build application: %w", err)
			}
			defer func() { _ = app.Close(context.WithoutCancel(cmd.Context())) }()

			target := path
			if target == "" {
				target = cfg.Routes.ProductPrefix + args[0]
			}
			if !strings.HasPrefix(target, "/") {
				target = "/" + target
			}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, "http://localhost"+target, nil)
			if err != nil {
				return fmt.Errorf("build preview request: %w", err)
			}
			req.Header.Set("User-Agent", userAgent)

			res := app.Gateway().Render(cmd.Context(), req)
			fmt.Fprintf(cmd.ErrOrStderr(), "decision=%s category=%s route=%s\n",
				res.Decision, res.Classification.Category, res.Route.Kind)
			if res.ProductErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "product: %v\n", res.ProductErr)
			}
			if res.Decision.Proxied() {
				if res.OriginErr != nil {
					return fmt.Errorf("request would be proxied: %w", res.OriginErr)
				}
				return fmt.Errorf("request would be proxied (decision %s)", res.Decision)
			}
			if _, err := cmd.OutOrStdout().Write(res.Body); err != nil {
				return fmt.Errorf("write preview: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "request path (default <product_prefix><product-id>)")
	cmd.Flags().StringVar(&userAgent, "user-agent", defaultPreviewUA, "crawler User-Agent to simulate")
	return cmd
}
