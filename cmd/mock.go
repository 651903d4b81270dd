package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bookerbdd/internal/bookerfake"
	"bookerbdd/internal/config"
	"bookerbdd/pkg/logging"
)

func newMockCmd() *cobra.Command {
	var (
		port                int
		host                string
		username            string
		password            string
		allowExpiredUpdates bool
	)

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Serve an in-memory booking API for offline runs",
		Long: `The mock command serves an in-memory copy of the booking API with the
endpoints and status codes the acceptance suite relies on. It starts with a
few seeded bookings, one of which has already ended.

Point the suite at it with:
  bookerbdd mock --port=3001 &
  bookerbdd test --base-url=http://localhost:3001`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if port < 1 || port > 65535 {
				return fmt.Errorf("port must be between 1 and 65535, got %d", port)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := bookerfake.DefaultOptions()
			opts.Username = username
			opts.Password = password
			opts.RejectExpiredUpdates = !allowExpiredUpdates

			server := bookerfake.New(opts)
			addr := net.JoinHostPort(host, strconv.Itoa(port))

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start(addr)
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "🏨 Mock booking API listening on http://%s\n", addr)

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("mock booking API failed: %w", err)
				}
				return nil
			case <-sigChan:
			case <-cmd.Context().Done():
			}

			logging.Info("Mock", "Shutting down mock booking API")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 3001, "Port to listen on")
	cmd.Flags().StringVar(&host, "host", "localhost", "Interface to listen on")
	cmd.Flags().StringVar(&username, "username", config.DefaultUsername, "Username accepted by POST /auth")
	cmd.Flags().StringVar(&password, "password", config.DefaultPassword, "Password accepted by POST /auth")
	cmd.Flags().BoolVar(&allowExpiredUpdates, "allow-expired-updates", false, "Accept full updates of bookings that have already ended")

	return cmd
}
