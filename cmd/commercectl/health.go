package main

import (
	"context"
	"fmt"
	"time"

	"commerce-service-go/internal/api"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func healthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Call HealthCheck on a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = a.cfg.Server.GrpcAddr
			}
			timeout, _ := cmd.Flags().GetDuration("timeout")

			conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("failed to create client for %s: %w", addr, err)
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			resp, err := api.NewClient(conn).HealthCheck(ctx, &api.HealthCheckRequest{})
			if err != nil {
				return fmt.Errorf("health check against %s failed: %w", addr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", addr, resp.Status)
			return nil
		},
	}
	cmd.Flags().String("addr", "", "gRPC address (defaults to GRPC_ADDR)")
	cmd.Flags().Duration("timeout", 5*time.Second, "Call timeout")
	return cmd
}
