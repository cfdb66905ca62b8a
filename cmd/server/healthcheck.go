package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashureev/careersim/internal/grpchealth"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Query the gRPC health endpoint and exit non-zero unless SERVING",
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = v.GetString("grpc.health_addr")
		}
		if addr == "" {
			return errors.New("no health address: pass --addr or set GRPC_HEALTH_ADDR")
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		status, err := grpchealth.Check(ctx, addr, grpchealth.ServiceName)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), status.String())
		if status != healthpb.HealthCheckResponse_SERVING {
			return fmt.Errorf("service is %s", status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().String("addr", "", "gRPC health address (default GRPC_HEALTH_ADDR)")
	healthcheckCmd.Flags().Duration("timeout", 3*time.Second, "overall timeout")
}
