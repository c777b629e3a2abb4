/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"os"

	"commerce-service-go/internal/common"
	"commerce-service-go/internal/config"
	"commerce-service-go/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

type app struct {
	cfg           *models.Config
	loggerCleanup func()
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "commercectl",
		Short:         "Operator CLI for the commerce service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			a.cfg = cfg
			_, a.loggerCleanup = common.InitializeLogger()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.loggerCleanup != nil {
				a.loggerCleanup()
			}
		},
	}

	rootCmd.AddCommand(paymentCmd(a))
	rootCmd.AddCommand(wishlistCmd(a))
	rootCmd.AddCommand(healthCmd(a))

	if err := rootCmd.Execute(); err != nil {
		zap.L().Error("Command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
