// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"

	"github.com/LeeDigitalWorks/zapsign/pkg/utils"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "zapsign",
	Short: "ZapSign - presigned URL service for S3-compatible stores",
	Long: `ZapSign is a stateless request-signing service. Browser clients send a
small JSON command and receive a time-bounded, query-signed URL (or a
multipart upload handle) usable directly against the object store, without
the store credentials ever leaving this process.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&utils.ConfigurationFileDirectory, "config_dir", ".", "Directory for configuration files")
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
