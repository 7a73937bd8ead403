// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/walletd/walletd/internal/config"
)

// ProcessStatus holds the probed health of a running walletd server.
type ProcessStatus struct {
	Addr    string `json:"addr"`
	Live    bool   `json:"live"`
	Ready   bool   `json:"ready"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}
	flags := config.Flags()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of a running walletd server",
		Long:  `Probe the observability endpoints of a running walletd server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(configFile, flags)
			if err != nil {
				return err
			}
			return runStatus(cmd, cfg, loaded.ObservabilityAddr)
		},
	}

	cmd.Flags().AddFlagSet(flags)
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

// runStatus probes the health endpoints and prints the result.
func runStatus(cmd *cobra.Command, cfg *statusConfig, addr string) error {
	status := probeStatus(addr)

	if cfg.jsonOutput {
		out, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	if status.Error != "" {
		cmd.Printf("walletd at %s: unreachable (%s)\n", status.Addr, status.Error)
		return nil
	}
	cmd.Printf("walletd at %s: live=%v ready=%v latency=%s\n",
		status.Addr, status.Live, status.Ready, status.Latency)
	return nil
}

// probeStatus hits the liveness and readiness endpoints.
func probeStatus(addr string) ProcessStatus {
	status := ProcessStatus{Addr: addr}
	client := &http.Client{Timeout: 2 * time.Second}

	start := time.Now()
	live, err := client.Get("http://" + addr + "/healthz/liveness")
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer func() { _ = live.Body.Close() }()
	status.Live = live.StatusCode == http.StatusOK
	status.Latency = time.Since(start).Round(time.Millisecond).String()

	ready, err := client.Get("http://" + addr + "/healthz/readiness")
	if err != nil {
		// Liveness answered so the process is up, readiness probe failed.
		return status
	}
	defer func() { _ = ready.Body.Close() }()
	status.Ready = ready.StatusCode == http.StatusOK

	return status
}
