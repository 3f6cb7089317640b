package main

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/abatilo/triage/internal/blob"
	"github.com/abatilo/triage/internal/lock"
)

// leaseCmd implements 'triage lease' command group.
func leaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lease",
		Short: "Inspect or break the single-writer lease",
	}

	cmd.AddCommand(
		leaseShowCmd(),
		leaseBreakCmd(),
	)

	return cmd
}

type leaseResponse struct {
	Held      bool       `json:"held"`
	Owner     string     `json:"owner,omitempty"`
	Since     *time.Time `json:"since,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
}

// leaseShowCmd implements 'triage lease show'.
func leaseShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show who holds the writer lease",
		Run: func(cmd *cobra.Command, _ []string) {
			a := getApp(cmd)

			l, err := lock.Load(cmd.Context(), a.backend)
			if errors.Is(err, blob.ErrNotFound) {
				printLease(leaseResponse{}, "No writer holds the lease")
				return
			}
			if err != nil {
				printError(err)
			}

			resp := leaseResponse{
				Held:      true,
				Owner:     l.Owner,
				Since:     &l.AcquiredAt,
				ExpiresAt: &l.ExpiresAt,
				Expired:   l.Expired(time.Now()),
			}
			msg := "Lease held by " + l.Owner + " since " + l.AcquiredAt.Format(time.RFC3339)
			if resp.Expired {
				msg += " (expired)"
			}
			printLease(resp, msg)
		},
	}
}

// leaseBreakCmd implements 'triage lease break'.
func leaseBreakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "break",
		Short: "Remove a lease left behind by a crashed writer",
		Run: func(cmd *cobra.Command, _ []string) {
			a := getApp(cmd)

			broken, err := lock.Break(cmd.Context(), a.backend)
			if err != nil {
				printError(err)
			}
			if !broken {
				printOutput(formatter.FormatMessage("No lease to break"))
				return
			}
			a.logger.Warn("writer lease broken", "store", a.svc.Location())
			printOutput(formatter.FormatMessage("Lease broken"))
		},
	}
}

func printLease(resp leaseResponse, msg string) {
	if !jsonOutput {
		printOutput(formatter.FormatMessage(msg))
		return
	}
	data, _ := json.Marshal(resp)
	printOutput(string(data) + "\n")
}
