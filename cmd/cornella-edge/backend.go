package main

import (
	"fmt"

	"github.com/cornella-local/cornella-edge/pkg/backend"
	"github.com/cornella-local/cornella-edge/pkg/client"
	"github.com/cornella-local/cornella-edge/pkg/seed"
	"github.com/spf13/cobra"
)

func newProbeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check the hosted backend REST and Auth endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := backend.New(backendConfig(a.config.Supabase))
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range b.Probe(cmd.Context(), client.DefaultRetryConfig()) {
				status := "ok"
				if !r.OK() {
					status = "FAILED"
					failed++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-5s %-6s %d %s\n", r.Name, status, r.StatusCode, r.Duration)
			}
			if failed > 0 {
				return fmt.Errorf("%d probe(s) failed", failed)
			}
			return nil
		},
	}
}

func newSeedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample businesses with the anonymous key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := backend.New(backendConfig(a.config.Supabase))
			if err != nil {
				return err
			}

			report, err := seed.New(seed.NewSupabaseStore(b.Client())).Seed(cmd.Context(), seed.SampleBusinesses)
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d, featured %d, featured skipped %d, failed %d\n",
				report.Inserted, report.Featured, report.FeatureSkipped, report.Failed)
			return err
		},
	}
}

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Add the featured column using the service-role key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := backend.New(backendConfig(a.config.Supabase))
			if err != nil {
				return err
			}
			admin, err := b.Admin()
			if err != nil {
				return err
			}
			return seed.New(seed.NewSupabaseStore(admin)).Migrate(cmd.Context())
		},
	}
}
