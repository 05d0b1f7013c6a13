package dssctl

import (
	"github.com/spf13/cobra"

	"dss/api"
)

func newServeCmd(a *app) *cobra.Command {
	var root string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve evaluations, reports, charts and run history over HTTP",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = a.cfg.Port
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			var history api.History
			if st != nil {
				defer st.Close()
				history = st
			}

			srv := api.NewServer(a.layout(root), history, port, a.log)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
				a.log.Info().Msg("Shutting down API")
				if err := srv.Shutdown(); err != nil {
					return err
				}
				return <-errCh
			}
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "dataset root (default from config)")
	cmd.Flags().IntVar(&port, "port", 19530, "listen port")
	return cmd
}
