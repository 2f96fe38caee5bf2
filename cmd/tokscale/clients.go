package main

import (
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/tokscale/tokscale/internal/clients"
	"github.com/tokscale/tokscale/internal/config"
)

func newClientsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "List supported clients with install and session-data status",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			home, err := config.Home()
			if err != nil {
				return err
			}

			type entry struct {
				ID          string `json:"id"`
				DisplayName string `json:"displayName"`
				Path        string `json:"path"`
				HasData     bool   `json:"hasData"`
				Binary      string `json:"binary,omitempty"`
				Headless    bool   `json:"headless,omitempty"`
				RemoteSync  bool   `json:"remoteSync,omitempty"`
			}

			statuses := clients.Detect(home)
			out := make([]entry, 0, len(statuses))
			for _, st := range statuses {
				binary, _ := exec.LookPath(st.ID)
				out = append(out, entry{
					ID:          st.ID,
					DisplayName: st.DisplayName,
					Path:        st.Path,
					HasData:     st.Installed,
					Binary:      binary,
					Headless:    st.Headless,
					RemoteSync:  !st.ParseLocal,
				})
			}
			return printJSON(out)
		},
	}
}
