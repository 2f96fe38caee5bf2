package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tokscale/tokscale/internal/config"
	"github.com/tokscale/tokscale/internal/cursorsync"
)

func newCursorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cursor",
		Short: "Manage Cursor accounts and remote usage sync",
	}
	cmd.AddCommand(
		newCursorLoginCommand(),
		newCursorLogoutCommand(),
		newCursorListCommand(),
		newCursorUseCommand(),
		newCursorSyncCommand(),
		newCursorStatusCommand(),
	)
	return cmd
}

func newCursorLoginCommand() *cobra.Command {
	var (
		token       string
		fromBrowser bool
		fromApp     bool
		label       string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Add a Cursor account from a token, the browser or the desktop app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			switch {
			case token != "":
			case fromBrowser:
				t, browser, err := cursorsync.SessionTokenFromBrowser(ctx)
				if err != nil {
					return fmt.Errorf("importing browser cookie: %w", err)
				}
				fmt.Fprintf(os.Stderr, "found session cookie in %s\n", browser)
				token = t
			case fromApp:
				t, err := cursorsync.SessionTokenFromApp(ctx)
				if err != nil {
					return fmt.Errorf("reading Cursor app cookies: %w", err)
				}
				token = t
			default:
				return errors.New("provide --token, --from-browser or --from-app")
			}

			client := cursorsync.NewClient()
			info, err := client.ValidateSession(ctx, token)
			if err != nil {
				return err
			}

			home, err := config.Home()
			if err != nil {
				return err
			}
			store, err := cursorsync.LoadStore(home)
			if err != nil {
				return err
			}
			id := store.Add(token, label)
			if err := cursorsync.SaveStore(home, store); err != nil {
				return err
			}

			result := cursorsync.Sync(ctx, home, store, client)
			return printJSON(struct {
				AccountID         string                `json:"accountId"`
				Active            bool                  `json:"active"`
				BillingCycleStart string                `json:"billingCycleStart"`
				BillingCycleEnd   string                `json:"billingCycleEnd"`
				Sync              cursorsync.SyncResult `json:"sync"`
			}{id, store.ActiveAccountID == id, info.BillingCycleStart, info.BillingCycleEnd, result})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "WorkosCursorSessionToken value")
	cmd.Flags().BoolVar(&fromBrowser, "from-browser", false, "import the session cookie from an installed browser")
	cmd.Flags().BoolVar(&fromApp, "from-app", false, "import the session cookie from the Cursor desktop app (macOS)")
	cmd.Flags().StringVar(&label, "label", "", "human-readable account label")
	return cmd
}

func newCursorLogoutCommand() *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "logout [account-id]",
		Short: "Remove a Cursor account (the active one when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			home, err := config.Home()
			if err != nil {
				return err
			}
			store, err := cursorsync.LoadStore(home)
			if err != nil {
				return err
			}
			if len(store.Accounts) == 0 {
				return errors.New("no cursor accounts configured")
			}

			id := store.ActiveAccountID
			if len(args) == 1 {
				id = args[0]
			}
			if _, ok := store.Accounts[id]; !ok {
				return fmt.Errorf("unknown account %q", id)
			}
			if err := cursorsync.RemoveAccount(home, store, id, purge); err != nil {
				return err
			}
			return printJSON(struct {
				Removed         string `json:"removed"`
				ActiveAccountID string `json:"activeAccountId,omitempty"`
			}{id, store.ActiveAccountID})
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "delete the cached CSV instead of archiving it")
	return cmd
}

func newCursorListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored Cursor accounts",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			home, err := config.Home()
			if err != nil {
				return err
			}
			store, err := cursorsync.LoadStore(home)
			if err != nil {
				return err
			}

			type entry struct {
				AccountID string `json:"accountId"`
				UserID    string `json:"userId,omitempty"`
				Label     string `json:"label,omitempty"`
				CreatedAt string `json:"createdAt,omitempty"`
				Active    bool   `json:"active,omitempty"`
			}
			ids := store.AccountIDs()
			out := make([]entry, 0, len(ids))
			for _, id := range ids {
				acct := store.Accounts[id]
				out = append(out, entry{
					AccountID: id,
					UserID:    acct.UserID,
					Label:     acct.Label,
					CreatedAt: acct.CreatedAt,
					Active:    id == store.ActiveAccountID,
				})
			}
			return printJSON(out)
		},
	}
}

func newCursorUseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use <account-id>",
		Short: "Switch the active Cursor account",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			home, err := config.Home()
			if err != nil {
				return err
			}
			store, err := cursorsync.LoadStore(home)
			if err != nil {
				return err
			}
			if err := cursorsync.SwitchActive(home, store, args[0]); err != nil {
				return err
			}
			return printJSON(struct {
				ActiveAccountID string `json:"activeAccountId"`
			}{store.ActiveAccountID})
		},
	}
}

func newCursorSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch fresh usage CSVs for every stored account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, err := config.Home()
			if err != nil {
				return err
			}
			store, err := cursorsync.LoadStore(home)
			if err != nil {
				return err
			}

			result := cursorsync.Sync(cmd.Context(), home, store, cursorsync.NewClient())
			if err := printJSON(result); err != nil {
				return err
			}
			if !result.Synced {
				return errors.New(result.Error)
			}
			return nil
		},
	}
}

func newCursorStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Validate every stored session against the usage-summary endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, err := config.Home()
			if err != nil {
				return err
			}
			store, err := cursorsync.LoadStore(home)
			if err != nil {
				return err
			}
			if len(store.Accounts) == 0 {
				return errors.New("no cursor accounts configured")
			}

			type entry struct {
				AccountID         string `json:"accountId"`
				Active            bool   `json:"active,omitempty"`
				Valid             bool   `json:"valid"`
				BillingCycleStart string `json:"billingCycleStart,omitempty"`
				BillingCycleEnd   string `json:"billingCycleEnd,omitempty"`
				Error             string `json:"error,omitempty"`
			}

			client := cursorsync.NewClient()
			ids := store.AccountIDs()
			out := make([]entry, 0, len(ids))
			for _, id := range ids {
				e := entry{AccountID: id, Active: id == store.ActiveAccountID}
				info, err := client.ValidateSession(cmd.Context(), store.Accounts[id].SessionToken)
				if err != nil {
					e.Error = err.Error()
				} else {
					e.Valid = true
					e.BillingCycleStart = info.BillingCycleStart
					e.BillingCycleEnd = info.BillingCycleEnd
				}
				out = append(out, e)
			}
			return printJSON(out)
		},
	}
}
