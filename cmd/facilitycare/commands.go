package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/facilitycare/client-go/api"
	"github.com/facilitycare/client-go/credentials"
	"github.com/facilitycare/client-go/internal/config"
	"github.com/facilitycare/client-go/notifications"
	"github.com/facilitycare/client-go/push"
	"github.com/facilitycare/client-go/routeguard"
	"github.com/facilitycare/client-go/session"
)

// app wires the SDK components the way the browser client does: one credential
// store, one shared HTTP client, one session manager owning the push channel.
type app struct {
	cfg           config.Config
	store         credentials.Store
	apiClient     *api.Client
	notifications *notifications.Store
	pushChannel   *push.Manager
	sessions      *session.Manager
}

// printNavigator stands in for the browser router: route changes are printed
// so the user sees where the app would land.
type printNavigator struct{}

func (printNavigator) NavigateTo(path string) {
	fmt.Printf("-> %s\n", path)
}

func newApp() (*app, error) {
	cfg := config.New()
	store := credentials.NewFileStore(cfg.GetCredentialsFile())

	apiClient, err := api.New(cfg.GetAPIBaseURL(), store, api.WithTimeout(cfg.GetHTTPTimeout()))
	if err != nil {
		return nil, err
	}

	notificationStore, err := notifications.NewStore(apiClient)
	if err != nil {
		return nil, err
	}

	pushChannel, err := push.NewManager(cfg.GetWSBaseURL(), store, notificationStore, push.WithReconnect())
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewManager(session.Deps{
		API:         apiClient,
		Credentials: store,
		Push:        pushChannel,
		Navigator:   printNavigator{},
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:           cfg,
		store:         store,
		apiClient:     apiClient,
		notifications: notificationStore,
		pushChannel:   pushChannel,
		sessions:      sessions,
	}, nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "facilitycare",
		Short:         "FacilityCare service-request client",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newLoginCommand(),
		newLogoutCommand(),
		newRegisterCommand(),
		newWhoamiCommand(),
		newNotificationsCommand(),
		newWatchCommand(),
	)
	return root
}

func newLoginCommand() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.sessions.Login(cmd.Context(), session.Credentials{Username: username, Password: password}); err != nil {
				return err
			}
			current := a.sessions.CurrentSession()
			fmt.Printf("Logged in as %s (%s)\n", current.Username, current.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the refresh token and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			a.sessions.Logout(cmd.Context())
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newRegisterCommand() *cobra.Command {
	var registration session.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			registration.Password2 = registration.Password
			result, err := a.sessions.Register(cmd.Context(), registration)
			if err != nil {
				return err
			}
			fmt.Println(result.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&registration.Username, "username", "", "account username")
	cmd.Flags().StringVar(&registration.Email, "email", "", "account email")
	cmd.Flags().StringVar(&registration.Password, "password", "", "account password")
	cmd.Flags().StringVar(&registration.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&registration.LastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the restored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			a.sessions.Restore(cmd.Context())
			current := a.sessions.CurrentSession()
			if current == nil {
				fmt.Println("Not logged in")
				return nil
			}
			fmt.Printf("%s %s <%s> role=%s\n", current.FirstName, current.LastName, current.Email, current.Role)
			for _, building := range current.Buildings {
				fmt.Printf("  building %d: %s, %s\n", building.ID, building.Name, building.City)
			}
			if expiry, err := api.TokenExpiry(a.store.Access()); err == nil {
				fmt.Printf("access token expires %s\n", expiry.Format(time.RFC1123))
			}
			return nil
		},
	}
}

func newNotificationsCommand() *cobra.Command {
	var markAllRead bool
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List notifications and the unread count",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			a.sessions.Restore(cmd.Context())
			if a.sessions.CurrentState() != session.StateAuthenticated {
				return fmt.Errorf("not logged in")
			}

			if markAllRead {
				if err := a.notifications.MarkAllRead(cmd.Context()); err != nil {
					return err
				}
			} else if err := a.notifications.Fetch(cmd.Context()); err != nil {
				return err
			}

			for _, item := range a.notifications.Items() {
				marker := " "
				if !item.IsRead {
					marker = "*"
				}
				fmt.Printf("%s [%d] %s — %s\n", marker, item.ID, item.Title, item.Message)
			}
			fmt.Printf("%d unread\n", a.notifications.Unread())
			return nil
		},
	}
	cmd.Flags().BoolVar(&markAllRead, "mark-all-read", false, "mark every notification read first")
	return cmd
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stay connected and print live notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			figure.NewFigure(a.cfg.GetAppName(), "", true).Print()

			a.sessions.Restore(cmd.Context())
			current := a.sessions.CurrentSession()
			if current == nil {
				return fmt.Errorf("not logged in")
			}
			if decision := routeguard.EvaluatePath(a.sessions.CurrentState(), current, "/"); decision.Action == routeguard.ActionRedirect {
				return fmt.Errorf("cannot watch: redirected to %s", decision.RedirectTo)
			}

			a.notifications.OnToastChange(func(toast *notifications.Toast) {
				if toast == nil {
					return
				}
				if toast.ActionPath != "" {
					fmt.Printf("[%s] %s (%s)\n", toast.Kind, toast.Title, toast.ActionPath)
					return
				}
				fmt.Printf("[%s] %s %s\n", toast.Kind, toast.Title, toast.Message)
			})

			// Admin sessions have no push channel; the session manager only
			// connects it for regular users, so connect here is a no-op in
			// that case and we poll nothing.
			waitForStopSignal()
			a.pushChannel.Disconnect()
			return nil
		},
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("stopping")
}
