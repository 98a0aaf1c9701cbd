package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/eduquest/internal/config"
	"github.com/jon4hz/eduquest/internal/credential"
	"github.com/jon4hz/eduquest/internal/database"
	"github.com/jon4hz/eduquest/internal/engine"
	"github.com/mergestat/timediff"
	"github.com/spf13/cobra"
)

var userCmdFlags struct {
	Name     string
	Passcode string
	Role     string
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage EduQuest users",
	Long:  `Add, list and delete users or change a passcode without going through the web UI.`,
}

var userAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add a user",
	Example: `eduquest user add --name Kid --passcode abc123 --role child`,
	Run:     userAdd,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Run:   userList,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a user, their sessions are kept",
	Run:   userDelete,
}

var userPasscodeCmd = &cobra.Command{
	Use:     "passcode",
	Short:   "Change the passcode of a user",
	Long:    `Change the passcode of a user. Use this to rotate the bootstrap admin passcode after install.`,
	Example: `eduquest user passcode --name Parent --passcode 'a-new-secret'`,
	Run:     userPasscode,
}

func init() {
	userCmd.PersistentFlags().StringVar(&userCmdFlags.Name, "name", "", "Name of the user")
	userAddCmd.Flags().StringVar(&userCmdFlags.Passcode, "passcode", "", "Passcode of the user")
	userAddCmd.Flags().StringVar(&userCmdFlags.Role, "role", "child", "Role of the user (child or parent)")
	userPasscodeCmd.Flags().StringVar(&userCmdFlags.Passcode, "passcode", "", "New passcode")

	userCmd.AddCommand(userAddCmd, userListCmd, userDeleteCmd, userPasscodeCmd)
	rootCmd.AddCommand(userCmd)
}

func newCLIEngine(cmd *cobra.Command) (*engine.Engine, func()) {
	cfg, db := loadConfigAndDB()
	e, err := engine.New(cmd.Context(), cfg, db)
	if err != nil {
		_ = db.Close()
		log.Fatalf("failed to create engine: %v", err)
	}
	if err := e.EnsureBootstrapAdmin(cmd.Context()); err != nil {
		log.Fatalf("failed to create bootstrap admin: %v", err)
	}
	return e, func() {
		_ = e.Close()
		_ = db.Close()
	}
}

func userAdd(cmd *cobra.Command, _ []string) {
	role, err := credential.ParseRole(userCmdFlags.Role)
	if err != nil {
		log.Fatal(err)
	}

	e, closeFn := newCLIEngine(cmd)
	defer closeFn()

	user, err := e.RegisterUser(cmd.Context(), nil, userCmdFlags.Name, userCmdFlags.Passcode, role)
	if err != nil {
		log.Fatalf("failed to add user: %v", err)
	}
	log.Info("User added", "name", user.Name, "role", role)
}

func userList(cmd *cobra.Command, _ []string) {
	e, closeFn := newCLIEngine(cmd)
	defer closeFn()

	users, err := e.Users(cmd.Context())
	if err != nil {
		log.Fatalf("failed to list users: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE\tCREATED") //nolint:errcheck
	for i := range users {
		u := &users[i]
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Name, credential.RoleOf(u), timediff.TimeDiff(u.CreatedAt)) //nolint:errcheck
	}
	_ = w.Flush()
}

func userDelete(cmd *cobra.Command, _ []string) {
	e, closeFn := newCLIEngine(cmd)
	defer closeFn()

	if err := e.DeleteUserByName(cmd.Context(), userCmdFlags.Name); err != nil {
		log.Fatalf("failed to delete user %q: %v", userCmdFlags.Name, err)
	}
	log.Info("User deleted", "name", userCmdFlags.Name)
}

func userPasscode(cmd *cobra.Command, _ []string) {
	if userCmdFlags.Passcode == config.DefaultAdminPasscode {
		log.Warn("The new passcode is the publicly known default")
	}

	e, closeFn := newCLIEngine(cmd)
	defer closeFn()

	if err := e.ChangePasscode(cmd.Context(), userCmdFlags.Name, userCmdFlags.Passcode); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			log.Fatalf("user %q does not exist", userCmdFlags.Name)
		}
		log.Fatalf("failed to change passcode: %v", err)
	}
	log.Info("Passcode changed", "name", userCmdFlags.Name)
}
