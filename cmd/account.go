package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/cloud"
	"github.com/ashtangalog/ashtanga/internal/cloudsync"
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/validate"
)

// Account command flags.
var (
	accountFlagPassword string
	accountFlagCode     string
	accountFlagPurpose  string
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage your sync account",
	Long: `Sign up or sign in to a sync backend to keep your journal in step across
devices. Set the backend with cloud.base_url in the config file or
ASHTANGA_CLOUD_URL. Only one device stays signed in at a time.

Examples:
  ashtanga account signup you@example.com
  ashtanga account login you@example.com
  ashtanga account status
  ashtanga account reset-password you@example.com`,
	Args: cobra.NoArgs,
	RunE: runAccountStatus,
}

var accountStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show account and sync state",
	Args:  cobra.NoArgs,
	RunE:  runAccountStatus,
}

var accountSignupCmd = &cobra.Command{
	Use:   "signup [EMAIL]",
	Short: "Create an account",
	Long: `Create an account. Without --code a verification code is mailed first and
then asked for. Passwords need 8 characters with a letter and a digit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAccountSignup,
}

var accountLoginCmd = &cobra.Command{
	Use:     "login [EMAIL]",
	Aliases: []string{"signin"},
	Short:   "Sign in and sync",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runAccountLogin,
}

var accountLogoutCmd = &cobra.Command{
	Use:     "logout",
	Aliases: []string{"signout"},
	Short:   "Sign out; local data stays on this device",
	Args:    cobra.NoArgs,
	RunE:    runAccountLogout,
}

var accountSendCodeCmd = &cobra.Command{
	Use:   "send-code EMAIL",
	Short: "Mail a verification code",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountSendCode,
}

var accountVerifyCmd = &cobra.Command{
	Use:   "verify EMAIL CODE",
	Short: "Check a verification code",
	Args:  cobra.ExactArgs(2),
	RunE:  runAccountVerify,
}

var accountPasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	Args:  cobra.NoArgs,
	RunE:  runAccountPassword,
}

var accountResetCmd = &cobra.Command{
	Use:   "reset-password [EMAIL]",
	Short: "Reset a forgotten password with a mailed code",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAccountReset,
}

func init() {
	for _, c := range []*cobra.Command{accountSignupCmd, accountLoginCmd, accountPasswordCmd, accountResetCmd} {
		c.Flags().StringVar(&accountFlagPassword, "password", "", "Password (asked for when omitted)")
	}
	accountSignupCmd.Flags().StringVar(&accountFlagCode, "code", "", "Verification code")
	accountResetCmd.Flags().StringVar(&accountFlagCode, "code", "", "Reset code")
	for _, c := range []*cobra.Command{accountSendCodeCmd, accountVerifyCmd} {
		c.Flags().StringVar(&accountFlagPurpose, "purpose", cloud.PurposeEmailVerification,
			"Code purpose: "+cloud.PurposeEmailVerification+", "+cloud.PurposeResetPassword)
		c.RegisterFlagCompletionFunc("purpose", cobra.FixedCompletions(
			[]string{cloud.PurposeEmailVerification, cloud.PurposeResetPassword}, cobra.ShellCompDirectiveNoFileComp))
	}

	accountCmd.AddCommand(accountStatusCmd, accountSignupCmd, accountLoginCmd, accountLogoutCmd,
		accountSendCodeCmd, accountVerifyCmd, accountPasswordCmd, accountResetCmd)
	rootCmd.AddCommand(accountCmd)
}

// requireSignedIn fails unless a backend is configured and an account is attached.
func requireSignedIn() error {
	if err := ctx.RequireCloud(); err != nil {
		return err
	}
	meta, err := ctx.Reconciler.Meta()
	if err != nil {
		return err
	}
	if !meta.SignedIn() {
		return errors.Refusal(errors.ErrNotSignedIn)
	}
	return nil
}

func checkPurpose(p string) error {
	switch p {
	case cloud.PurposeEmailVerification, cloud.PurposeResetPassword:
		return nil
	}
	return errors.NewValidationErrorWithValue("purpose", p, "unknown code purpose",
		"Use "+cloud.PurposeEmailVerification+" or "+cloud.PurposeResetPassword)
}

// newPassword asks for a password twice unless one was passed as a flag.
func newPassword() (string, error) {
	if accountFlagPassword != "" {
		return accountFlagPassword, validate.Password(accountFlagPassword)
	}
	pw, err := promptSecret("New password")
	if err != nil {
		return "", err
	}
	if err := validate.Password(pw); err != nil {
		return "", err
	}
	again, err := promptSecret("Repeat password")
	if err != nil {
		return "", err
	}
	if again != pw {
		return "", errors.NewValidationError("password", "passwords do not match", "")
	}
	return pw, nil
}

// sendCode mails a code and reports where it went.
func sendCode(email, purpose string) error {
	resp, err := ctx.Account.SendCode(ctx.Ctx(), email, purpose)
	if err != nil {
		return err
	}
	cli := ctx.CLIFormatter()
	cli.Success("Code sent to " + logging.MaskEmail(email))
	if !resp.ExpiresAt.IsZero() {
		cli.Muted("Valid until " + resp.ExpiresAt.Local().Format("15:04"))
	}
	if resp.Code != "" {
		cli.Muted("Development backend code: " + resp.Code)
	}
	return nil
}

func runAccountStatus(cmd *cobra.Command, args []string) error {
	if err := ctx.RequireCloud(); err != nil {
		return err
	}
	return printSyncStatus()
}

func runAccountSignup(cmd *cobra.Command, args []string) error {
	if err := ctx.RequireCloud(); err != nil {
		return err
	}
	email, err := valueOrPrompt(firstArg(args), "Email", false)
	if err != nil {
		return err
	}
	if err := validate.Email(email); err != nil {
		return err
	}
	code := accountFlagCode
	if code == "" {
		if err := sendCode(email, cloud.PurposeEmailVerification); err != nil {
			return err
		}
		if code, err = prompt("Verification code"); err != nil {
			return err
		}
	}
	pw, err := newPassword()
	if err != nil {
		return err
	}

	res, err := ctx.Account.SignUp(ctx.Ctx(), email, pw, code)
	return printSignIn("Account created", res, err)
}

func runAccountLogin(cmd *cobra.Command, args []string) error {
	if err := ctx.RequireCloud(); err != nil {
		return err
	}
	email, err := valueOrPrompt(firstArg(args), "Email", false)
	if err != nil {
		return err
	}
	pw, err := valueOrPrompt(accountFlagPassword, "Password", true)
	if err != nil {
		return err
	}

	res, err := ctx.Account.SignIn(ctx.Ctx(), email, pw)
	return printSignIn("Signed in", res, err)
}

// printSignIn reports a sign-in. A failed first sync does not undo the
// sign-in, so only errors without a result are returned.
func printSignIn(verb string, res *cloudsync.SignInResult, err error) error {
	if res == nil {
		return err
	}
	if ctx.IsJSON() {
		out := map[string]any{"status": "signed_in", "result": res}
		if err != nil {
			out["sync_error"] = err.Error()
		}
		return ctx.JSONFormatter().JSON(out)
	}

	cli := ctx.CLIFormatter()
	cli.Success(verb + " as " + res.User.Email)
	if res.DisplacedDevice != nil {
		cli.Warning(fmt.Sprintf("%s was signed out; only one device stays signed in", res.DisplacedDevice.Name))
	}
	if res.Sync != nil {
		printSyncResult(res.Sync)
	}
	if err != nil {
		if conflict, ok := errors.AsConflictError(err); ok {
			printConflictHint(conflict)
		} else {
			cli.Warning("Sync failed: " + errors.FormatByCategory(err))
		}
	}
	return nil
}

func runAccountLogout(cmd *cobra.Command, args []string) error {
	if err := ctx.RequireCloud(); err != nil {
		return err
	}
	if err := ctx.Account.SignOut(ctx.Ctx()); err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintOK("signed_out", "local data kept")
	}
	ctx.CLIFormatter().Success("Signed out. Your journal stays on this device.")
	return nil
}

func runAccountSendCode(cmd *cobra.Command, args []string) error {
	if err := ctx.RequireCloud(); err != nil {
		return err
	}
	if err := checkPurpose(accountFlagPurpose); err != nil {
		return err
	}
	if ctx.IsJSON() {
		resp, err := ctx.Account.SendCode(ctx.Ctx(), args[0], accountFlagPurpose)
		if err != nil {
			return err
		}
		return ctx.JSONFormatter().JSON(resp)
	}
	return sendCode(args[0], accountFlagPurpose)
}

func runAccountVerify(cmd *cobra.Command, args []string) error {
	if err := ctx.RequireCloud(); err != nil {
		return err
	}
	if err := checkPurpose(accountFlagPurpose); err != nil {
		return err
	}
	if err := validate.VerificationCode(args[1]); err != nil {
		return err
	}
	if err := ctx.Cloud.VerifyCode(ctx.Ctx(), args[0], args[1], accountFlagPurpose); err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintOK("verified", args[0])
	}
	ctx.CLIFormatter().Success("Code verified")
	return nil
}

func runAccountPassword(cmd *cobra.Command, args []string) error {
	if err := requireSignedIn(); err != nil {
		return err
	}
	pw, err := newPassword()
	if err != nil {
		return err
	}
	if err := ctx.Cloud.UpdatePassword(ctx.Ctx(), pw); err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintOK("updated", "password changed")
	}
	ctx.CLIFormatter().Success("Password changed")
	return nil
}

func runAccountReset(cmd *cobra.Command, args []string) error {
	if err := ctx.RequireCloud(); err != nil {
		return err
	}
	email, err := valueOrPrompt(firstArg(args), "Email", false)
	if err != nil {
		return err
	}
	if err := validate.Email(email); err != nil {
		return err
	}
	code := accountFlagCode
	if code == "" {
		if err := sendCode(email, cloud.PurposeResetPassword); err != nil {
			return err
		}
		if code, err = prompt("Reset code"); err != nil {
			return err
		}
	}
	if err := validate.VerificationCode(code); err != nil {
		return err
	}
	pw, err := newPassword()
	if err != nil {
		return err
	}
	if err := ctx.Cloud.ResetPassword(ctx.Ctx(), email, code, pw); err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintOK("reset", "password reset")
	}
	ctx.CLIFormatter().Success("Password reset. Sign in with 'ashtanga account login'.")
	return nil
}

func firstArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
