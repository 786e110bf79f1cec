// Command acctl exercises every account flow against a running backend:
// registration, sign-in with optional TOTP, profile edits, verification
// links, password resets, and account deletion.
//
// Sessions live in an in-memory cookie jar, so flows that need one (whoami,
// edit, totp, delete-account request) accept credentials and sign in first.
// Nothing is written to disk between invocations.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	goAccounts "github.com/MrEthical07/goAccounts"
	"github.com/MrEthical07/goAccounts/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := newApp()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "acctl:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "acctl",
		Usage: "drive account flows against the backend from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.StringFlag{Name: "base-url", Usage: "backend origin, overrides config"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log every request"},
			&cli.BoolFlag{Name: "json", Usage: "print raw result envelopes"},
		},
		Commands: []*cli.Command{
			signInCommand(),
			registerCommand(),
			whoamiCommand(),
			signOutCommand(),
			editCommand(),
			verifyEmailCommand(),
			resendVerificationCommand(),
			resetPasswordCommand(),
			totpCommand(),
			deleteAccountCommand(),
		},
	}
}

// buildClient assembles a goAccounts.Client from config file, environment,
// and flags, in ascending precedence.
func buildClient(c *cli.Context) (*goAccounts.Client, error) {
	cfg, err := loadCLIConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	baseURL := cfg.Backend.BaseURL
	if v := c.String("base-url"); v != "" {
		baseURL = v
	}

	clientCfg := goAccounts.Config{}
	clientCfg.HTTP.BaseURL = baseURL
	clientCfg.HTTP.Timeout = cfg.timeout()
	clientCfg.HTTP.UserAgent = cfg.Backend.UserAgent
	clientCfg.Metrics.Enabled = cfg.Metrics.Enabled
	clientCfg.Audit.Enabled = cfg.Audit.Enabled

	builder := goAccounts.New().
		WithConfig(clientCfg).
		WithNavigator(printNavigator{})

	if cfg.Audit.Enabled {
		out := os.Stderr
		if cfg.Audit.Log != "" && cfg.Audit.Log != "-" {
			f, err := os.OpenFile(cfg.Audit.Log, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open audit log: %w", err)
			}
			out = f
		}
		builder = builder.WithAuditSink(goAccounts.NewJSONWriterSink(out))
	}

	if c.Bool("verbose") {
		builder = builder.WithTransport(middleware.Logger(log.New(os.Stderr, "http ", log.LstdFlags)))
	}

	return builder.Build()
}

// printNavigator stands in for the browser redirect: when the session cannot
// be recovered, the CLI can only tell the user to sign in again.
type printNavigator struct{}

func (printNavigator) NavigateToSignIn(path string) {
	fmt.Fprintf(os.Stderr, "session expired: sign in again at %s\n", path)
}

func signInCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign-in",
		Usage: "establish a session and print the signed-in user",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{Name: "captcha-token", Usage: "solved hCaptcha token", EnvVars: []string{"ACCTL_CAPTCHA_TOKEN"}},
			&cli.StringFlag{Name: "totp", Usage: "six-digit code, for accounts with two-factor on"},
		},
		Action: func(c *cli.Context) error {
			client, err := buildClient(c)
			if err != nil {
				return err
			}
			defer client.Close()

			result, err := signIn(c, client)
			if err != nil {
				return err
			}
			return printOutcome(c, result)
		},
	}
}

// signIn runs the full sign-in flow including the TOTP step when the account
// requires it.
func signIn(c *cli.Context, client *goAccounts.Client) (*goAccounts.SignInResult, error) {
	result, err := client.SignIn(c.Context, goAccounts.SignInInput{
		Email:        c.String("email"),
		Password:     c.String("password"),
		CaptchaToken: c.String("captcha-token"),
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == goAccounts.SignInPendingTwoFactor {
		code := c.String("totp")
		if code == "" {
			return nil, fmt.Errorf("account requires a TOTP code: pass --totp")
		}
		return client.VerifyTOTP(c.Context, result.PendingUserID, code)
	}
	return result, nil
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create an account and trigger the verification email",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{Name: "confirm", Usage: "re-entered password; defaults to --password"},
		},
		Action: func(c *cli.Context) error {
			client, err := buildClient(c)
			if err != nil {
				return err
			}
			defer client.Close()

			confirm := c.String("confirm")
			if confirm == "" {
				confirm = c.String("password")
			}
			creds := goAccounts.Credentials{
				Username:          c.String("username"),
				Email:             c.String("email"),
				Password:          c.String("password"),
				ReEnteredPassword: confirm,
			}

			// Local validation first, so format errors never hit the network.
			local, err := client.ValidateUser(c.Context, creds, goAccounts.ValidateOptions{SkipDuplicateCheck: true})
			if err != nil {
				return err
			}
			if !local.Valid {
				printLines(local.ValidationErrors)
				return cli.Exit("registration rejected locally", 1)
			}

			update, err := client.Register(c.Context, creds)
			if err != nil {
				return err
			}
			return printUpdate(c, update)
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "sign in and print the current user and session expiry",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{Name: "captcha-token", EnvVars: []string{"ACCTL_CAPTCHA_TOKEN"}},
			&cli.StringFlag{Name: "totp"},
		},
		Action: func(c *cli.Context) error {
			client, err := buildClient(c)
			if err != nil {
				return err
			}
			defer client.Close()

			if _, err := signIn(c, client); err != nil {
				return err
			}
			user, err := client.CheckSession(c.Context)
			if err != nil {
				return err
			}

			fmt.Printf("id=%d username=%s email=%s totp=%v\n", user.ID, user.Username, user.Email, user.TOTPAuthOn == 1)
			if exp, err := client.SessionExpiry(); err == nil {
				fmt.Printf("session expires %s\n", exp.Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}
}

func signOutCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign-out",
		Usage: "sign in and immediately destroy the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{Name: "captcha-token", EnvVars: []string{"ACCTL_CAPTCHA_TOKEN"}},
			&cli.StringFlag{Name: "totp"},
		},
		Action: func(c *cli.Context) error {
			client, err := buildClient(c)
			if err != nil {
				return err
			}
			defer client.Close()

			if _, err := signIn(c, client); err != nil {
				return err
			}
			result, err := client.SignOut(c.Context)
			if err != nil {
				return err
			}
			return printResult(c, result)
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:  "edit",
		Usage: "sign in and update profile fields",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{Name: "captcha-token", EnvVars: []string{"ACCTL_CAPTCHA_TOKEN"}},
			&cli.StringFlag{Name: "totp"},
			&cli.StringFlag{Name: "new-username"},
			&cli.StringFlag{Name: "new-email"},
			&cli.StringFlag{Name: "new-password"},
		},
		Action: func(c *cli.Context) error {
			client, err := buildClient(c)
			if err != nil {
				return err
			}
			defer client.Close()

			result, err := signIn(c, client)
			if err != nil {
				return err
			}
			if result.Outcome != goAccounts.SignInSucceeded {
				return cli.Exit(result.Message, 1)
			}

			update, err := client.UpdateProfile(c.Context, goAccounts.ProfileUpdate{
				ID:                result.User.ID,
				Username:          c.String("new-username"),
				Email:             c.String("new-email"),
				Password:          c.String("new-password"),
				ReEnteredPassword: c.String("new-password"),
			})
			if err != nil {
				return err
			}
			return printUpdate(c, update)
		},
	}
}

func verifyEmailCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify-email",
		Usage: "redeem a verification or email-change token from a mailed link",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "token", Required: true},
			&cli.BoolFlag{Name: "email-change", Usage: "redeem an email-change confirmation instead"},
		},
		Action: func(c *cli.Context) error {
			client, err := buildClient(c)
			if err != nil {
				return err
			}
			defer client.Close()

			var result *goAccounts.FetchResult
			if c.Bool("email-change") {
				result, err = client.ConfirmEmailChange(c.Context, c.String("token"))
			} else {
				result, err = client.VerifyAccountByEmail(c.Context, c.String("token"))
			}
			if err != nil {
				return err
			}
			return printResult(c, result)
		},
	}
}

func resendVerificationCommand() *cli.Command {
	return &cli.Command{
		Name:  "resend-verification",
		Usage: "ask for the account-verification email again",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
		},
		Action: func(c *cli.Context) error {
			client, err := buildClient(c)
			if err != nil {
				return err
			}
			defer client.Close()

			result, err := client.ResendVerificationEmail(c.Context, c.String("email"))
			if err != nil {
				return err
			}
			return printResult(c, result)
		},
	}
}

func resetPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset-password",
		Usage: "password reset flow",
		Subcommands: []*cli.Command{
			{
				Name:  "request",
				Usage: "send the reset email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
				},
				Action: func(c *cli.Context) error {
					client, err := buildClient(c)
					if err != nil {
						return err
					}
					defer client.Close()

					validation, result, err := client.SendPasswordResetEmail(c.Context, c.String("email"))
					if err != nil {
						return err
					}
					if !validation.Valid {
						printLines(validation.ValidationErrors)
						return cli.Exit("rejected locally", 1)
					}
					return printResult(c, result)
				},
			},
			{
				Name:  "confirm",
				Usage: "set the new password with the mailed token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "token", Required: true},
					&cli.StringFlag{Name: "new-password", Required: true},
					&cli.StringFlag{Name: "confirm", Usage: "re-entered password; defaults to --new-password"},
				},
				Action: func(c *cli.Context) error {
					client, err := buildClient(c)
					if err != nil {
						return err
					}
					defer client.Close()

					confirm := c.String("confirm")
					if confirm == "" {
						confirm = c.String("new-password")
					}
					validation, result, err := client.ResetPassword(c.Context, goAccounts.ResetPasswordInput{
						Email:             c.String("email"),
						NewPassword:       c.String("new-password"),
						ReEnteredPassword: confirm,
						Token:             c.String("token"),
					})
					if err != nil {
						return err
					}
					if !validation.Valid {
						printLines(validation.ValidationErrors)
						return cli.Exit("rejected locally", 1)
					}
					return printResult(c, result)
				},
			},
		},
	}
}

func totpCommand() *cli.Command {
	sessionFlags := []cli.Flag{
		&cli.StringFlag{Name: "email", Required: true},
		&cli.StringFlag{Name: "password", Required: true},
		&cli.StringFlag{Name: "captcha-token", EnvVars: []string{"ACCTL_CAPTCHA_TOKEN"}},
		&cli.StringFlag{Name: "totp"},
	}
	return &cli.Command{
		Name:  "totp",
		Usage: "two-factor management",
		Subcommands: []*cli.Command{
			{
				Name:  "setup",
				Usage: "provision a secret, then enable with a live code",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "code", Usage: "current six-digit code; omit to only print the secret"},
				}, sessionFlags...),
				Action: func(c *cli.Context) error {
					client, err := buildClient(c)
					if err != nil {
						return err
					}
					defer client.Close()

					signedIn, err := signIn(c, client)
					if err != nil {
						return err
					}
					if signedIn.Outcome != goAccounts.SignInSucceeded {
						return cli.Exit(signedIn.Message, 1)
					}

					setup, result, err := client.GetTOTPSecret(c.Context, signedIn.User.ID)
					if err != nil {
						return err
					}
					if setup == nil {
						return printResult(c, result)
					}
					fmt.Println("secret:", setup.Secret)

					code := c.String("code")
					if code == "" {
						fmt.Println("scan the secret, then re-run with --code to enable")
						return nil
					}
					enabled, err := client.SetTOTPAuth(c.Context, goAccounts.TOTPSettings{
						UserID:  signedIn.User.ID,
						Enabled: true,
						Secret:  setup.Secret,
						Code:    code,
					})
					if err != nil {
						return err
					}
					return printResult(c, enabled)
				},
			},
			{
				Name:  "disable",
				Usage: "turn two-factor off and discard the stored secret",
				Flags: sessionFlags,
				Action: func(c *cli.Context) error {
					client, err := buildClient(c)
					if err != nil {
						return err
					}
					defer client.Close()

					signedIn, err := signIn(c, client)
					if err != nil {
						return err
					}
					if signedIn.Outcome != goAccounts.SignInSucceeded {
						return cli.Exit(signedIn.Message, 1)
					}

					result, err := client.SetTOTPAuth(c.Context, goAccounts.TOTPSettings{
						UserID:  signedIn.User.ID,
						Enabled: false,
					})
					if err != nil {
						return err
					}
					return printResult(c, result)
				},
			},
		},
	}
}

func deleteAccountCommand() *cli.Command {
	return &cli.Command{
		Name:  "delete-account",
		Usage: "account deletion flow",
		Subcommands: []*cli.Command{
			{
				Name:  "request",
				Usage: "sign in and request the deletion-confirmation email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "captcha-token", EnvVars: []string{"ACCTL_CAPTCHA_TOKEN"}},
					&cli.StringFlag{Name: "totp"},
				},
				Action: func(c *cli.Context) error {
					client, err := buildClient(c)
					if err != nil {
						return err
					}
					defer client.Close()

					signedIn, err := signIn(c, client)
					if err != nil {
						return err
					}
					if signedIn.Outcome != goAccounts.SignInSucceeded {
						return cli.Exit(signedIn.Message, 1)
					}

					result, err := client.RequestAccountDeletion(c.Context, signedIn.User.ID)
					if err != nil {
						return err
					}
					return printResult(c, result)
				},
			},
			{
				Name:  "confirm",
				Usage: "finalize deletion with the mailed token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "token", Required: true},
				},
				Action: func(c *cli.Context) error {
					client, err := buildClient(c)
					if err != nil {
						return err
					}
					defer client.Close()

					result, err := client.ConfirmAccountDeletion(c.Context, c.String("token"))
					if err != nil {
						return err
					}
					return printResult(c, result)
				},
			},
		},
	}
}

func printOutcome(c *cli.Context, result *goAccounts.SignInResult) error {
	if c.Bool("json") {
		return printJSON(result)
	}
	switch result.Outcome {
	case goAccounts.SignInSucceeded:
		fmt.Printf("signed in as %s (id %d)\n", result.User.Username, result.User.ID)
	case goAccounts.SignInPendingTwoFactor:
		fmt.Printf("TOTP required for user %d\n", result.PendingUserID)
	default:
		msg := result.Message
		if msg == "" {
			msg = "sign-in failed"
		}
		return cli.Exit(msg, 1)
	}
	return nil
}

func printUpdate(c *cli.Context, update *goAccounts.UpdateResult) error {
	if c.Bool("json") {
		return printJSON(update)
	}
	if !update.Accepted() {
		printLines(update.ValidationErrors)
		msg := update.Message
		if msg == "" {
			msg = "rejected"
		}
		return cli.Exit(msg, 1)
	}
	if update.Message != "" {
		fmt.Println(update.Message)
	}
	printLines(update.SuccessfulUpdates)
	return nil
}

func printResult(c *cli.Context, result *goAccounts.FetchResult) error {
	if c.Bool("json") {
		return printJSON(result)
	}
	msg := result.Message
	if msg == "" {
		msg = result.StatusText
	}
	if !result.OK() {
		return cli.Exit(fmt.Sprintf("%d %s", result.Status, msg), 1)
	}
	fmt.Println(msg)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printLines(lines []string) {
	for _, line := range lines {
		fmt.Println(" -", line)
	}
}
