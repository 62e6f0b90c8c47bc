// Command apnsctl is a thin demonstration shell around the apns
// package: connect once, send a payload to a batch of tokens read
// from a file, and drain the feedback service.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaypush/legacyapns/apns"
	"github.com/relaypush/legacyapns/message"
)

var (
	flagConfig      string
	flagCertPath    string
	flagKeyPath     string
	flagKeyPassword string
	flagPKCS12Path  string
	flagPKCS12Pass  string
	flagSandbox     bool
	flagTokensFile  string
	flagAlert       string
	flagReconnect   bool
)

func main() {
	root := &cobra.Command{
		Use:   "apnsctl",
		Short: "send legacy binary APNs push notifications from the command line",
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&flagCertPath, "cert", "", "path to a PEM client certificate")
	root.PersistentFlags().StringVar(&flagKeyPath, "key", "", "path to a PEM private key")
	root.PersistentFlags().StringVar(&flagKeyPassword, "key-password", "", "password for an encrypted PEM private key")
	root.PersistentFlags().StringVar(&flagPKCS12Path, "pkcs12", "", "path to a PKCS#12 bundle")
	root.PersistentFlags().StringVar(&flagPKCS12Pass, "pkcs12-password", "", "password for the PKCS#12 bundle")
	root.PersistentFlags().BoolVar(&flagSandbox, "sandbox", false, "use the sandbox gateway instead of production")

	root.AddCommand(newSendCmd())
	root.AddCommand(newFeedbackCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "send a push notification to a batch of device tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := buildContext()
			if err != nil {
				return err
			}
			defer ctx.Free()

			if connErr := ctx.Connect(); connErr != nil {
				return connErr
			}
			defer ctx.Close()

			tokens, err := readTokens(flagTokensFile)
			if err != nil {
				return err
			}

			payload := &message.Payload{AlertText: flagAlert}

			result, sendErr := ctx.Send(payload, tokens)
			if sendErr != nil {
				return sendErr
			}

			fmt.Printf("sent to %d tokens, %d rejected\n", len(tokens)-len(result.InvalidTokens), len(result.InvalidTokens))
			for _, invalid := range result.InvalidTokens {
				fmt.Printf("  invalid: %s\n", invalid)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagTokensFile, "tokens", "", "path to a file of hex device tokens, one per line")
	cmd.Flags().StringVar(&flagAlert, "alert", "", "alert text to send")
	cmd.Flags().BoolVar(&flagReconnect, "reconnect", true, "reconnect and resume the batch on a resumable error")
	_ = cmd.MarkFlagRequired("tokens")

	return cmd
}

func newFeedbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feedback",
		Short: "drain the feedback service and print every expired token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := buildContext()
			if err != nil {
				return err
			}
			defer ctx.Free()

			if connErr := ctx.FeedbackConnect(); connErr != nil {
				return connErr
			}

			// Feedback returns at most one record per call and an
			// empty slice once the stream has gone idle.
			for {
				tokens, fbErr := ctx.Feedback()
				if fbErr != nil {
					return fbErr
				}
				if len(tokens) == 0 {
					return nil
				}

				for _, tok := range tokens {
					fmt.Println(tok)
				}
			}
		},
	}
}

func buildContext() (*apns.Context, error) {
	apns.LibraryInit()

	fc, err := loadFileConfig(flagConfig)
	if err != nil {
		return nil, err
	}

	cert := firstNonEmpty(flagCertPath, fc.CertPath)
	key := firstNonEmpty(flagKeyPath, fc.KeyPath)
	keyPassword := firstNonEmpty(flagKeyPassword, fc.KeyPassword)
	pkcs12Path := firstNonEmpty(flagPKCS12Path, fc.PKCS12Path)
	pkcs12Pass := firstNonEmpty(flagPKCS12Pass, fc.PKCS12Pass)
	sandbox := flagSandbox || fc.Sandbox

	ctx := apns.NewContext()
	ctx.SetLogLevel(apns.LogInfo | apns.LogError)

	opts := apns.Options(0)
	if flagReconnect {
		opts |= apns.ReconnectOnError
	}
	opts |= apns.LogToStderr
	ctx.SetBehavior(opts)

	if sandbox {
		ctx.SetMode(apns.Sandbox)
	}

	switch {
	case pkcs12Path != "":
		if err := ctx.SetPKCS12(pkcs12Path, pkcs12Pass); err != nil {
			return nil, err
		}
	case cert != "" && key != "":
		if err := ctx.SetCertificate(cert, key, keyPassword); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("apnsctl: either --cert/--key or --pkcs12 must be set")
	}

	return ctx, nil
}

func readTokens(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		tokens = append(tokens, line)
	}
	return tokens, scanner.Err()
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
