package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/wunderland-sh/wunderland-engine/http/api"
)

var (
	EnvServerSecretKey = "WLD_SECRET_KEY"
	EnvServerEndpoint  = "SERVER_ENDPOINT"
	EnvAuthToken       = "AUTH_TOKEN"
)

func endpointFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "endpoint",
		Aliases: []string{"end", "e"},
		Value:   "http://localhost:8080",
		Usage:   "Server endpoint",
		EnvVars: []string{EnvServerEndpoint},
	}
}

func tokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "token",
		Usage:   "Sudo bearer token",
		EnvVars: []string{EnvAuthToken},
	}
}

// postJSON sends an authenticated JSON body to the server and prints the
// response in the standard envelope.
func postJSON(ctx *cli.Context, path string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("could not serialize request: %w", err)
	}
	r, err := http.NewRequest(http.MethodPost, ctx.String("endpoint")+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json")
	if tok := ctx.String("token"); tok != "" {
		r.Header.Set("Authorization", "Bearer "+tok)
	}
	res, err := http.DefaultClient.Do(r)
	if err != nil {
		return fmt.Errorf("could not do server request: %w", err)
	}
	return printServerResponse(res)
}

func getAuthToken(ctx *cli.Context) error {
	r, err := http.NewRequest(
		http.MethodPost,
		ctx.String("endpoint")+"/token",
		nil,
	)
	if err != nil {
		return err
	}
	r.SetBasicAuth(ctx.String("email"), ctx.String("secret-key"))
	res, err := http.DefaultClient.Do(r)
	if err != nil {
		return fmt.Errorf("could not do server request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}

	var resp api.TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("server did not return a token (response code %d): %s", res.StatusCode, body)
	}

	envFile := ctx.String("env-file")
	if envFile != "" {
		content, err := os.ReadFile(envFile)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read .env file: %w", err)
		}

		lines := strings.Split(string(content), "\n")
		found := false
		for i, line := range lines {
			if strings.HasPrefix(line, "AUTH_TOKEN=") {
				lines[i] = fmt.Sprintf("AUTH_TOKEN=%s", resp.AccessToken)
				found = true
				break
			}
		}
		if !found {
			lines = append(lines, fmt.Sprintf("AUTH_TOKEN=%s", resp.AccessToken))
		}

		if err := os.WriteFile(envFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
			return fmt.Errorf("failed to write .env file: %w", err)
		}
		fmt.Printf("Bearer token written to %s\n", envFile)
	}

	res.Body = io.NopCloser(bytes.NewReader(body))
	return printServerResponse(res)
}

func adminCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "auth",
			Usage: "Authentication related commands",
			Subcommands: []*cli.Command{
				{
					Name:        "get-token",
					Usage:       "Gets a new sudo token",
					Description: "This is a sudo operation and requires the server secret key for basic auth.",
					Flags: []cli.Flag{
						endpointFlag(),
						&cli.StringFlag{
							Name:    "secret-key",
							Aliases: []string{"sk", "s"},
							Usage:   "Server secret key",
							EnvVars: []string{EnvServerSecretKey},
						},
						&cli.StringFlag{
							Name:     "email",
							Required: true,
							Usage:    "User's email",
						},
						&cli.StringFlag{
							Name:  "env-file",
							Usage: "Path to .env file to update with the new token",
							Value: ".env",
						},
					},
					Action: getAuthToken,
				},
			},
		},
		{
			Name:  "initialize",
			Usage: "Initialize the program config, treasury, and economics",
			Flags: []cli.Flag{
				endpointFlag(),
				tokenFlag(),
				&cli.StringFlag{
					Name:     "authority",
					Required: true,
					Usage:    "Admin authority public key (base58)",
				},
				&cli.StringFlag{
					Name:  "payer",
					Usage: "Rent payer public key; defaults to the authority",
				},
			},
			Action: func(ctx *cli.Context) error {
				return postJSON(ctx, "/admin/initialize", api.InitializeRequest{
					Authority: ctx.String("authority"),
					Payer:     ctx.String("payer"),
				})
			},
		},
		{
			Name:  "fund",
			Usage: "Credit a wallet (development deployments only)",
			Flags: []cli.Flag{
				endpointFlag(),
				tokenFlag(),
				&cli.StringFlag{
					Name:     "wallet",
					Required: true,
					Usage:    "Wallet public key (base58)",
				},
				&cli.Uint64Flag{
					Name:     "lamports",
					Required: true,
					Usage:    "Amount to credit",
				},
			},
			Action: func(ctx *cli.Context) error {
				return postJSON(ctx, "/admin/fund", api.FundWalletRequest{
					Wallet:   ctx.String("wallet"),
					Lamports: ctx.Uint64("lamports"),
				})
			},
		},
		{
			Name:  "settle-tip",
			Usage: "Settle a pending tip",
			Flags: []cli.Flag{
				endpointFlag(),
				tokenFlag(),
				&cli.StringFlag{
					Name:     "tip",
					Required: true,
					Usage:    "Tip account address (base58)",
				},
				&cli.StringFlag{
					Name:  "caller",
					Usage: "Settlement authority; defaults to the config authority",
				},
			},
			Action: func(ctx *cli.Context) error {
				return postJSON(ctx, "/tips/settle", api.TipActionRequest{
					Tip:    ctx.String("tip"),
					Caller: ctx.String("caller"),
				})
			},
		},
		{
			Name:  "refund-tip",
			Usage: "Refund a pending tip",
			Flags: []cli.Flag{
				endpointFlag(),
				tokenFlag(),
				&cli.StringFlag{
					Name:     "tip",
					Required: true,
					Usage:    "Tip account address (base58)",
				},
				&cli.StringFlag{
					Name:  "caller",
					Usage: "Settlement authority; defaults to the config authority",
				},
			},
			Action: func(ctx *cli.Context) error {
				return postJSON(ctx, "/tips/refund", api.TipActionRequest{
					Tip:    ctx.String("tip"),
					Caller: ctx.String("caller"),
				})
			},
		},
		{
			Name:  "publish-global-epoch",
			Usage: "Publish a global rewards epoch from the global treasury",
			Flags: []cli.Flag{
				endpointFlag(),
				tokenFlag(),
				&cli.StringFlag{
					Name:     "authority",
					Required: true,
					Usage:    "Config authority public key (base58)",
				},
				&cli.Uint64Flag{
					Name:     "epoch",
					Required: true,
					Usage:    "Epoch number",
				},
				&cli.StringFlag{
					Name:     "merkle-root",
					Required: true,
					Usage:    "Merkle root (hex)",
				},
				&cli.Uint64Flag{
					Name:     "lamports",
					Required: true,
					Usage:    "Total epoch amount",
				},
				&cli.Int64Flag{
					Name:  "claim-window",
					Usage: "Claim window in seconds (0 = no deadline)",
				},
			},
			Action: func(ctx *cli.Context) error {
				return postJSON(ctx, "/rewards/publish-global", api.PublishEpochRequest{
					Authority:          ctx.String("authority"),
					Epoch:              ctx.Uint64("epoch"),
					MerkleRoot:         ctx.String("merkle-root"),
					Lamports:           ctx.Uint64("lamports"),
					ClaimWindowSeconds: ctx.Int64("claim-window"),
				})
			},
		},
	}
}
