// Package main is the operator CLI for the lucky draw service. It mints
// a bearer token from the shared JWT secret and drives the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/R3E-Network/luckydraw/internal/httputil"
	"github.com/R3E-Network/luckydraw/internal/middleware"
)

const usage = `Usage: luckydrawctl [flags] <command> [args]

Commands:
  status                          Service status
  draws                           List draws
  draw <id>                       Show one draw
  tiers <id>                      Show a draw's prize tiers
  funds <id>                      Show a draw's fund summary
  result <id> <address>           Show a participant's result
  create-draw <token>             Create a draw for a prize token
  fund <id> <amount>              Fund a draw
  close <id>                      Close a draw
  cancel <id>                     Cancel a draw
  withdraw <id> <recipient>       Withdraw a draw's leftover funds
  whitelist <allow|revoke> <address>...
                                  Update the whitelist
  pause                           Pause entry acceptance
  unpause                         Resume entry acceptance

Flags:
`

func main() {
	addr := flag.String("addr", envOr("LUCKYDRAW_ADDR", "http://localhost:8080"), "Service base URL")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "JWT secret shared with the service")
	caller := flag.String("caller", os.Getenv("LUCKYDRAW_OWNER"), "Caller address for minted tokens")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	_ = godotenv.Load()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var token string
	if *secret != "" {
		var err error
		token, err = middleware.IssueToken(*secret, *caller)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	}

	client := httputil.NewClient(httputil.ClientConfig{
		BaseURL: *addr,
		Token:   token,
		Timeout: *timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, client, os.Stdout, args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *httputil.Client, out io.Writer, args []string) error {
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "status":
		resp, err := client.Get(ctx, "/v1/status")
		return show(out, resp, err)
	case "draws":
		resp, err := client.Get(ctx, "/v1/draws")
		return show(out, resp, err)
	case "draw":
		if len(rest) != 1 {
			return fmt.Errorf("draw: expected <id>")
		}
		resp, err := client.Get(ctx, "/v1/draws/"+rest[0])
		return show(out, resp, err)
	case "tiers":
		if len(rest) != 1 {
			return fmt.Errorf("tiers: expected <id>")
		}
		resp, err := client.Get(ctx, "/v1/draws/"+rest[0]+"/tiers")
		return show(out, resp, err)
	case "funds":
		if len(rest) != 1 {
			return fmt.Errorf("funds: expected <id>")
		}
		resp, err := client.Get(ctx, "/v1/draws/"+rest[0]+"/funds")
		return show(out, resp, err)
	case "result":
		if len(rest) != 2 {
			return fmt.Errorf("result: expected <id> <address>")
		}
		resp, err := client.Get(ctx, "/v1/draws/"+rest[0]+"/results/"+rest[1])
		return show(out, resp, err)
	case "create-draw":
		if len(rest) != 1 {
			return fmt.Errorf("create-draw: expected <token>")
		}
		resp, err := client.Post(ctx, "/v1/draws", map[string]string{"token": rest[0]})
		return show(out, resp, err)
	case "fund":
		if len(rest) != 2 {
			return fmt.Errorf("fund: expected <id> <amount>")
		}
		resp, err := client.Post(ctx, "/v1/draws/"+rest[0]+"/fund", map[string]string{"amount": rest[1]})
		return show(out, resp, err)
	case "close":
		if len(rest) != 1 {
			return fmt.Errorf("close: expected <id>")
		}
		resp, err := client.Post(ctx, "/v1/draws/"+rest[0]+"/close", nil)
		return show(out, resp, err)
	case "cancel":
		if len(rest) != 1 {
			return fmt.Errorf("cancel: expected <id>")
		}
		resp, err := client.Post(ctx, "/v1/draws/"+rest[0]+"/cancel", nil)
		return show(out, resp, err)
	case "withdraw":
		if len(rest) != 2 {
			return fmt.Errorf("withdraw: expected <id> <recipient>")
		}
		resp, err := client.Post(ctx, "/v1/draws/"+rest[0]+"/withdraw", map[string]string{"recipient": rest[1]})
		return show(out, resp, err)
	case "whitelist":
		if len(rest) < 2 || (rest[0] != "allow" && rest[0] != "revoke") {
			return fmt.Errorf("whitelist: expected <allow|revoke> <address>...")
		}
		resp, err := client.Put(ctx, "/v1/whitelist", map[string]any{
			"addresses": rest[1:],
			"allowed":   rest[0] == "allow",
		})
		return show(out, resp, err)
	case "pause":
		resp, err := client.Post(ctx, "/v1/pause", nil)
		return show(out, resp, err)
	case "unpause":
		resp, err := client.Post(ctx, "/v1/unpause", nil)
		return show(out, resp, err)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// show decodes the response and pretty prints it.
func show(out io.Writer, resp *http.Response, err error) error {
	if err != nil {
		return err
	}
	var body any
	if err := httputil.DecodeResponse(resp, &body); err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(body)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
