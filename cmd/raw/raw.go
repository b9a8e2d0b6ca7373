package raw

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fraudcheck/cli/internal/api"
	"github.com/fraudcheck/cli/internal/app"
	"github.com/fraudcheck/cli/internal/format"
	"github.com/fraudcheck/cli/internal/utils"
)

// RawCmd represents the raw command
var RawCmd = &cobra.Command{
	Use:   "raw <method> <path> [json-body]",
	Short: "Send a raw request to the backend",
	Long: `Send a request to any backend endpoint and print the response.

The request goes through the same client as every other command, so the
stored credentials are attached and renewed when they expire.

Example:
  fraudcheck raw GET /verify/history?limit=5
  fraudcheck raw POST /verify '{"content":"hi","sender_header":"AX-BANK"}'`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runRaw,
}

func runRaw(cmd *cobra.Command, args []string) error {
	method := strings.ToUpper(args[0])
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("unsupported method: %s", method)
	}

	target, err := url.Parse(args[1])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	path := target.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req := api.Request{Method: method, Path: path, Query: target.Query()}
	if len(args) == 3 {
		var body any
		if err := json.Unmarshal([]byte(args[2]), &body); err != nil {
			return fmt.Errorf("body is not valid JSON: %w", err)
		}
		req.Body = body
	}
	req.Anonymous, _ = cmd.Flags().GetBool("anonymous")

	a, err := app.Current()
	if err != nil {
		return err
	}

	resp, err := a.Client.Send(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("request failed: %s", utils.Message(err))
	}

	var decoded any
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), string(resp.Body))
		return nil
	}
	if envelope, ok := decoded.(map[string]any); ok {
		if data, ok := envelope["data"]; ok {
			decoded = data
		}
	}
	return format.Print(decoded)
}

func init() {
	RawCmd.Flags().Bool("anonymous", false, "Send without credentials")
}
