package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/TwinForge/internal/config"
	"github.com/Strob0t/TwinForge/internal/domain/request"
)

// newProcessCmd runs one request through the pipeline without the server
// and prints the FinalResponse.
func newProcessCmd(load func() (*config.Config, func(), error)) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process a single request file and print the response",
		Example: `  twinforge process --file request.json
  cat request.json | twinforge process --file -`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, flush, err := load()
			if err != nil {
				return err
			}
			defer flush()

			req, err := readRequest(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			principal, _, _, err := newPrincipal(cfg)
			if err != nil {
				return err
			}
			if err := principal.Initialize(); err != nil {
				return err
			}
			defer principal.Close()

			ctx := cmd.Context()
			if cfg.Agents.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Agents.Timeout)
				defer cancel()
			}
			resp, err := principal.Process(ctx, req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `request JSON file, "-" for stdin`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readRequest(path string, stdin io.Reader) (*request.Request, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // path is operator-supplied
	}
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	var req request.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode request %s: %w", path, err)
	}
	return &req, nil
}
