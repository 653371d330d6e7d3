package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/reglet-dev/wasm-bootstrap/config"
	"github.com/reglet-dev/wasm-bootstrap/host"
	"github.com/reglet-dev/wasm-bootstrap/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInspectCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "inspect [module.wasm]",
		Short: "Show a module's imports and exports and check it against the guest ABI",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.modulePath(args)
			cfg, err := config.Load(a.viper)
			if err != nil {
				return err
			}
			logger, err := log.NewLogger(cmd.ErrOrStderr(), cfg.Log.Format, cfg.Log.Level)
			if err != nil {
				return err
			}

			wasmBytes, err := os.ReadFile(cfg.Module.Path)
			if err != nil {
				return fmt.Errorf("failed to read module: %w", err)
			}

			ctx := cmd.Context()
			executor, err := newExecutor(ctx, cfg, logger, io.Discard, io.Discard)
			if err != nil {
				return err
			}
			defer executor.Close(ctx)

			info, err := executor.Inspect(ctx, wasmBytes)
			if err != nil {
				return err
			}
			return writeModuleInfo(cmd.OutOrStdout(), info, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

func writeModuleInfo(w io.Writer, info *host.ModuleInfo, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(info)
	case "text":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	fmt.Fprintln(w, "exports:")
	for _, fn := range info.Exports {
		fmt.Fprintf(w, "  %s\n", signature(fn))
	}
	fmt.Fprintln(w, "imports:")
	for _, fn := range info.Imports {
		fmt.Fprintf(w, "  %s\n", signature(fn))
	}
	fmt.Fprintf(w, "memories: %s\n", strings.Join(info.Memories, ", "))
	if info.Compatible() {
		fmt.Fprintln(w, "compatible: yes")
		return nil
	}
	fmt.Fprintln(w, "compatible: no")
	for _, p := range info.Problems {
		fmt.Fprintf(w, "  - %s\n", p)
	}
	return nil
}

func signature(fn host.FunctionInfo) string {
	name := fn.Name
	if fn.Module != "" {
		name = fn.Module + "." + name
	}
	sig := fmt.Sprintf("%s(%s)", name, strings.Join(fn.Params, ", "))
	if len(fn.Results) > 0 {
		sig += " -> " + strings.Join(fn.Results, ", ")
	}
	return sig
}
