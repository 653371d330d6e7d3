package main

import (
	"fmt"

	"github.com/reglet-dev/wasm-bootstrap/config"
	"github.com/reglet-dev/wasm-bootstrap/domain/entities"
	"github.com/reglet-dev/wasm-bootstrap/host"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"module":             "module.path",
	"entry":              "module.entry",
	"argument":           "module.argument",
	"host-module":        "module.host_module",
	"memory-limit-pages": "module.memory_limit_pages",
	"cache-dir":          "module.cache_dir",
	"log-level":          "log.level",
	"log-format":         "log.format",
	"metrics-textfile":   "metrics.textfile",
}

// app carries state shared by all subcommands of one invocation.
type app struct {
	configFile string
	viper      *viper.Viper
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "bootstrap [module.wasm]",
		Short: "Load a WASM module and run its entry point",
		Long: `bootstrap loads a pre-compiled WebAssembly module, calls its entry export
once with a fixed argument and reports success or the failure detail on stderr.`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
		RunE:              a.runBootstrap,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (YAML)")
	pf.String("module", "", "path to the WASM module")
	pf.String("entry", entities.DefaultEntryPoint, "exported function to invoke")
	pf.String("argument", entities.DefaultArgument, "value passed to the entry function")
	pf.String("host-module", host.DefaultHostModule, "module name host functions are exported under")
	pf.Uint32("memory-limit-pages", 0, "guest memory cap in 64KiB pages (0 keeps the runtime default)")
	pf.String("cache-dir", "", "directory for the compilation cache")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("metrics-textfile", "", "write Prometheus metrics to this file after the run")

	root.AddCommand(
		newRunCommand(a),
		newInspectCommand(a),
		newConfigCommand(a),
	)
	return root
}

// initConfig builds the viper instance from the config file, environment and flags.
func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	v, err := config.NewViper(a.configFile)
	if err != nil {
		return err
	}
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	a.viper = v
	return nil
}

// modulePath lets a positional argument override the configured module path.
func (a *app) modulePath(args []string) {
	if len(args) > 0 && args[0] != "" {
		a.viper.Set("module.path", args[0])
	}
}
