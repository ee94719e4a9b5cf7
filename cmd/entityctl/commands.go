package main

import (
	"io"
	"time"

	entity "github.com/goliatone/go-entities"
	"github.com/spf13/cobra"
)

func buildRootCmd(out io.Writer) *cobra.Command {
	a := &app{viper: newViper(), out: out}
	rootCmd := &cobra.Command{
		Use:           "entityctl",
		Short:         "Inspect and edit bot settings trees",
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (yaml, json or toml)")
	flags.String("dir", "settings", "Settings directory")
	flags.StringP("format", "f", "json", "Snapshot and output format (json|yaml)")
	flags.String("log-level", "info", "Log level")
	flags.StringSlice("modules", nil, "Module names to manage in addition to the stored ones")
	if err := bindFlags(a.viper, rootCmd); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		buildDefaultsCmd(a),
		buildValidateCmd(a),
		buildConfCmd(a),
		buildDescribeCmd(a),
		buildSchemaCmd(a),
		buildEvalCmd(a),
		buildApplyCmd(a),
		buildWatchCmd(a),
	)
	return rootCmd
}

func buildDefaultsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults [main|<module>]",
		Short: "Print the default snapshot of a tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDefaults(treeArg(args))
		},
	}
}

func buildValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate every stored tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runValidate(cmd.Context())
		},
	}
}

func buildConfCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "conf [main|<module>]",
		Short: "Print the plain configuration of a stored tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConf(cmd.Context(), treeArg(args))
		},
	}
}

func buildDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [main|<module>]",
		Short: "List the fields of a stored tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDescribe(cmd.Context(), treeArg(args))
		},
	}
}

func buildSchemaCmd(a *app) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "schema [main|<module>]",
		Short: "Print the OpenAPI document of a tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSchema(treeArg(args), title)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Document title")
	return cmd
}

func buildEvalCmd(a *app) *cobra.Command {
	var tree, engine string
	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression against the conf of a stored tree",
		Example: `  entityctl eval 'port >= 1024'
  entityctl eval --tree counter --engine cel 'enabled'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEval(cmd.Context(), tree, engine, args[0])
		},
	}
	cmd.Flags().StringVar(&tree, "tree", mainTree, "Tree to evaluate against (main or a module name)")
	cmd.Flags().StringVar(&engine, "engine", entity.EngineExpr, "Expression engine (expr|cel|js)")
	return cmd
}

func buildApplyCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "apply <bundle.json>",
		Short: "Validate a bundle of snapshots and save it",
		Long: `Apply reads a JSON bundle of the form {"main": <snapshot>, "modules": {"<name>": <snapshot>}}.
Every tree is validated before any is committed; nothing is saved when one fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runApply(cmd.Context(), args[0], dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate only")
	return cmd
}

func buildWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload trees as their files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runWatch(cmd.Context(), debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 250*time.Millisecond, "Delay before reloading a changed file")
	return cmd
}

func treeArg(args []string) string {
	if len(args) == 0 {
		return mainTree
	}
	return args[0]
}
