// Command mustache is a small CLI for compiling and rendering templates
// without writing any Go: render takes a template plus a YAML data file,
// check only compiles and reports errors.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohae/mustache"
	"github.com/mohae/mustache/dynamic"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mustache",
		Short:         "Compile and render mustache templates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRenderCmd(), newCheckCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	var dataPath, partialDir string
	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template against a YAML data file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			templatePath := args[0]
			if dataPath == "" {
				return fmt.Errorf("--data is required")
			}
			data, err := os.ReadFile(dataPath)
			if err != nil {
				return fmt.Errorf("reading data file: %w", err)
			}
			doc, err := dynamic.Unmarshal(data)
			if err != nil {
				return err
			}
			descriptors := dynamic.DescriptorSet(doc)

			var opts []mustache.FileOption
			if partialDir != "" {
				opts = append(opts, mustache.WithPartialDir(partialDir))
			}
			tpl, err := mustache.CompileFile(templatePath, descriptors, opts...)
			if err != nil {
				return fmt.Errorf("compiling %s: %w", templatePath, err)
			}
			out, err := tpl.Apply(dynamic.Root(doc))
			if err != nil {
				return fmt.Errorf("rendering %s: %w", templatePath, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "YAML file supplying the template's variables")
	cmd.Flags().StringVar(&partialDir, "partial-dir", "", "directory {{> name}} partials resolve against (default: the template's own directory)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var dataPath, partialDir string
	cmd := &cobra.Command{
		Use:   "check <template>",
		Short: "Compile a template without rendering it, reporting any error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			templatePath := args[0]
			var descriptors mustache.DescriptorSet
			if dataPath != "" {
				data, err := os.ReadFile(dataPath)
				if err != nil {
					return fmt.Errorf("reading data file: %w", err)
				}
				doc, err := dynamic.Unmarshal(data)
				if err != nil {
					return err
				}
				descriptors = dynamic.DescriptorSet(doc)
			}
			var opts []mustache.FileOption
			if partialDir != "" {
				opts = append(opts, mustache.WithPartialDir(partialDir))
			}
			if _, err := mustache.CompileFile(templatePath, descriptors, opts...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", templatePath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "optional YAML file to resolve variable names against")
	cmd.Flags().StringVar(&partialDir, "partial-dir", "", "directory {{> name}} partials resolve against (default: the template's own directory)")
	return cmd
}
