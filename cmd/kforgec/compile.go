package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/kforge/kforge/emit"
)

func newCompileCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "compile <input.json>",
		Short: "Compile a JSON kernel module description into a .kmod file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			if outputPath == "" {
				outputPath = trimExt(inputPath) + ".kmod"
			}

			raw, err := os.ReadFile(inputPath)
			if err != nil {
				return errors.Wrapf(err, "reading %q", inputPath)
			}

			module, err := decodeModule(raw)
			if err != nil {
				return err
			}

			opts, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			klog.V(2).InfoS("compiling module", "name", module.Name, "kernels", len(module.Kernels))
			body, descs, err := emit.EmitModule(module, opts)
			if err != nil {
				return errors.Wrapf(err, "compiling %q", inputPath)
			}

			out := append(emit.EncodeHeader(descs), body...)
			if err := os.WriteFile(outputPath, out, 0o644); err != nil {
				return errors.Wrapf(err, "writing %q", outputPath)
			}
			klog.V(2).InfoS("wrote module", "path", outputPath, "bytes", len(out))

			if dump := os.Getenv("HL_SPIRV_DUMP_FILE"); dump != "" {
				if err := os.WriteFile(dump, body, 0o644); err != nil {
					return errors.Wrapf(err, "writing HL_SPIRV_DUMP_FILE %q", dump)
				}
			}

			cmd.Printf("compiled %s -> %s (%d bytes, %d entry points)\n", inputPath, outputPath, len(out), len(descs))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output .kmod path (default: <input> with .kmod extension)")
	return cmd
}

func trimExt(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return path
}
