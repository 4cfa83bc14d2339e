// Command kforgec compiles a JSON-serialized kernel module into a .kmod
// file: a descriptor-set header followed by a SPIR-V binary body, ready
// for a Vulkan compute pipeline to load (spec.md §6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var configPath string

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()

	root := &cobra.Command{
		Use:           "kforgec",
		Short:         "Compile kernel module descriptions to SPIR-V .kmod files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "TOML file of default spirv.Options")

	root.AddCommand(newCompileCmd())
	root.AddCommand(newDumpHeaderCmd())
	root.AddCommand(newDisasmCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kforgec:", err)
		os.Exit(1)
	}
}
