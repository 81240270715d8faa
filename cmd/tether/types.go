package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"tether"
	"tether/manifest"
)

var (
	typesManifest string
	typesTree     bool
)

var (
	objectNameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	interfaceNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Italic(true)
	annotationStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
)

func init() {
	typesCmd.Flags().StringVar(&typesManifest, "manifest", "", "TOML manifest of types to register first")
	typesCmd.Flags().BoolVar(&typesTree, "tree", false, "render the lineage as a tree")
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List registered object and interface types",
	RunE: func(cmd *cobra.Command, args []string) error {
		if typesManifest != "" {
			if err := registerManifest(typesManifest); err != nil {
				return err
			}
		}
		out := cmd.OutOrStdout()
		if typesTree {
			renderTypeTree(out)
			return nil
		}
		renderTypeList(out)
		return nil
	},
}

func registerManifest(path string) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	if _, err := m.Register(); err != nil {
		return err
	}
	return nil
}

func renderTypeList(out io.Writer) {
	fmt.Fprintln(out, headerStyle.Render("objects"))
	for _, t := range lineageInOrder(tether.TypeObject) {
		fmt.Fprintf(out, "  %s\n", objectNameStyle.Render(t.Name()))
	}
	ifaces := lineageInOrder(tether.TypeInterface)
	if len(ifaces) <= 1 {
		return
	}
	fmt.Fprintln(out, headerStyle.Render("interfaces"))
	for _, t := range ifaces[1:] {
		fmt.Fprintf(out, "  %s\n", interfaceNameStyle.Render(t.Name()))
	}
}

func renderTypeTree(out io.Writer) {
	renderTreeNode(out, tether.TypeObject, "", true)
	ifaces := tether.TypeInterface.Children()
	if len(ifaces) == 0 {
		return
	}
	fmt.Fprintln(out)
	renderTreeNode(out, tether.TypeInterface, "", true)
}

func renderTreeNode(out io.Writer, t tether.Type, prefix string, last bool) {
	branch := "├── "
	childPrefix := prefix + "│   "
	if last {
		branch = "└── "
		childPrefix = prefix + "    "
	}
	if prefix == "" {
		branch = ""
		childPrefix = ""
	}

	name := objectNameStyle.Render(t.Name())
	if t.IsInterface() {
		name = interfaceNameStyle.Render(t.Name())
	}
	fmt.Fprintf(out, "%s%s%s%s\n", prefix, branch, name, typeAnnotation(t))

	kids := t.Children()
	for i, kid := range kids {
		renderTreeNode(out, kid, childPrefix, i == len(kids)-1)
	}
}

func typeAnnotation(t tether.Type) string {
	c := tether.ClassFor(t)
	if c == nil {
		return ""
	}
	props := 0
	for _, spec := range c.ListProperties() {
		if spec.OwnerType() == t {
			props++
		}
	}
	signals := 0
	for _, spec := range c.ListSignals() {
		if spec.OwnerType() == t {
			signals++
		}
	}
	if props == 0 && signals == 0 {
		return ""
	}
	return annotationStyle.Render(fmt.Sprintf("  (%dp %ds)", props, signals))
}

// lineageInOrder flattens the subtree under root, root first, depth first in
// registration order.
func lineageInOrder(root tether.Type) []tether.Type {
	out := []tether.Type{root}
	for _, kid := range root.Children() {
		out = append(out, lineageInOrder(kid)...)
	}
	return out
}
