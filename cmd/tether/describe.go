package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"tether"
)

var describeManifest string

func init() {
	describeCmd.Flags().StringVar(&describeManifest, "manifest", "", "TOML manifest of types to register first")
}

var describeCmd = &cobra.Command{
	Use:   "describe <type>",
	Short: "Show one type's lineage, properties, and signals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if describeManifest != "" {
			if err := registerManifest(describeManifest); err != nil {
				return err
			}
		}
		t, ok := tether.TypeFromName(args[0])
		if !ok {
			return fmt.Errorf("type %q is not registered", args[0])
		}
		return renderTypeDetails(cmd.OutOrStdout(), t)
	},
}

func renderTypeDetails(out io.Writer, t tether.Type) error {
	fmt.Fprintln(out, headerStyle.Render(t.Name()))
	fmt.Fprintf(out, "lineage:    %s\n", lineageString(t))
	if ifaces := t.Interfaces(); len(ifaces) > 0 {
		names := make([]string, len(ifaces))
		for i, it := range ifaces {
			names[i] = it.Name()
		}
		fmt.Fprintf(out, "implements: %s\n", strings.Join(names, ", "))
	}

	c := tether.ClassFor(t)
	if c == nil {
		return fmt.Errorf("type %q is not an object type", t.Name())
	}

	props := c.ListProperties()
	if len(props) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render("properties"))
		renderRow(out, "NAME", "TYPE", "FLAGS", "DEFAULT", "OWNER")
		for _, spec := range props {
			def := spec.DefaultValue()
			renderRow(out, spec.Name, spec.ValueType.Name(), paramFlagsString(spec), def.Describe(), spec.OwnerType().Name())
			def.Unset()
		}
	}

	signals := c.ListSignals()
	if len(signals) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render("signals"))
		renderRow(out, "NAME", "PARAMS", "RETURN", "FLAGS", "OWNER")
		for _, spec := range signals {
			params := make([]string, len(spec.Params))
			for i, p := range spec.Params {
				params[i] = p.Name()
			}
			renderRow(out, spec.Name, strings.Join(params, ", "), spec.Return.Name(),
				signalFlagsString(spec.Flags), spec.OwnerType().Name())
		}
	}
	return nil
}

var detailColumns = []int{24, 18, 14, 18, 16}

func renderRow(out io.Writer, cells ...string) {
	var b strings.Builder
	b.WriteString("  ")
	for i, cell := range cells {
		width := 12
		if i < len(detailColumns) {
			width = detailColumns[i]
		}
		b.WriteString(runewidth.FillRight(runewidth.Truncate(cell, width-1, "…"), width))
	}
	fmt.Fprintln(out, strings.TrimRight(b.String(), " "))
}

func lineageString(t tether.Type) string {
	names := []string{t.Name()}
	for cur := t; ; {
		parent, ok := cur.Parent()
		if !ok {
			break
		}
		names = append(names, parent.Name())
		cur = parent
	}
	return strings.Join(names, " -> ")
}

func paramFlagsString(spec *tether.ParamSpec) string {
	var parts []string
	if spec.Readable() {
		parts = append(parts, "r")
	}
	if spec.Writable() {
		parts = append(parts, "w")
	}
	if spec.ConstructOnly() {
		parts = append(parts, "construct-only")
	} else if spec.Flags&tether.ParamConstruct != 0 {
		parts = append(parts, "construct")
	}
	if spec.Flags&tether.ParamLaxValidation != 0 {
		parts = append(parts, "lax")
	}
	return strings.Join(parts, ",")
}

func signalFlagsString(f tether.SignalFlags) string {
	var parts []string
	if f&tether.SignalRunFirst != 0 {
		parts = append(parts, "run-first")
	}
	if f&tether.SignalRunLast != 0 {
		parts = append(parts, "run-last")
	}
	if f&tether.SignalDetailed != 0 {
		parts = append(parts, "detailed")
	}
	if f&tether.SignalAction != 0 {
		parts = append(parts, "action")
	}
	if f&tether.SignalNoRecurse != 0 {
		parts = append(parts, "no-recurse")
	}
	return strings.Join(parts, ",")
}
