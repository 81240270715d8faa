// Package manifest loads declarative type registrations from TOML. A
// manifest describes interfaces and object types with their properties and
// signals, so hosts can set up a type lineage without writing registration
// code. Manifest-declared types keep property values in default storage.
package manifest

import (
	"fmt"
	"math"
	"strings"

	"github.com/BurntSushi/toml"

	"tether"
)

// Manifest is one parsed declaration file.
type Manifest struct {
	Path   string
	Config Config
}

// Config mirrors the TOML structure.
type Config struct {
	Interfaces []InterfaceDecl `toml:"interface"`
	Types      []TypeDecl      `toml:"type"`
}

// InterfaceDecl declares one interface type.
type InterfaceDecl struct {
	Name string `toml:"name"`
}

// TypeDecl declares one instantiable object type. Parent defaults to Object
// and must be declared earlier in the file or registered already.
type TypeDecl struct {
	Name       string         `toml:"name"`
	Parent     string         `toml:"parent"`
	Floating   bool           `toml:"floating"`
	Implements []string       `toml:"implements"`
	Properties []PropertyDecl `toml:"property"`
	Signals    []SignalDecl   `toml:"signal"`
}

// PropertyDecl declares one property. Min, max, and default apply to the
// numeric kinds; default also applies to bool and string.
type PropertyDecl struct {
	Name    string   `toml:"name"`
	Type    string   `toml:"type"`
	Flags   []string `toml:"flags"`
	Min     *int64   `toml:"min"`
	Max     *int64   `toml:"max"`
	Default any      `toml:"default"`
}

// SignalDecl declares one signal.
type SignalDecl struct {
	Name   string   `toml:"name"`
	Params []string `toml:"params"`
	Return string   `toml:"return"`
	Flags  []string `toml:"flags"`
}

// Load parses and structurally validates a manifest file.
func Load(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if len(cfg.Interfaces) == 0 && len(cfg.Types) == 0 {
		return nil, fmt.Errorf("%s: manifest declares no types", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0].String())
	}
	for i, it := range cfg.Interfaces {
		if strings.TrimSpace(it.Name) == "" {
			return nil, fmt.Errorf("%s: [[interface]] #%d: missing name", path, i+1)
		}
	}
	for i, td := range cfg.Types {
		if strings.TrimSpace(td.Name) == "" {
			return nil, fmt.Errorf("%s: [[type]] #%d: missing name", path, i+1)
		}
		for j, pd := range td.Properties {
			if strings.TrimSpace(pd.Name) == "" || strings.TrimSpace(pd.Type) == "" {
				return nil, fmt.Errorf("%s: type %s property #%d: name and type are required", path, td.Name, j+1)
			}
		}
		for j, sd := range td.Signals {
			if strings.TrimSpace(sd.Name) == "" {
				return nil, fmt.Errorf("%s: type %s signal #%d: missing name", path, td.Name, j+1)
			}
		}
	}
	return &Manifest{Path: path, Config: cfg}, nil
}

// Register registers everything the manifest declares, interfaces first,
// then object types in file order. Names already registered are reused, so
// loading the same manifest twice is harmless.
func (m *Manifest) Register() ([]tether.Type, error) {
	var out []tether.Type
	for _, it := range m.Config.Interfaces {
		t, err := tether.EnsureType(it.Name, func() (tether.Type, error) {
			return tether.RegisterInterface(it.Name)
		})
		if err != nil {
			return nil, fmt.Errorf("%s: interface %s: %w", m.Path, it.Name, err)
		}
		out = append(out, t)
	}
	for _, td := range m.Config.Types {
		t, err := m.registerType(td)
		if err != nil {
			return nil, fmt.Errorf("%s: type %s: %w", m.Path, td.Name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *Manifest) registerType(td TypeDecl) (tether.Type, error) {
	parent := tether.TypeObject
	if td.Parent != "" {
		p, ok := tether.TypeFromName(td.Parent)
		if !ok {
			return tether.InvalidType, fmt.Errorf("parent %q is not registered", td.Parent)
		}
		parent = p
	}
	var ifaces []tether.Type
	for _, name := range td.Implements {
		it, ok := tether.TypeFromName(name)
		if !ok {
			return tether.InvalidType, fmt.Errorf("interface %q is not registered", name)
		}
		ifaces = append(ifaces, it)
	}

	var specs []*tether.ParamSpec
	for _, pd := range td.Properties {
		spec, err := buildSpec(pd)
		if err != nil {
			return tether.InvalidType, fmt.Errorf("property %s: %w", pd.Name, err)
		}
		specs = append(specs, spec)
	}
	var signals []tether.SignalSpec
	for _, sd := range td.Signals {
		spec, err := buildSignal(sd)
		if err != nil {
			return tether.InvalidType, fmt.Errorf("signal %s: %w", sd.Name, err)
		}
		signals = append(signals, spec)
	}

	return tether.EnsureType(td.Name, func() (tether.Type, error) {
		return tether.RegisterType(td.Name, parent, tether.TypeInfo{
			Floating:   td.Floating,
			Implements: ifaces,
			ClassInit: func(c *tether.Class) {
				c.InstallProperties(specs)
				for _, s := range signals {
					c.AddSignal(s)
				}
			},
		})
	})
}

func buildSpec(pd PropertyDecl) (*tether.ParamSpec, error) {
	flags, err := parseParamFlags(pd.Flags)
	if err != nil {
		return nil, err
	}
	// Bounds left out of the manifest mean unconstrained, not zero.
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if pd.Min != nil {
		lo = *pd.Min
	}
	if pd.Max != nil {
		hi = *pd.Max
	}
	switch pd.Type {
	case "bool":
		def, err := boolDefault(pd.Default)
		if err != nil {
			return nil, err
		}
		return tether.ParamBool(pd.Name, flags, def), nil
	case "string":
		def, err := stringDefault(pd.Default)
		if err != nil {
			return nil, err
		}
		return tether.ParamString(pd.Name, flags, def), nil
	case "int64":
		def, err := intDefault(pd.Default)
		if err != nil {
			return nil, err
		}
		return tether.ParamInt64(pd.Name, flags, lo, hi, def), nil
	case "uint64":
		def, err := intDefault(pd.Default)
		if err != nil {
			return nil, err
		}
		if def < 0 || (pd.Min != nil && lo < 0) || (pd.Max != nil && hi < 0) {
			return nil, fmt.Errorf("negative bound on a uint64 property")
		}
		ulo, uhi := uint64(0), uint64(math.MaxUint64)
		if pd.Min != nil {
			ulo = uint64(lo)
		}
		if pd.Max != nil {
			uhi = uint64(hi)
		}
		return tether.ParamUint64(pd.Name, flags, ulo, uhi, uint64(def)), nil
	case "float64":
		def, err := floatDefault(pd.Default)
		if err != nil {
			return nil, err
		}
		flo, fhi := -math.MaxFloat64, math.MaxFloat64
		if pd.Min != nil {
			flo = float64(lo)
		}
		if pd.Max != nil {
			fhi = float64(hi)
		}
		return tether.ParamFloat64(pd.Name, flags, flo, fhi, def), nil
	default:
		if t, ok := tether.TypeFromName(pd.Type); ok && t.Fundamental() == tether.TypeObject {
			return tether.ParamObject(pd.Name, flags, t), nil
		}
		return nil, fmt.Errorf("unsupported property type %q", pd.Type)
	}
}

func buildSignal(sd SignalDecl) (tether.SignalSpec, error) {
	flags, err := parseSignalFlags(sd.Flags)
	if err != nil {
		return tether.SignalSpec{}, err
	}
	var params []tether.Type
	for _, name := range sd.Params {
		t, ok := tether.TypeFromName(name)
		if !ok {
			return tether.SignalSpec{}, fmt.Errorf("unknown parameter type %q", name)
		}
		params = append(params, t)
	}
	ret := tether.TypeNone
	if sd.Return != "" {
		t, ok := tether.TypeFromName(sd.Return)
		if !ok {
			return tether.SignalSpec{}, fmt.Errorf("unknown return type %q", sd.Return)
		}
		ret = t
	}
	return tether.SignalSpec{Name: sd.Name, Params: params, Return: ret, Flags: flags}, nil
}

func parseParamFlags(names []string) (tether.ParamFlags, error) {
	var flags tether.ParamFlags
	for _, name := range names {
		switch name {
		case "readable":
			flags |= tether.ParamReadable
		case "writable":
			flags |= tether.ParamWritable
		case "readwrite":
			flags |= tether.ParamReadWrite
		case "construct":
			flags |= tether.ParamConstruct
		case "construct-only":
			flags |= tether.ParamConstructOnly
		case "lax-validation":
			flags |= tether.ParamLaxValidation
		default:
			return 0, fmt.Errorf("unknown property flag %q", name)
		}
	}
	if flags == 0 {
		flags = tether.ParamReadWrite
	}
	return flags, nil
}

func parseSignalFlags(names []string) (tether.SignalFlags, error) {
	var flags tether.SignalFlags
	for _, name := range names {
		switch name {
		case "run-first":
			flags |= tether.SignalRunFirst
		case "run-last":
			flags |= tether.SignalRunLast
		case "detailed":
			flags |= tether.SignalDetailed
		case "action":
			flags |= tether.SignalAction
		case "no-recurse":
			flags |= tether.SignalNoRecurse
		default:
			return 0, fmt.Errorf("unknown signal flag %q", name)
		}
	}
	return flags, nil
}

func boolDefault(v any) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	default:
		return false, fmt.Errorf("default %v is not a bool", v)
	}
}

func stringDefault(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	default:
		return "", fmt.Errorf("default %v is not a string", v)
	}
}

func intDefault(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return t, nil
	default:
		return 0, fmt.Errorf("default %v is not an integer", v)
	}
}

func floatDefault(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	default:
		return 0, fmt.Errorf("default %v is not a float", v)
	}
}
