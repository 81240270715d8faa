package tether

import (
	"sync"
	"testing"
)

// Shared fixture lineage. The registry is process-wide, so every test file
// goes through setupFixtures and reuses the same type ids.
var (
	fixturesOnce    sync.Once
	widgetType      Type
	buttonType      Type
	anchorType      Type
	scrollableIface Type
	panelType       Type
	colorEnum       Type
	featureFlags    Type
)

func setupFixtures(t *testing.T) {
	t.Helper()
	fixturesOnce.Do(registerFixtures)
}

func registerFixtures() {
	widgetType = mustRegister("test.Widget", TypeObject, TypeInfo{
		ClassInit: func(c *Class) {
			c.InstallProperties([]*ParamSpec{
				ParamString("label", ParamReadWrite, ""),
				ParamInt64("width", ParamReadWrite, 0, 1000, 10),
				ParamFloat64("ratio", ParamReadWrite|ParamLaxValidation, 0, 1, 0.5),
				ParamString("id", ParamReadWrite|ParamConstructOnly, "anon"),
				ParamBool("enabled", ParamReadWrite|ParamConstruct, true),
				ParamString("tool-tip", ParamReadWrite, ""),
				ParamObject("child", ParamReadWrite, c.Type()),
			})
			c.AddSignal(SignalSpec{Name: "clicked", Params: []Type{TypeInt64}, Return: TypeBool})
			c.AddSignal(SignalSpec{Name: "damaged", Flags: SignalDetailed})
			c.AddSignal(SignalSpec{
				Name:   "veto",
				Return: TypeBool,
				Accumulator: func(acc *Value, ret Value) bool {
					vetoed, _ := ret.Bool()
					acc.Unset()
					*acc = ret
					return !vetoed
				},
			})
		},
	})

	scrollableIface = mustRegisterInterface("test.Scrollable")

	buttonType = mustRegister("test.Button", widgetType, TypeInfo{
		ClassInit: func(c *Class) {
			c.InstallProperty(ParamString("icon", ParamReadWrite, "none"))
		},
	})

	anchorType = mustRegister("test.Anchor", widgetType, TypeInfo{Floating: true})

	panelType = mustRegister("test.Panel", widgetType, TypeInfo{
		Implements: []Type{scrollableIface},
	})

	colorEnum = mustRegister("test.Color", TypeEnum, TypeInfo{})
	featureFlags = mustRegister("test.Features", TypeFlags, TypeInfo{})
}

func mustRegister(name string, parent Type, info TypeInfo) Type {
	id, err := RegisterType(name, parent, info)
	if err != nil {
		panic(err)
	}
	return id
}

func mustRegisterInterface(name string) Type {
	id, err := RegisterInterface(name)
	if err != nil {
		panic(err)
	}
	return id
}

// destroyCounter reports how many times obj was destroyed through a
// destruction observer.
func destroyCounter(obj Object) *int {
	n := new(int)
	obj.AddWeakNotify(func() { *n++ })
	return n
}
