package tether

import (
	"errors"
	"testing"
)

func TestConnectEmitDisconnect(t *testing.T) {
	setupFixtures(t)
	o := MustNewObject(widgetType)
	defer o.Unref()

	var got int64
	id := o.MustConnect("clicked", func(obj Object, args []Value) Value {
		got, _ = args[0].Int64()
		return BoolValue(true)
	})

	ret := o.MustEmit("clicked", Int64Value(7))
	if got != 7 {
		t.Fatalf("handler saw %d, want 7", got)
	}
	if b, _ := ret.Bool(); !b {
		t.Fatalf("emission must return the handler's value")
	}

	o.Disconnect(id)
	if o.HandlerIsConnected(id) {
		t.Fatalf("id must be dead after disconnect")
	}
	got = 0
	o.MustEmit("clicked", Int64Value(9))
	if got != 0 {
		t.Fatalf("disconnected handler ran")
	}
}

func TestEmitValidatesArguments(t *testing.T) {
	setupFixtures(t)
	o := MustNewObject(widgetType)
	defer o.Unref()

	if _, err := o.Emit("clicked"); !errors.Is(err, ErrArgumentCountMismatch) {
		t.Fatalf("expected count mismatch, got %v", err)
	}
	if _, err := o.Emit("clicked", StringValue("x")); !errors.Is(err, ErrArgumentTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	if _, err := o.Emit("vanished"); !errors.Is(err, ErrSignalNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := o.Connect("vanished", func(Object, []Value) Value { return Value{} }); !errors.Is(err, ErrSignalNotFound) {
		t.Fatalf("expected not found on connect, got %v", err)
	}
}

func TestEmitAcceptsSubtypeArguments(t *testing.T) {
	setupFixtures(t)
	carrier := mustRegister("test.Carrier", TypeObject, TypeInfo{
		ClassInit: func(c *Class) {
			c.AddSignal(SignalSpec{Name: "attached", Params: []Type{widgetType}})
		},
	})
	o := MustNewObject(carrier)
	defer o.Unref()
	b := MustNewObject(buttonType)
	defer b.Unref()

	bv := ObjectValue(b)
	defer bv.Unset()
	if _, err := o.Emit("attached", bv); err != nil {
		t.Fatalf("a button must pass through a widget-typed parameter: %v", err)
	}
}

func TestBlockUnblock(t *testing.T) {
	setupFixtures(t)
	o := MustNewObject(widgetType)
	defer o.Unref()

	var runs int
	id := o.MustConnect("damaged", func(Object, []Value) Value {
		runs++
		return Value{}
	})

	o.HandlerBlock(id)
	o.HandlerBlock(id)
	o.MustEmit("damaged")
	if runs != 0 {
		t.Fatalf("blocked handler ran")
	}

	o.HandlerUnblock(id)
	o.MustEmit("damaged")
	if runs != 0 {
		t.Fatalf("blocks must nest")
	}

	o.HandlerUnblock(id)
	o.MustEmit("damaged")
	if runs != 1 {
		t.Fatalf("expected one run after full unblock, got %d", runs)
	}
}

func TestEmissionStageOrder(t *testing.T) {
	setupFixtures(t)
	var order []string
	record := func(tag string) SignalHandler {
		return func(Object, []Value) Value {
			order = append(order, tag)
			return Value{}
		}
	}

	stageType := mustRegister("test.StageOrder", TypeObject, TypeInfo{
		ClassInit: func(c *Class) {
			c.AddSignalWithClassHandler(SignalSpec{Name: "early", Flags: SignalRunFirst}, record("class"))
			c.AddSignalWithClassHandler(SignalSpec{Name: "late"}, record("class"))
		},
	})
	o := MustNewObject(stageType)
	defer o.Unref()

	o.MustConnect("early", record("before"))
	if _, err := o.ConnectAfter("early", record("after")); err != nil {
		t.Fatalf("connect after: %v", err)
	}
	o.MustEmit("early")
	want := []string{"class", "before", "after"}
	assertOrder(t, order, want)

	order = nil
	o.MustConnect("late", record("before"))
	if _, err := o.ConnectAfter("late", record("after")); err != nil {
		t.Fatalf("connect after: %v", err)
	}
	o.MustEmit("late")
	want = []string{"before", "class", "after"}
	assertOrder(t, order, want)
}

func assertOrder(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected stages %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected stages %v, got %v", want, got)
		}
	}
}

func TestDetailedDispatch(t *testing.T) {
	setupFixtures(t)
	o := MustNewObject(widgetType)
	defer o.Unref()

	var top, all int
	o.MustConnect("damaged::top", func(Object, []Value) Value {
		top++
		return Value{}
	})
	o.MustConnect("damaged", func(Object, []Value) Value {
		all++
		return Value{}
	})

	o.MustEmit("damaged::top")
	o.MustEmit("damaged::bottom")
	o.MustEmit("damaged")

	if top != 1 {
		t.Fatalf("detailed handler ran %d times, want 1", top)
	}
	if all != 3 {
		t.Fatalf("undetailed handler ran %d times, want 3", all)
	}

	if _, err := o.Connect("clicked::nope", func(Object, []Value) Value { return Value{} }); !errors.Is(err, ErrSignalNotFound) {
		t.Fatalf("detail on an undetailed signal must fail, got %v", err)
	}
}

func TestStopEmission(t *testing.T) {
	setupFixtures(t)
	o := MustNewObject(widgetType)
	defer o.Unref()

	var second bool
	o.MustConnect("damaged::top", func(obj Object, _ []Value) Value {
		if err := obj.StopEmission("damaged::top"); err != nil {
			t.Fatalf("stop: %v", err)
		}
		return Value{}
	})
	o.MustConnect("damaged::top", func(Object, []Value) Value {
		second = true
		return Value{}
	})

	o.MustEmit("damaged::top")
	if second {
		t.Fatalf("handlers after a stop must not run")
	}

	if err := o.StopEmission("damaged"); !errors.Is(err, ErrSignalNotFound) {
		t.Fatalf("stop outside an emission must fail, got %v", err)
	}
}

func TestAccumulatorStopsEmission(t *testing.T) {
	setupFixtures(t)
	o := MustNewObject(widgetType)
	defer o.Unref()

	var calls int
	vote := func(v bool) SignalHandler {
		return func(Object, []Value) Value {
			calls++
			return BoolValue(v)
		}
	}
	o.MustConnect("veto", vote(false))
	o.MustConnect("veto", vote(true))
	o.MustConnect("veto", vote(false))

	ret := o.MustEmit("veto")
	if b, _ := ret.Bool(); !b {
		t.Fatalf("accumulated result must be the vetoing vote")
	}
	if calls != 2 {
		t.Fatalf("emission must stop at the veto, got %d calls", calls)
	}
}

func TestReturnContractViolationPanics(t *testing.T) {
	setupFixtures(t)
	o := MustNewObject(widgetType)
	defer o.Unref()

	o.MustConnect("clicked", func(Object, []Value) Value {
		return StringValue("wrong")
	})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	o.MustEmit("clicked", Int64Value(1))
}

func TestNoRecurseDropsNestedEmission(t *testing.T) {
	setupFixtures(t)
	pulse := mustRegister("test.Pulse", TypeObject, TypeInfo{
		ClassInit: func(c *Class) {
			c.AddSignal(SignalSpec{Name: "tick", Flags: SignalNoRecurse})
		},
	})
	o := MustNewObject(pulse)
	defer o.Unref()

	var runs int
	o.MustConnect("tick", func(obj Object, _ []Value) Value {
		runs++
		obj.MustEmit("tick")
		return Value{}
	})
	o.MustEmit("tick")
	if runs != 1 {
		t.Fatalf("nested emission must be dropped, handler ran %d times", runs)
	}
}

func TestEmitActionChecksFlags(t *testing.T) {
	setupFixtures(t)
	machine := mustRegister("test.Machine", TypeObject, TypeInfo{
		ClassInit: func(c *Class) {
			c.AddSignal(SignalSpec{Name: "start", Flags: SignalAction})
			c.AddSignal(SignalSpec{Name: "stopped"})
		},
	})
	o := MustNewObject(machine)
	defer o.Unref()

	var started bool
	o.MustConnect("start", func(Object, []Value) Value {
		started = true
		return Value{}
	})
	if _, err := o.EmitAction("start"); err != nil {
		t.Fatalf("action emission failed: %v", err)
	}
	if !started {
		t.Fatalf("action handler did not run")
	}
	if _, err := o.EmitAction("stopped"); !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("non-action signals must be refused, got %v", err)
	}
}

func TestDisconnectDuringEmission(t *testing.T) {
	setupFixtures(t)
	o := MustNewObject(widgetType)
	defer o.Unref()

	var late bool
	var lateID HandlerID
	o.MustConnect("damaged", func(obj Object, _ []Value) Value {
		obj.Disconnect(lateID)
		return Value{}
	})
	lateID = o.MustConnect("damaged", func(Object, []Value) Value {
		late = true
		return Value{}
	})

	o.MustEmit("damaged")
	if late {
		t.Fatalf("a handler disconnected mid-emission must not run")
	}
}

func TestEmissionSurvivesHandlerDrop(t *testing.T) {
	setupFixtures(t)
	o := MustNewObject(widgetType)
	destroyed := destroyCounter(o)

	var after bool
	o.MustConnect("damaged", func(obj Object, _ []Value) Value {
		// Drop the only outside reference mid-emission.
		o.Unref()
		return Value{}
	})
	if _, err := o.ConnectAfter("damaged", func(Object, []Value) Value {
		after = true
		return Value{}
	}); err != nil {
		t.Fatalf("connect: %v", err)
	}

	o.MustEmit("damaged")
	if !after {
		t.Fatalf("emission must finish before destruction")
	}
	if *destroyed != 1 {
		t.Fatalf("instance must be destroyed when the emission ends, got %d", *destroyed)
	}
}

func TestFindSignalAndList(t *testing.T) {
	setupFixtures(t)
	o := MustNewObject(buttonType)
	defer o.Unref()

	spec := o.FindSignal("clicked")
	if spec == nil || spec.OwnerType() != widgetType {
		t.Fatalf("derived types must see ancestor signals")
	}
	if o.FindSignal("vanished") != nil {
		t.Fatalf("unknown signal must not resolve")
	}
	signals := o.ListSignals()
	if len(signals) == 0 || signals[0].Name != "notify" {
		t.Fatalf("notify must come first from the base class, got %v", signals)
	}
}
