package tether

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"tether/internal/glog"
)

// personRecord is the private state of a Go-implemented type exercising the
// full hook surface: routed properties, constructed, and dispose.
type personRecord struct {
	name        string
	constructed bool
}

var personDisposes int

func (*personRecord) TypeName() string { return "test.Person" }

func (*personRecord) ClassInit(c *Class) {
	c.InstallProperty(ParamString("name", ParamReadWrite, ""))
	c.AddSignal(SignalSpec{Name: "name-changed", Params: []Type{TypeString}})
}

func (p *personRecord) SetProperty(obj Object, spec *ParamSpec, v Value) {
	switch spec.Name {
	case "name":
		p.name, _ = v.String()
		obj.MustEmit("name-changed", StringValue(p.name))
	default:
		BaseSetProperty(obj, spec, v)
	}
}

func (p *personRecord) Property(obj Object, spec *ParamSpec) (Value, error) {
	if spec.Name == "name" {
		return StringValue(p.name), nil
	}
	return BaseProperty(obj, spec)
}

func (p *personRecord) Constructed(obj Object) {
	ParentConstructed(obj, personType())
	if p.name == "" {
		p.name = "unnamed"
	}
	p.constructed = true
}

func (p *personRecord) Dispose(obj Object) {
	personDisposes++
	ParentDispose(obj, personType())
}

// employeeRecord derives from person and adds its own routed property.
type employeeRecord struct {
	role string
}

func (*employeeRecord) TypeName() string { return "test.Employee" }

func (*employeeRecord) ParentType() Type { return personType() }

func (*employeeRecord) ClassInit(c *Class) {
	c.InstallProperty(ParamString("role", ParamReadWrite, "staff"))
}

func (e *employeeRecord) SetProperty(obj Object, spec *ParamSpec, v Value) {
	if spec.Name == "role" {
		e.role, _ = v.String()
		return
	}
	ParentSetProperty(obj, employeeType(), spec, v)
}

func (e *employeeRecord) Property(obj Object, spec *ParamSpec) (Value, error) {
	if spec.Name == "role" {
		return StringValue(e.role), nil
	}
	return ParentProperty(obj, employeeType(), spec)
}

func (e *employeeRecord) Constructed(obj Object) {
	ParentConstructed(obj, employeeType())
	if e.role == "" {
		e.role = "staff"
	}
}

// floatyRecord marks its instances initially unowned.
type floatyRecord struct{}

func (*floatyRecord) TypeName() string  { return "test.Floaty" }
func (*floatyRecord) InitiallyUnowned() {}

var (
	subclassOnce sync.Once
	personID     Type
	employeeID   Type
	floatyID     Type
)

func personType() Type   { return personID }
func employeeType() Type { return employeeID }

func setupSubclasses(t *testing.T) {
	t.Helper()
	setupFixtures(t)
	subclassOnce.Do(func() {
		personID = MustRegisterSubclass(&personRecord{})
		employeeID = MustRegisterSubclass(&employeeRecord{})
		floatyID = MustRegisterSubclass(&floatyRecord{})
	})
}

func TestSubclassEndToEnd(t *testing.T) {
	setupSubclasses(t)
	o := MustNewObject(personID)

	var renames []string
	o.MustConnect("name-changed", func(_ Object, args []Value) Value {
		s, _ := args[0].String()
		renames = append(renames, s)
		return Value{}
	})

	if err := o.SetProperty("name", StringValue("ada")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got := o.MustProperty("name")
	if s, _ := got.String(); s != "ada" {
		t.Fatalf("expected ada, got %q", s)
	}
	if len(renames) != 1 || renames[0] != "ada" {
		t.Fatalf("expected one rename to ada, got %v", renames)
	}

	before := personDisposes
	o.Unref()
	if personDisposes != before+1 {
		t.Fatalf("dispose must run exactly once on destruction")
	}
}

func TestSubclassConstructedHook(t *testing.T) {
	setupSubclasses(t)
	o := MustNewObject(personID)
	defer o.Unref()

	priv := PrivateOf[personRecord](o)
	if !priv.constructed {
		t.Fatalf("constructed hook did not run")
	}
	if priv.name != "unnamed" {
		t.Fatalf("constructed must see committed construct state, got %q", priv.name)
	}
}

func TestSubclassConstructProperties(t *testing.T) {
	setupSubclasses(t)
	o := MustNewObject(personID, Prop("name", StringValue("grace")))
	defer o.Unref()

	priv := PrivateOf[personRecord](o)
	if priv.name != "grace" {
		t.Fatalf("construct property must route through the implementation, got %q", priv.name)
	}
}

func TestSubclassParentChaining(t *testing.T) {
	setupSubclasses(t)
	o := MustNewObject(employeeID, Prop("name", StringValue("lin")))
	defer o.Unref()

	role := o.MustProperty("role")
	if s, _ := role.String(); s != "staff" {
		t.Fatalf("expected default role, got %q", s)
	}
	if err := o.SetProperty("role", StringValue("lead")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if PrivateOf[employeeRecord](o).role != "lead" {
		t.Fatalf("derived property must land in the derived private state")
	}

	// The inherited property still routes to the parent implementation.
	name := o.MustProperty("name")
	if s, _ := name.String(); s != "lin" {
		t.Fatalf("expected lin, got %q", s)
	}
	if PrivateOf[personRecord](o).name != "lin" {
		t.Fatalf("inherited property must land in the parent private state")
	}
	if !o.Is(personID) {
		t.Fatalf("employee must be a person")
	}
}

func TestSubclassFloatingMarker(t *testing.T) {
	setupSubclasses(t)
	o, err := NewObjectFloating(floatyID)
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if !o.IsFloating() {
		t.Fatalf("marker interface must make instances floating")
	}
	o.RefSink().Unref()
}

func TestRegisterSubclassIsIdempotent(t *testing.T) {
	setupSubclasses(t)
	again, err := RegisterSubclass(&personRecord{})
	if err != nil {
		t.Fatalf("re-registration must reuse the id: %v", err)
	}
	if again != personID {
		t.Fatalf("expected %v, got %v", personID, again)
	}
}

func TestRegisterSubclassRejectsNonStruct(t *testing.T) {
	setupSubclasses(t)
	if _, err := RegisterSubclass(badImpl("x")); err == nil {
		t.Fatalf("non-struct implementations must be rejected")
	}
}

type badImpl string

func (badImpl) TypeName() string { return "test.Bad" }

// glitchRecord returns a zero Value with a nil error from its getter, a host
// programming error the runtime must surface instead of passing through.
type glitchRecord struct{}

func (*glitchRecord) TypeName() string { return "test.Glitch" }

func (*glitchRecord) ClassInit(c *Class) {
	c.InstallProperty(ParamString("broken", ParamReadWrite, ""))
}

func (*glitchRecord) SetProperty(obj Object, spec *ParamSpec, v Value) {}

func (*glitchRecord) Property(obj Object, spec *ParamSpec) (Value, error) {
	return Value{}, nil
}

func TestInvalidGetterValueSurfacesAsError(t *testing.T) {
	setupSubclasses(t)
	glitchID := MustRegisterSubclass(&glitchRecord{})

	var buf bytes.Buffer
	glog.SetOutput(zerolog.New(&buf))
	defer glog.SetOutput(zerolog.Nop())

	o := MustNewObject(glitchID)
	defer o.Unref()

	v, err := o.Property("broken")
	if !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("an invalid getter result must fail the read, got %v", err)
	}
	if v.IsValid() {
		t.Fatalf("no value must escape a failed read")
	}
	if !strings.Contains(buf.String(), "invalid value") {
		t.Fatalf("expected a logged diagnostic, got %q", buf.String())
	}
}

// fadeRecord emits a teardown signal from its dispose hook.
type fadeRecord struct{}

func (*fadeRecord) TypeName() string { return "test.Fade" }

func (*fadeRecord) ClassInit(c *Class) {
	c.AddSignal(SignalSpec{Name: "closing"})
}

func (*fadeRecord) Dispose(obj Object) {
	obj.MustEmit("closing")
}

func TestDisposeHookMayEmit(t *testing.T) {
	setupSubclasses(t)
	fadeID := MustRegisterSubclass(&fadeRecord{})

	o := MustNewObject(fadeID)
	closed := 0
	o.MustConnect("closing", func(Object, []Value) Value {
		closed++
		return Value{}
	})
	destroyed := destroyCounter(o)

	o.Unref()
	if closed != 1 {
		t.Fatalf("the teardown signal must reach handlers, got %d", closed)
	}
	if *destroyed != 1 {
		t.Fatalf("instance must be destroyed exactly once, got %d", *destroyed)
	}
}
