package tether

import (
	"errors"
	"testing"
)

func TestValueScalarRoundTrips(t *testing.T) {
	setupFixtures(t)

	v := Int64Value(-42)
	if n, err := v.Int64(); err != nil || n != -42 {
		t.Fatalf("int64: %v %v", n, err)
	}
	if _, err := v.String(); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("reading the wrong kind must fail, got %v", err)
	}

	s := StringValue("hi")
	if got, err := s.String(); err != nil || got != "hi" {
		t.Fatalf("string: %q %v", got, err)
	}

	b := BoolValue(true)
	if got, err := b.Bool(); err != nil || !got {
		t.Fatalf("bool: %v %v", got, err)
	}

	f := Float32Value(0.5)
	if f.Type() != TypeFloat32 {
		t.Fatalf("narrow widths must keep their tag, got %v", f.Type())
	}
	if got, err := f.Float64(); err != nil || got != 0.5 {
		t.Fatalf("float: %v %v", got, err)
	}
}

func TestValueSignConversions(t *testing.T) {
	u := Uint64Value(1 << 63)
	if _, err := u.Int64(); !errors.Is(err, ErrValueOutOfRange) {
		t.Fatalf("large uint64 must not narrow silently, got %v", err)
	}
	i := Int64Value(-1)
	if _, err := i.Uint64(); !errors.Is(err, ErrValueOutOfRange) {
		t.Fatalf("negative int64 must not convert, got %v", err)
	}
	small := Uint32Value(7)
	if n, err := small.Int64(); err != nil || n != 7 {
		t.Fatalf("small unsigned must widen, got %v %v", n, err)
	}
}

func TestValueEnumAndFlags(t *testing.T) {
	setupFixtures(t)

	e := EnumValue(colorEnum, 2)
	if got, err := e.Enum(); err != nil || got != 2 {
		t.Fatalf("enum: %v %v", got, err)
	}
	if e.Type() != colorEnum {
		t.Fatalf("enum value must keep the registered type")
	}

	fl := FlagsValue(featureFlags, 0b101)
	if got, err := fl.Flags(); err != nil || got != 0b101 {
		t.Fatalf("flags: %v %v", got, err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	EnumValue(TypeString, 1)
}

func TestValueObjectContentHoldsReference(t *testing.T) {
	setupFixtures(t)
	o := MustNewObject(widgetType)
	destroyed := destroyCounter(o)

	v := ObjectValue(o)
	o.Unref()
	if *destroyed != 0 {
		t.Fatalf("container must keep the instance alive")
	}

	c := v.Copy()
	v.Unset()
	if *destroyed != 0 {
		t.Fatalf("copy must carry its own reference")
	}
	c.Unset()
	if *destroyed != 1 {
		t.Fatalf("expected destruction after the last container, got %d", *destroyed)
	}
}

func TestValueOf(t *testing.T) {
	setupFixtures(t)

	v, err := ValueOf(13)
	if err != nil || v.Type() != TypeInt64 {
		t.Fatalf("int must box as int64: %v %v", v.Type(), err)
	}
	v, err = ValueOf("txt")
	if err != nil || v.Type() != TypeString {
		t.Fatalf("string boxing failed: %v %v", v.Type(), err)
	}
	if _, err := ValueOf(struct{}{}); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("unsupported natives must fail, got %v", err)
	}
}

func TestValueGoValueAndDescribe(t *testing.T) {
	setupFixtures(t)

	v := Int64Value(5)
	if got := v.GoValue(); got != int64(5) {
		t.Fatalf("unexpected go value %v", got)
	}
	if d := v.Describe(); d != "int64(5)" {
		t.Fatalf("unexpected description %q", d)
	}
	var zero Value
	if zero.IsValid() {
		t.Fatalf("zero value must be invalid")
	}
	if d := zero.Describe(); d != "<invalid>" {
		t.Fatalf("unexpected description %q", d)
	}
}
