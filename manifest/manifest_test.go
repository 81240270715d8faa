package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"tether"
)

const sampleManifest = `
[[interface]]
name = "app.Scrollable"

[[type]]
name = "app.Widget"

  [[type.property]]
  name = "label"
  type = "string"
  default = "untitled"

  [[type.property]]
  name = "width"
  type = "int64"
  flags = ["readable", "writable", "lax-validation"]
  min = 0
  max = 800
  default = 100

  [[type.signal]]
  name = "resized"
  params = ["int64", "int64"]
  flags = ["detailed"]

[[type]]
name = "app.Viewport"
parent = "app.Widget"
implements = ["app.Scrollable"]
floating = true

  [[type.property]]
  name = "locked"
  type = "bool"
  flags = ["readwrite", "construct"]
  default = true

  [[type.signal]]
  name = "scrolled"
  return = "bool"
`

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "types.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadAndRegister(t *testing.T) {
	m, err := Load(writeManifest(t, sampleManifest))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ids, err := m.Register()
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 registrations, got %d", len(ids))
	}

	widget, ok := tether.TypeFromName("app.Widget")
	if !ok {
		t.Fatalf("widget type missing")
	}
	viewport, ok := tether.TypeFromName("app.Viewport")
	if !ok {
		t.Fatalf("viewport type missing")
	}
	scrollable, _ := tether.TypeFromName("app.Scrollable")
	if !viewport.IsA(widget) || !viewport.IsA(scrollable) {
		t.Fatalf("lineage or conformance lost in registration")
	}
}

func TestRegisteredTypesBehave(t *testing.T) {
	m, err := Load(writeManifest(t, sampleManifest))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := m.Register(); err != nil {
		t.Fatalf("register: %v", err)
	}
	viewport, _ := tether.TypeFromName("app.Viewport")

	o, err := tether.NewObjectFloating(viewport)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if !o.IsFloating() {
		t.Fatalf("manifest floating flag ignored")
	}
	o = o.RefSink()
	defer o.Unref()

	label := o.MustProperty("label")
	if s, _ := label.String(); s != "untitled" {
		t.Fatalf("expected manifest default, got %q", s)
	}
	locked := o.MustProperty("locked")
	if b, _ := locked.Bool(); !b {
		t.Fatalf("construct default not committed")
	}

	// lax-validation clamps instead of rejecting
	if err := o.SetProperty("width", tether.Int64Value(9000)); err != nil {
		t.Fatalf("set: %v", err)
	}
	width := o.MustProperty("width")
	if n, _ := width.Int64(); n != 800 {
		t.Fatalf("expected clamp to 800, got %d", n)
	}

	var events int
	o.MustConnect("resized::height", func(_ tether.Object, args []tether.Value) tether.Value {
		events++
		return tether.Value{}
	})
	o.MustEmit("resized::height", tether.Int64Value(3), tether.Int64Value(4))
	if events != 1 {
		t.Fatalf("manifest signal did not dispatch")
	}
}

func TestRegisterTwiceIsHarmless(t *testing.T) {
	m, err := Load(writeManifest(t, sampleManifest))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := m.Register(); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := m.Register(); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestLoadRejectsBadManifests(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"unknown key": "[[type]]\nname = \"app.X\"\nbogus = 1\n",
		"no name":     "[[type]]\nparent = \"Object\"\n",
		"bad prop":    "[[type]]\nname = \"app.Y\"\n[[type.property]]\nname = \"p\"\n",
	}
	for label, body := range cases {
		if _, err := Load(writeManifest(t, body)); err == nil {
			t.Fatalf("%s: expected load failure", label)
		}
	}
}

func TestRegisterRejectsUnknownReferences(t *testing.T) {
	body := "[[type]]\nname = \"app.Orphan\"\nparent = \"app.Missing\"\n[[type.property]]\nname = \"p\"\ntype = \"string\"\n"
	m, err := Load(writeManifest(t, body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := m.Register(); err == nil {
		t.Fatalf("unknown parent must fail registration")
	}
}
