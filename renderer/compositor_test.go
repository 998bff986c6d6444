package renderer

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/glyphfield/components"
	"github.com/pthm-cable/glyphfield/config"
)

func testColumns() []r2.Box {
	return []r2.Box{
		{Min: r2.Vec{X: 0, Y: 0}, Max: r2.Vec{X: 300, Y: 600}},
		{Min: r2.Vec{X: 900, Y: 0}, Max: r2.Vec{X: 1200, Y: 600}},
	}
}

// shapeScene puts one fully formed red particle in each column and one in the
// content column between them.
func shapeScene() *Scene {
	ps := []components.Particle{
		components.NewParticle(150, 300, 0, 0),
		components.NewParticle(600, 300, 0, 0),
		components.NewParticle(1050, 300, 0, 0),
	}
	for i := range ps {
		ps[i].Bind(components.ZoneDev, components.Sample{R: 255}, ps[i].X, ps[i].Y, 0)
	}
	return &Scene{
		Particles: ps,
		Ramp:      func(*components.Particle) float32 { return 1 },
		Columns:   testColumns(),
	}
}

func TestCompositorDrawsOnlyInColumns(t *testing.T) {
	c, err := NewCompositor(1200, 600, 1, config.Default().Render, StaticTheme(false))
	if err != nil {
		t.Fatalf("NewCompositor: %v", err)
	}
	defer c.Close()

	if err := c.Draw(shapeScene()); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	img := c.Image()

	bg := img.RGBAAt(600, 100)
	if got := img.RGBAAt(600, 300); got != bg {
		t.Errorf("content column pixel = %v, want background %v", got, bg)
	}
	for _, x := range []int{150, 1050} {
		got := img.RGBAAt(x, 300)
		if got == bg {
			t.Errorf("column particle at x=%d not drawn", x)
		}
		if got.R <= got.B {
			t.Errorf("column particle at x=%d = %v, want red-dominant", x, got)
		}
	}
}

func TestCompositorTheme(t *testing.T) {
	cfg := config.Default().Render
	scene := &Scene{Columns: testColumns()}

	light, err := NewCompositor(200, 100, 1, cfg, StaticTheme(false))
	if err != nil {
		t.Fatal(err)
	}
	defer light.Close()
	dark, err := NewCompositor(200, 100, 1, cfg, StaticTheme(true))
	if err != nil {
		t.Fatal(err)
	}
	defer dark.Close()

	if err := light.Draw(scene); err != nil {
		t.Fatal(err)
	}
	if err := dark.Draw(scene); err != nil {
		t.Fatal(err)
	}
	l := light.Image().RGBAAt(100, 50)
	d := dark.Image().RGBAAt(100, 50)
	if int(l.R)+int(l.G)+int(l.B) <= int(d.R)+int(d.G)+int(d.B) {
		t.Errorf("light bg %v should be brighter than dark bg %v", l, d)
	}
}

func TestCompositorPixelRatio(t *testing.T) {
	c, err := NewCompositor(300, 200, 2, config.Default().Render, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Draw(&Scene{}); err != nil {
		t.Fatal(err)
	}
	b := c.Image().Bounds()
	if b.Dx() != 600 || b.Dy() != 400 {
		t.Errorf("surface = %dx%d, want 600x400", b.Dx(), b.Dy())
	}

	if err := c.Resize(100, 50, 1.5); err != nil {
		t.Fatal(err)
	}
	if err := c.Draw(&Scene{}); err != nil {
		t.Fatal(err)
	}
	b = c.Image().Bounds()
	if b.Dx() != 150 || b.Dy() != 75 {
		t.Errorf("surface = %dx%d, want 150x75", b.Dx(), b.Dy())
	}
}

func TestCompositorInvalidSurface(t *testing.T) {
	cfg := config.Default().Render
	tests := []struct {
		name string
		w, h int
		dpr  float64
	}{
		{"zero width", 0, 100, 1},
		{"negative height", 100, -1, 1},
		{"zero ratio", 100, 100, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCompositor(tc.w, tc.h, tc.dpr, cfg, nil); !errors.Is(err, ErrInvalidSurface) {
				t.Errorf("err = %v, want ErrInvalidSurface", err)
			}
		})
	}

	c, err := NewCompositor(10, 10, 1, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.Close()
	c.Close()
	if err := c.Draw(&Scene{}); !errors.Is(err, ErrInvalidSurface) {
		t.Errorf("Draw after Close err = %v, want ErrInvalidSurface", err)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		wantA   float64
		wantErr bool
	}{
		{"#FFFFFF", 1, false},
		{"#0000002A", 42.0 / 255, false},
		{"red", 0, true},
		{"#GGGGGGGG", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			_, a, err := ParseColor(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && (a-tc.wantA > 1e-9 || tc.wantA-a > 1e-9) {
				t.Errorf("alpha = %v, want %v", a, tc.wantA)
			}
		})
	}
}

func TestEnvTheme(t *testing.T) {
	t.Setenv("GLYPHFIELD_TEST_THEME", "dark")
	if !(EnvTheme{Var: "GLYPHFIELD_TEST_THEME"}).Dark() {
		t.Error("dark env value should select dark theme")
	}
	t.Setenv("GLYPHFIELD_TEST_THEME", "light")
	if (EnvTheme{Var: "GLYPHFIELD_TEST_THEME"}).Dark() {
		t.Error("light env value should select light theme")
	}
}

func TestShapeRampStartsAtDimmedAmbient(t *testing.T) {
	cfg := config.Default().Render
	cfg.FormedAmbientDim = 0.5
	c, err := NewCompositor(1200, 600, 1, cfg, StaticTheme(false))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ps := []components.Particle{
		components.NewParticle(100, 300, 0, 0),
		components.NewParticle(160, 300, 0, 0),
	}
	ps[1].Bind(components.ZoneDev, components.Sample{R: 255}, 160, 300, 0)
	scene := &Scene{
		Particles: ps,
		Ramp: func(p *components.Particle) float32 {
			if p.Bound() {
				return 0
			}
			return -1
		},
		Columns: testColumns(),
		Formed:  true,
	}
	if err := c.Draw(scene); err != nil {
		t.Fatal(err)
	}
	img := c.Image()
	ambient, shape := img.RGBAAt(100, 300), img.RGBAAt(160, 300)
	if ambient != shape {
		t.Errorf("shape dot at ramp 0 = %v, want ambient dot %v", shape, ambient)
	}
}

func TestFadeMaskProfiles(t *testing.T) {
	cfg := config.Default().Render
	var m fadeMask
	m.build(1200, 600, 1200, 600, 1, testColumns(), cfg)

	tests := []struct {
		name string
		keep uint32
		want func(uint32) bool
	}{
		{"left surface edge", m.keepX[0], func(k uint32) bool { return k < 8 }},
		{"left column inner edge", m.keepX[299], func(k uint32) bool { return k < 8 }},
		{"right column inner edge", m.keepX[900], func(k uint32) bool { return k < 8 }},
		{"content column", m.keepX[600], func(k uint32) bool { return k == fadeOne }},
		{"left column middle", m.keepX[150], func(k uint32) bool { return k == fadeOne }},
		{"faint band only", m.keepX[240], func(k uint32) bool { return k > 8 && k < fadeOne }},
		{"top edge", m.keepY[0], func(k uint32) bool { return k < 8 }},
		{"vertical middle", m.keepY[300], func(k uint32) bool { return k == fadeOne }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !tc.want(tc.keep) {
				t.Errorf("keep = %d", tc.keep)
			}
		})
	}

	if !m.matches(1200, 600, 1, testColumns()) {
		t.Error("mask should match the layout it was built for")
	}
	if m.matches(1200, 600, 1, nil) {
		t.Error("mask should not match a different column layout")
	}
}

func TestCompositorFadesColumnEdges(t *testing.T) {
	c, err := NewCompositor(1200, 600, 1, config.Default().Render, StaticTheme(true))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// A white dot at the inner edge of the left column disappears into the
	// background; one in the middle of the column stays bright.
	ps := []components.Particle{
		components.NewParticle(299, 300, 0, 0),
		components.NewParticle(150, 300, 0, 0),
	}
	for i := range ps {
		ps[i].Bind(components.ZoneDev, components.Sample{R: 255, G: 255, B: 255}, ps[i].X, ps[i].Y, 0)
	}
	scene := &Scene{
		Particles: ps,
		Ramp:      func(*components.Particle) float32 { return 1 },
		Columns:   testColumns(),
	}
	if err := c.Draw(scene); err != nil {
		t.Fatal(err)
	}
	img := c.Image()
	bg := img.RGBAAt(600, 300)
	edge := img.RGBAAt(299, 300)
	mid := img.RGBAAt(150, 300)
	if diff := int(edge.R) - int(bg.R); diff > 8 {
		t.Errorf("edge dot = %v, want close to background %v", edge, bg)
	}
	if int(mid.R) < int(bg.R)+100 {
		t.Errorf("column dot = %v, want bright", mid)
	}
}

// sceneOf fills both columns of a w×h surface with ambient dots on a grid
// and binds every fourth one to a formed glyph.
func sceneOf(w, h float64) *Scene {
	var ps []components.Particle
	for y := 10.0; y < h; y += 12 {
		for x := 10.0; x < w; x += 12 {
			ps = append(ps, components.NewParticle(float32(x), float32(y), 0, 0))
		}
	}
	for i := 0; i < len(ps); i += 4 {
		ps[i].Bind(components.ZoneDev, components.Sample{R: uint8(i), G: 90, B: 200}, ps[i].X, ps[i].Y, 0)
	}
	return &Scene{
		Particles: ps,
		Ramp: func(p *components.Particle) float32 {
			if p.Bound() {
				return 1
			}
			return -1
		},
		Columns: []r2.Box{
			{Min: r2.Vec{X: 0, Y: 0}, Max: r2.Vec{X: w * 0.25, Y: h}},
			{Min: r2.Vec{X: w * 0.75, Y: 0}, Max: r2.Vec{X: w, Y: h}},
		},
		Formed: true,
	}
}

func BenchmarkCompositorDraw(b *testing.B) {
	c, err := NewCompositor(1280, 800, 1, config.Default().Render, StaticTheme(false))
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()
	scene := sceneOf(1280, 800)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if err := c.Draw(scene); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFadeMaskApply(b *testing.B) {
	var m fadeMask
	m.build(1280, 800, 1280, 800, 1, sceneOf(1280, 800).Columns, config.Default().Render)
	pix := make([]uint8, 1280*800*4)
	bg, _, _ := ParseColor("#FCFCFD")

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		m.apply(pix, bg)
	}
}
