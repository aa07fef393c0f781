package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// binaryPath holds the path to the compiled yuyvconv binary. Set in TestMain.
var binaryPath string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "yuyvconv-test-bin-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "yuyvconv")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = rootDir()
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		// Mark binary as empty so tests skip gracefully.
		binaryPath = ""
	}

	os.Exit(m.Run())
}

// rootDir returns the absolute path of the cmd/yuyvconv source directory.
func rootDir() string {
	dir, err := filepath.Abs(".")
	if err != nil {
		panic(err)
	}
	return dir
}

// skipIfNoBinary skips the test when the binary was not built.
func skipIfNoBinary(t *testing.T) {
	t.Helper()
	if binaryPath == "" {
		t.Skip("yuyvconv binary not built; skipping")
	}
}

// runYuyvconv executes yuyvconv with the given arguments and optional stdin
// data. Returns stdout, stderr, and any error.
func runYuyvconv(t *testing.T, stdin []byte, args ...string) (stdout, stderr []byte, err error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// gradientRow returns one 16x1 YUYV frame with a luma ramp and alternating
// chroma.
func gradientRow() []byte {
	raw := make([]byte, 0, 32)
	for i := 0; i < 8; i++ {
		u, v := 60, 180
		if i%2 == 1 {
			u, v = 180, 60
		}
		raw = append(raw, uint8(20+28*i), uint8(u+5*i), uint8(34+28*i), uint8(v-3*i))
	}
	return raw
}

// createRawFile writes frames copies of a 16x4 test frame and returns the
// file path.
func createRawFile(t *testing.T, dir, name string, frames int) string {
	t.Helper()
	frame := bytes.Repeat(gradientRow(), 4)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, bytes.Repeat(frame, frames), 0o644); err != nil {
		t.Fatalf("writing test frame: %v", err)
	}
	return path
}

func decodeFile(t *testing.T, path string) (image.Image, string) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}
	return img, format
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

// --- conv tests ---

func TestConv_RawToPNG(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	in := createRawFile(t, dir, "frame.yuv", 1)
	out := filepath.Join(dir, "frame.png")

	_, stderr, err := runYuyvconv(t, nil, "conv", "-w", "16", "-h", "4", "-o", out, in)
	if err != nil {
		t.Fatalf("conv failed: %v\nstderr: %s", err, stderr)
	}
	img, format := decodeFile(t, out)
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if img.Bounds() != image.Rect(0, 0, 16, 4) {
		t.Fatalf("bounds = %v, want 16x4", img.Bounds())
	}
	for _, tc := range []struct {
		x    int
		want color.RGBA
	}{
		{0, color.RGBA{88, 0, 0, 255}},
		{1, color.RGBA{0, 34, 25, 255}},
		{15, color.RGBA{94, 255, 255, 255}},
	} {
		if got := rgbaAt(img, tc.x, 3); got != tc.want {
			t.Errorf("pixel (%d,3) = %v, want %v", tc.x, got, tc.want)
		}
	}
}

func TestConv_Legacy(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	in := createRawFile(t, dir, "frame.yuv", 1)
	out := filepath.Join(dir, "legacy.png")

	_, stderr, err := runYuyvconv(t, nil, "conv", "-w", "16", "-h", "4", "-legacy", "-o", out, in)
	if err != nil {
		t.Fatalf("conv failed: %v\nstderr: %s", err, stderr)
	}
	img, _ := decodeFile(t, out)
	if got, want := rgbaAt(img, 1, 0), (color.RGBA{117, 2, 0, 255}); got != want {
		t.Errorf("pixel (1,0) = %v, want %v", got, want)
	}
}

func TestConv_Formats(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	in := createRawFile(t, dir, "frame.yuv", 1)

	tests := []struct {
		fmtFlag string
		out     string
		want    string
	}{
		{"", "a.png", "png"},
		{"", "b.jpg", "jpeg"},
		{"", "c.bmp", "bmp"},
		{"", "d.tiff", "tiff"},
		{"jpeg", "e.img", "jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.out, func(t *testing.T) {
			out := filepath.Join(dir, tt.out)
			args := []string{"conv", "-w", "16", "-h", "4", "-o", out}
			if tt.fmtFlag != "" {
				args = append(args, "-fmt", tt.fmtFlag)
			}
			_, stderr, err := runYuyvconv(t, nil, append(args, in)...)
			if err != nil {
				t.Fatalf("conv failed: %v\nstderr: %s", err, stderr)
			}
			img, format := decodeFile(t, out)
			if format != tt.want {
				t.Errorf("format = %q, want %q", format, tt.want)
			}
			if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 4 {
				t.Errorf("bounds = %v", img.Bounds())
			}
		})
	}
}

func TestConv_AllFrames(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	in := createRawFile(t, dir, "clip.yuv", 3)
	out := filepath.Join(dir, "clip.png")

	_, stderr, err := runYuyvconv(t, nil, "conv", "-w", "16", "-h", "4", "-all", "-o", out, in)
	if err != nil {
		t.Fatalf("conv failed: %v\nstderr: %s", err, stderr)
	}
	for _, name := range []string{"clip_0000.png", "clip_0001.png", "clip_0002.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "clip_0003.png")); err == nil {
		t.Error("unexpected fourth frame")
	}
}

func TestConv_MultipleInputs(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	a := createRawFile(t, dir, "a.yuv", 1)
	b := createRawFile(t, dir, "b.yuv", 1)
	outDir := filepath.Join(dir, "out")

	_, stderr, err := runYuyvconv(t, nil, "conv", "-w", "16", "-h", "4", "-fmt", "bmp", "-j", "2", "-o", outDir, a, b)
	if err != nil {
		t.Fatalf("conv failed: %v\nstderr: %s", err, stderr)
	}
	for _, name := range []string{"a.bmp", "b.bmp"} {
		if _, format := decodeFile(t, filepath.Join(outDir, name)); format != "bmp" {
			t.Errorf("%s: format = %q", name, format)
		}
	}
}

func TestConv_DuplicateStems(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	a := createRawFile(t, filepath.Join(dir, "a"), "x.yuv", 1)
	b := createRawFile(t, filepath.Join(dir, "b"), "x.yuv", 1)
	outDir := filepath.Join(dir, "out")

	_, stderr, err := runYuyvconv(t, nil, "conv", "-w", "16", "-h", "4", "-o", outDir, a, b)
	if err == nil {
		t.Fatal("expected non-zero exit for inputs sharing a name")
	}
	assertContains(t, string(stderr), "would both write", "expected collision error")
	if _, err := os.Stat(filepath.Join(outDir, "x.png")); err == nil {
		t.Error("an output was written despite the collision")
	}
}

func TestConv_Resize(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	in := createRawFile(t, dir, "frame.yuv", 1)
	out := filepath.Join(dir, "small.png")

	_, stderr, err := runYuyvconv(t, nil, "conv", "-w", "16", "-h", "4", "-resize", "8x0", "-o", out, in)
	if err != nil {
		t.Fatalf("conv failed: %v\nstderr: %s", err, stderr)
	}
	img, _ := decodeFile(t, out)
	if img.Bounds() != image.Rect(0, 0, 8, 2) {
		t.Errorf("bounds = %v, want 8x2", img.Bounds())
	}
}

func TestConv_StdinStdout(t *testing.T) {
	skipIfNoBinary(t)
	stdin := bytes.Repeat(gradientRow(), 4)

	stdout, stderr, err := runYuyvconv(t, stdin, "conv", "-w", "16", "-h", "4", "-strategy", "serial", "-o", "-", "-")
	if err != nil {
		t.Fatalf("conv failed: %v\nstderr: %s", err, stderr)
	}
	img, format, err := image.Decode(bytes.NewReader(stdout))
	if err != nil {
		t.Fatalf("decoding stdout: %v", err)
	}
	if format != "png" || img.Bounds().Dx() != 16 {
		t.Errorf("stdout image = %s %v", format, img.Bounds())
	}
}

func TestConv_Errors(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	in := createRawFile(t, dir, "frame.yuv", 1)

	tests := []struct {
		name string
		args []string
	}{
		{"missing input", []string{"conv", "-w", "16", "-h", "4"}},
		{"odd width", []string{"conv", "-w", "15", "-h", "4", in}},
		{"legacy too narrow", []string{"conv", "-w", "6", "-h", "1", "-legacy", in}},
		{"short input", []string{"conv", "-w", "32", "-h", "4", in}},
		{"nonexistent file", []string{"conv", "-w", "16", "-h", "4", filepath.Join(dir, "nope.yuv")}},
		{"bad strategy", []string{"conv", "-w", "16", "-h", "4", "-strategy", "spiral", in}},
		{"bad format", []string{"conv", "-w", "16", "-h", "4", "-fmt", "gif", in}},
		{"bad resize", []string{"conv", "-w", "16", "-h", "4", "-resize", "big", in}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runYuyvconv(t, nil, tt.args...); err == nil {
				t.Fatal("expected non-zero exit, got nil")
			}
		})
	}
}

// --- info tests ---

func TestInfo(t *testing.T) {
	skipIfNoBinary(t)
	stdout, stderr, err := runYuyvconv(t, nil, "info")
	if err != nil {
		t.Fatalf("info failed: %v\nstderr: %s", err, stderr)
	}
	out := string(stdout)
	assertContains(t, out, "Row converter:", "expected row converter line")
	assertContains(t, out, "Platform:", "expected platform line")
}

func TestInfo_JSON(t *testing.T) {
	skipIfNoBinary(t)
	stdout, stderr, err := runYuyvconv(t, nil, "info", "-json")
	if err != nil {
		t.Fatalf("info failed: %v\nstderr: %s", err, stderr)
	}
	var info hostInfo
	if err := json.Unmarshal(stdout, &info); err != nil {
		t.Fatalf("decoding JSON: %v\n%s", err, stdout)
	}
	if info.RowConverter != "packed" && info.RowConverter != "scalar" {
		t.Errorf("row_converter = %q", info.RowConverter)
	}
	if info.CPUs < 1 {
		t.Errorf("cpus = %d", info.CPUs)
	}
}

// --- capture tests ---

func TestCapture_MissingDevice(t *testing.T) {
	skipIfNoBinary(t)
	dev := filepath.Join(t.TempDir(), "video9")
	if _, _, err := runYuyvconv(t, nil, "capture", "-dev", dev, "-o", t.TempDir()); err == nil {
		t.Fatal("expected non-zero exit for a missing device")
	}
}

func TestCapture_BadControl(t *testing.T) {
	skipIfNoBinary(t)
	_, stderr, err := runYuyvconv(t, nil, "capture", "-ctrl", "gain=loud", "-o", t.TempDir())
	if err == nil {
		t.Fatal("expected non-zero exit for a malformed -ctrl")
	}
	assertContains(t, string(stderr), "-ctrl", "expected the flag named in the error")
}

// --- error cases ---

func TestUnknownCommand(t *testing.T) {
	skipIfNoBinary(t)
	_, _, err := runYuyvconv(t, nil, "badcmd")
	if err == nil {
		t.Fatal("expected non-zero exit for unknown command, got nil")
	}
}

func TestNoArgs(t *testing.T) {
	skipIfNoBinary(t)
	_, _, err := runYuyvconv(t, nil)
	if err == nil {
		t.Fatal("expected non-zero exit for no arguments, got nil")
	}
}

func TestHelp(t *testing.T) {
	skipIfNoBinary(t)
	_, stderr, err := runYuyvconv(t, nil, "-h")
	if err != nil {
		t.Fatalf("expected zero exit for -h, got: %v", err)
	}
	out := string(stderr)
	assertContains(t, out, "yuyvconv conv", "expected usage text for conv")
	assertContains(t, out, "yuyvconv serve", "expected usage text for serve")
}

// --- helper ---

func assertContains(t *testing.T, haystack, needle, msg string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("%s: %q not found in output:\n%s", msg, needle, haystack)
	}
}
