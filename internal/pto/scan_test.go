package pto

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `# hugin project file
#hugin_ptoversion 2
p f2 w3000 h1500 v360  E0 R0 n"TIFF_m c:LZW r:CROP"
m g1 i0 f0 m2 p0.00784314

# image lines
#-hugin  cropFactor=1 autoCenterCrop=1
i w3264 h2448 f0 v50.5 Ra0 Eev0 Er1 Eb1 r0.5 p-10 y0 TrX0 Vm5 S100,3000,50,2400 n"PA030369.JPG"
#-hugin  cropFactor=1 autoCenterCrop=1
i w3264 h2448 f0 v=0 Ra=0 r1 p5 y45.25 n"PA030370.JPG"
#-imgfile 3264 2448 "PA030371.JPG"
*
i this line is after the terminator
`

func scanSample(t *testing.T) *File {
	t.Helper()
	f, err := Scan(strings.NewReader(sample))
	require.NoError(t, err)
	return f
}

func TestScanLineKinds(t *testing.T) {
	f := scanSample(t)
	require.Len(t, f.Lines, 13)

	headers := make([]string, len(f.Lines))
	for i, l := range f.Lines {
		headers[i] = l.Header
	}
	assert.Equal(t, []string{
		"#", "#hugin_ptoversion", "p", "m", "", "#", "#-hugin", "i",
		"#-hugin", "i", "#-imgfile", "*", "",
	}, headers)

	assert.False(t, f.Lines[12].Scanned, "lines after '*' are kept verbatim")
	assert.Equal(t, 12, f.Lines[12].No)
}

func TestScanMembers(t *testing.T) {
	f := scanSample(t)
	imgs := f.LinesWith("i")
	require.Len(t, imgs, 2)

	name, ok := imgs[0].Member("n")
	require.True(t, ok)
	assert.Equal(t, String, name.Kind)
	assert.Equal(t, "PA030369.JPG", name.Str)

	cases := []struct {
		tag  string
		kind Kind
		num  float64
	}{
		{"v", Float, 50.5},
		{"p", Int, -10},
		{"Ra", Int, 0},
		{"Eev", Int, 0},
		{"Eb", Int, 1},
		{"TrX", Int, 0},
		{"Vm", Int, 5},
	}
	for _, c := range cases {
		t.Run(c.tag, func(t *testing.T) {
			m, ok := imgs[0].Member(c.tag)
			require.True(t, ok)
			assert.Equal(t, c.kind, m.Kind)
			assert.Equal(t, c.num, m.Num)
		})
	}

	crop, ok := imgs[0].Member("S")
	require.True(t, ok)
	assert.Equal(t, Rect, crop.Kind)
	assert.Equal(t, [4]int{100, 3000, 50, 2400}, crop.Rect)

	ref, ok := imgs[1].Member("v")
	require.True(t, ok)
	idx, ok := ref.Ref()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "v=0", ref.String())
}

func TestScanExtensions(t *testing.T) {
	f := scanSample(t)

	opt := f.Lines[1]
	require.Len(t, opt.Members, 1)
	assert.Equal(t, "2", opt.Members[0].Str)

	kv := f.LinesWith("#-hugin")
	require.Len(t, kv, 2)
	assert.Equal(t, "cropFactor", kv[0].Members[0].Tag)
	assert.Equal(t, "=", kv[0].Members[0].Sep)
	assert.Equal(t, Int, kv[0].Members[0].Kind)

	img := f.LinesWith("#-imgfile")
	require.Len(t, img, 1)
	require.Len(t, img[0].Members, 3)
	assert.Equal(t, "PA030371.JPG", img[0].Members[2].Str)

	plain, err := Scanner{SkipExtensions: true}.Scan(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Empty(t, plain.LinesWith("#-hugin"))
}

func TestScanStrictHeaders(t *testing.T) {
	f, err := Scanner{Headers: StandardHeaders}.Scan(strings.NewReader("x 1 2 3\ni v1 n\"a.jpg\"\n"))
	require.NoError(t, err)
	assert.False(t, f.Lines[0].Scanned)
	assert.True(t, f.Lines[1].Scanned)
}

func TestImages(t *testing.T) {
	f := scanSample(t)
	imgs, err := f.Images()
	require.NoError(t, err)
	assert.Equal(t, []Image{
		{Name: "PA030369.JPG", Yaw: 0, Pitch: -10, Roll: 0.5, View: 50.5},
		{Name: "PA030370.JPG", Yaw: 45.25, Pitch: 5, Roll: 1, View: 50.5},
	}, imgs)
}

func TestImagesErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{"reference out of range", "i v=3 n\"a.jpg\"\n", ErrBackReference},
		{"reference cycle", "i v=1 n\"a.jpg\"\ni v=0 n\"b.jpg\"\n", ErrBackReference},
		{"missing view", "i y10 n\"a.jpg\"\n", ErrMissingField},
		{"missing name", "i v50\n", ErrMissingField},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f, err := Scan(strings.NewReader(c.src))
			require.NoError(t, err)
			_, err = f.Images()
			assert.ErrorIs(t, err, c.want)
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	f := scanSample(t)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf, true))
	again, err := Scan(&buf)
	require.NoError(t, err)

	want, err := f.Images()
	require.NoError(t, err)
	got, err := again.Images()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	buf.Reset()
	require.NoError(t, f.Write(&buf, false))
	assert.NotContains(t, buf.String(), "# hugin project file")
	assert.Contains(t, buf.String(), `n"PA030370.JPG"`)
}

func TestWalkAndScanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pano.pto")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	f, err := ScanFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Name)

	var buf bytes.Buffer
	require.NoError(t, f.Walk(&buf))
	out := buf.String()
	assert.Contains(t, out, "total of 13 lines")
	assert.Contains(t, out, "field: 'S' data type: 'rectangle' content: '(100,3000,50,2400)'")
	assert.Contains(t, out, "field: 'v' data type: 'back reference' content: '=0'")

	_, err = ScanFile(filepath.Join(t.TempDir(), "missing.pto"))
	assert.Error(t, err)
}

func TestScanWindows1252Names(t *testing.T) {
	// "Café.jpg" with é as the single byte 0xE9
	src := "p f2 w100 h50 v90\ni v60 r0 p0 y0 n\"Caf\xe9.jpg\"\n"

	f, err := Scan(strings.NewReader(src))
	require.NoError(t, err)
	images, err := f.Images()
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "Café.jpg", images[0].Name)

	f, err = Scan(strings.NewReader("i v60 n\"Café.jpg\"\n"))
	require.NoError(t, err)
	images, err = f.Images()
	require.NoError(t, err)
	assert.Equal(t, "Café.jpg", images[0].Name, "valid UTF-8 is left alone")
}
