package render

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/swdee/go-footfall"
	"github.com/swdee/go-footfall/counter"
	"github.com/swdee/go-footfall/tracker"
)

func TestCountLines(t *testing.T) {
	lines := countLines(counter.Snapshot{Entries: 4, Exits: 6, Occupancy: -2}, DefaultCountsStyle())

	require.Len(t, lines, 3)
	assert.Equal(t, "Entries: 4", lines[0].text)
	assert.Equal(t, Green, lines[0].clr)
	assert.Equal(t, "Exits: 6", lines[1].text)
	assert.Equal(t, Red, lines[1].clr)
	assert.Equal(t, "Total: -2", lines[2].text)
	assert.Equal(t, Cyan, lines[2].clr)
}

func TestTrackColor(t *testing.T) {
	assert.Equal(t, Green, trackColor(true))
	assert.Equal(t, Blue, trackColor(false))
	assert.Equal(t, idColor(3), idColor(3+len(trackColors)))
}

func TestTrackLabel(t *testing.T) {
	tr := footfall.TrackState{ID: 12, Score: 0.876}

	assert.Equal(t, "ID: 12", trackLabel(tr, false))
	assert.Equal(t, "ID: 12 0.88", trackLabel(tr, true))
}

func TestVisibleTracks(t *testing.T) {
	tracks := []footfall.TrackState{
		{ID: 1, Updated: true},
		{ID: 2, Updated: false},
		{ID: 3, Updated: true},
	}

	visible := visibleTracks(tracks, false)
	require.Len(t, visible, 2)
	assert.Equal(t, 1, visible[0].ID)
	assert.Equal(t, 3, visible[1].ID)

	assert.Equal(t, tracks, visibleTracks(tracks, true))
}

func TestTrailPoints(t *testing.T) {
	tr := footfall.TrackState{
		ID:      1,
		History: []tracker.Point{{X: 10.4, Y: 20.6}, {X: 11.5, Y: 30}},
	}

	assert.Equal(t, []image.Point{{10, 21}, {12, 30}}, trailPoints(tr))
}

func TestTextBounds(t *testing.T) {
	face := basicfont.Face7x13

	b := textBounds(face, "Total: 3", image.Pt(20, 100))

	assert.Equal(t, 20, b.Min.X)
	assert.Equal(t, 20+8*7, b.Max.X)
	assert.Equal(t, 100-11, b.Min.Y)
	assert.Equal(t, 100+2, b.Max.Y)
}

func TestLoadTTF(t *testing.T) {
	file := filepath.Join(t.TempDir(), "goregular.ttf")
	require.NoError(t, os.WriteFile(file, goregular.TTF, 0o644))

	face, err := LoadTTF(file, 24)
	require.NoError(t, err)
	assert.Greater(t, textBounds(face, "Entries: 1", image.Pt(0, 50)).Dx(), 0)

	_, err = LoadTTF(filepath.Join(t.TempDir(), "missing.ttf"), 24)
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.ttf")
	require.NoError(t, os.WriteFile(bad, []byte("not a font"), 0o644))

	_, err = LoadTTF(bad, 24)
	assert.Error(t, err)
}

func TestCountingLine(t *testing.T) {
	img := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer img.Close()

	style := DefaultLineStyle()
	style.Caption = ""

	CountingLine(&img, 50, style)

	// yellow in BGR order
	assert.Equal(t, []uint8{0, 255, 255}, []uint8(img.GetVecbAt(50, 50)))
	assert.Equal(t, []uint8{0, 0, 0}, []uint8(img.GetVecbAt(10, 50)))
}
