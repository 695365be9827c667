package figures

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
)

// WordCloudFileName is the name of the cloud image for a category.
func WordCloudFileName(category string) string {
	return "wordcloud_" + category + ".png"
}

// WordCloudOptions control the layout and look of a word cloud.
type WordCloudOptions struct {
	Width  int
	Height int

	// MaxFontSize is the size of the most frequent word. Zero uses
	// a quarter of the canvas height.
	MaxFontSize int
	MinFontSize int
	FontStep    int

	MaxWords int

	// RelativeScaling blends between rank-only sizing (0) and sizes
	// proportional to frequency (1).
	RelativeScaling float64

	// PreferHorizontal is the probability of laying a word out
	// horizontally before trying the other orientation.
	PreferHorizontal float64

	// Margin is the free space kept around every word, in pixels.
	Margin int

	Background color.Color
	Colormap   []colorful.Color
	Stopwords  map[string]bool

	Seed int64
}

// DefaultWordCloudOptions returns an 800x800 cloud on black with the
// viridis colormap.
func DefaultWordCloudOptions() *WordCloudOptions {
	return &WordCloudOptions{
		Width:            800,
		Height:           800,
		MinFontSize:      10,
		FontStep:         1,
		MaxWords:         200,
		RelativeScaling:  0.5,
		PreferHorizontal: 0.9,
		Margin:           2,
		Background:       color.Black,
		Colormap:         Viridis(),
		Stopwords:        Stopwords(),
	}
}

// A WordFrequency is a word and its share relative to the most frequent
// word, in (0, 1].
type WordFrequency struct {
	Word      string
	Count     int
	Frequency float64
}

// A PlacedWord is a word positioned in the cloud. The box (X, Y, W, H)
// is in pixels and includes no margin.
type PlacedWord struct {
	WordFrequency

	FontSize int
	X, Y     int
	W, H     int
	Vertical bool
	Color    colorful.Color
}

// A WordCloud is the layout of the most frequent words of a text.
type WordCloud struct {
	Options *WordCloudOptions
	Words   []*PlacedWord
}

var tokenExpr = regexp.MustCompile(`\w[\w']+`)

// Tokenize splits text into lowercase words of at least two characters,
// dropping stopwords, numbers and possessive suffixes.
func Tokenize(text string, stopwords map[string]bool) []string {
	var res []string
	for _, token := range tokenExpr.FindAllString(strings.ToLower(text), -1) {
		token = strings.TrimSuffix(token, "'s")
		token = strings.Trim(token, "'")
		if len(token) < 2 || stopwords[token] || isNumber(token) {
			continue
		}
		res = append(res, token)
	}
	return res
}

func isNumber(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// WordFrequencies counts the words of text, merging plurals into their
// singular form when both appear, and returns at most maxWords entries
// sorted by decreasing count. A maxWords of zero means no limit.
func WordFrequencies(text string, stopwords map[string]bool, maxWords int) []WordFrequency {
	counts := map[string]int{}
	for _, word := range Tokenize(text, stopwords) {
		counts[word]++
	}
	for word, count := range counts {
		if !strings.HasSuffix(word, "s") || strings.HasSuffix(word, "ss") {
			continue
		}
		singular := word[:len(word)-1]
		if _, ok := counts[singular]; ok {
			counts[singular] += count
			delete(counts, word)
		}
	}

	res := make([]WordFrequency, 0, len(counts))
	for word, count := range counts {
		res = append(res, WordFrequency{Word: word, Count: count})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Count != res[j].Count {
			return res[i].Count > res[j].Count
		}
		return res[i].Word < res[j].Word
	})
	if maxWords > 0 && len(res) > maxWords {
		res = res[:maxWords]
	}
	if len(res) > 0 {
		max := float64(res[0].Count)
		for i := range res {
			res[i].Frequency = float64(res[i].Count) / max
		}
	}
	return res
}

// GenerateWordCloud lays out the words of text. Text without any usable
// word yields an empty cloud.
func GenerateWordCloud(text string, opts *WordCloudOptions) (*WordCloud, error) {
	if opts == nil {
		opts = DefaultWordCloudOptions()
	}
	freqs := WordFrequencies(text, opts.Stopwords, opts.MaxWords)
	return LayoutWordCloud(freqs, opts)
}

// LayoutWordCloud places words in decreasing frequency order, shrinking
// each until it fits somewhere on an Archimedean spiral around a random
// start point. Layout stops at the first word that does not fit at the
// minimum font size.
func LayoutWordCloud(freqs []WordFrequency, opts *WordCloudOptions) (*WordCloud, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.New("layout word cloud: canvas size must be positive")
	}
	gen := rand.New(rand.NewSource(opts.Seed))
	faces := newFaceCache()
	occupied := newOccupancy(opts.Width, opts.Height)
	cloud := &WordCloud{Options: opts}

	fontSize := opts.MaxFontSize
	if fontSize <= 0 {
		fontSize = opts.Height / 4
	}
	minSize := opts.MinFontSize
	if minSize <= 0 {
		minSize = 1
	}
	step := opts.FontStep
	if step <= 0 {
		step = 1
	}
	lastFreq := 1.0

	for i, wf := range freqs {
		if i != 0 && opts.RelativeScaling != 0 {
			scale := opts.RelativeScaling*(wf.Frequency/lastFreq) + (1 - opts.RelativeScaling)
			fontSize = int(math.Round(scale * float64(fontSize)))
		}
		vertical := gen.Float64() >= opts.PreferHorizontal
		triedOther := false
		var placed *PlacedWord
		for fontSize >= minSize {
			face, err := faces.Face(fontSize)
			if err != nil {
				return nil, err
			}
			w, h := wordBox(face, wf.Word)
			if vertical {
				w, h = h, w
			}
			if x, y, ok := findSpace(occupied, gen, w+2*opts.Margin, h+2*opts.Margin); ok {
				placed = &PlacedWord{
					WordFrequency: wf,
					FontSize:      fontSize,
					X:             x + opts.Margin,
					Y:             y + opts.Margin,
					W:             w,
					H:             h,
					Vertical:      vertical,
				}
				occupied.Fill(x, y, w+2*opts.Margin, h+2*opts.Margin)
				break
			}
			if !triedOther && opts.PreferHorizontal < 1 {
				vertical = !vertical
				triedOther = true
			} else {
				fontSize -= step
			}
		}
		if placed == nil {
			break
		}
		placed.Color = colormapAt(opts.Colormap, gen.Float64())
		cloud.Words = append(cloud.Words, placed)
		lastFreq = wf.Frequency
	}
	return cloud, nil
}

func wordBox(face font.Face, word string) (w, h int) {
	metrics := face.Metrics()
	w = font.MeasureString(face, word).Ceil()
	h = (metrics.Ascent + metrics.Descent).Ceil()
	return
}

// findSpace walks a spiral from a random point until a free w x h box is
// found, falling back to the first free cell-aligned box. The returned
// point is the top-left corner of the box.
func findSpace(o *occupancy, gen *rand.Rand, w, h int) (x, y int, ok bool) {
	if w > o.Width || h > o.Height {
		return 0, 0, false
	}
	fallbackX, fallbackY, ok := o.FirstFree(w, h)
	if !ok {
		return 0, 0, false
	}
	startX := float64(o.Width-w) * (0.25 + 0.5*gen.Float64())
	startY := float64(o.Height-h) * (0.25 + 0.5*gen.Float64())
	maxRadius := math.Hypot(float64(o.Width), float64(o.Height))
	const spacing = 2.0
	for theta := 0.0; ; {
		r := spacing * theta / (2 * math.Pi) * occupancyCell
		if r > maxRadius {
			return fallbackX, fallbackY, true
		}
		x = int(startX + r*math.Cos(theta))
		y = int(startY + r*math.Sin(theta))
		if x >= 0 && y >= 0 && x+w <= o.Width && y+h <= o.Height && o.Free(x, y, w, h) {
			return x, y, true
		}
		// Keep consecutive samples roughly one cell apart.
		theta += math.Min(0.5, occupancyCell/math.Max(r, 1))
	}
}

// Render draws the cloud.
func (w *WordCloud) Render() (image.Image, error) {
	dc := gg.NewContext(w.Options.Width, w.Options.Height)
	dc.SetColor(w.Options.Background)
	dc.Clear()
	faces := newFaceCache()
	for _, word := range w.Words {
		face, err := faces.Face(word.FontSize)
		if err != nil {
			return nil, err
		}
		ascent := float64(face.Metrics().Ascent.Ceil())
		dc.SetFontFace(face)
		dc.SetColor(word.Color.Clamped())
		if word.Vertical {
			// Reads bottom to top, with the glyph tops facing left.
			dc.Push()
			dc.Translate(float64(word.X)+ascent, float64(word.Y+word.H))
			dc.Rotate(-math.Pi / 2)
			dc.DrawString(word.Word, 0, 0)
			dc.Pop()
		} else {
			dc.DrawString(word.Word, float64(word.X), float64(word.Y)+ascent)
		}
	}
	return dc.Image(), nil
}

// Save renders the cloud as a PNG.
func (w *WordCloud) Save(path string) error {
	img, err := w.Render()
	if err != nil {
		return errors.Wrap(err, "save word cloud")
	}
	if err := gg.SavePNG(path, img); err != nil {
		return errors.Wrap(err, "save word cloud")
	}
	return nil
}

const occupancyCell = 4

// occupancy tracks used canvas space on a grid of occupancyCell pixel
// cells, with a summed-area table for constant time box queries.
type occupancy struct {
	Width  int
	Height int

	cols, rows int
	used       []bool
	integral   []int
}

func newOccupancy(width, height int) *occupancy {
	cols := (width + occupancyCell - 1) / occupancyCell
	rows := (height + occupancyCell - 1) / occupancyCell
	return &occupancy{
		Width:    width,
		Height:   height,
		cols:     cols,
		rows:     rows,
		used:     make([]bool, cols*rows),
		integral: make([]int, (cols+1)*(rows+1)),
	}
}

func (o *occupancy) cellRange(x, y, w, h int) (c0, r0, c1, r1 int) {
	c0, r0 = x/occupancyCell, y/occupancyCell
	c1 = (x + w + occupancyCell - 1) / occupancyCell
	r1 = (y + h + occupancyCell - 1) / occupancyCell
	if c1 > o.cols {
		c1 = o.cols
	}
	if r1 > o.rows {
		r1 = o.rows
	}
	return
}

// Free reports whether no cell touched by the box is used.
func (o *occupancy) Free(x, y, w, h int) bool {
	c0, r0, c1, r1 := o.cellRange(x, y, w, h)
	stride := o.cols + 1
	sum := o.integral[r1*stride+c1] - o.integral[r0*stride+c1] -
		o.integral[r1*stride+c0] + o.integral[r0*stride+c0]
	return sum == 0
}

// FirstFree finds the first free box whose corner lies on a cell
// boundary, scanning rows top to bottom.
func (o *occupancy) FirstFree(w, h int) (x, y int, ok bool) {
	for y := 0; y+h <= o.Height; y += occupancyCell {
		for x := 0; x+w <= o.Width; x += occupancyCell {
			if o.Free(x, y, w, h) {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

// Fill marks every cell touched by the box as used.
func (o *occupancy) Fill(x, y, w, h int) {
	c0, r0, c1, r1 := o.cellRange(x, y, w, h)
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			o.used[r*o.cols+c] = true
		}
	}
	stride := o.cols + 1
	for r := 0; r < o.rows; r++ {
		rowSum := 0
		for c := 0; c < o.cols; c++ {
			if o.used[r*o.cols+c] {
				rowSum++
			}
			o.integral[(r+1)*stride+c+1] = o.integral[r*stride+c+1] + rowSum
		}
	}
}

// Viridis returns the control points of the viridis colormap.
func Viridis() []colorful.Color {
	hexes := []string{
		"#440154", "#482878", "#3e4989", "#31688e", "#26828e",
		"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
	}
	res := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(err)
		}
		res[i] = c
	}
	return res
}

// colormapAt interpolates a colormap at t in [0, 1].
func colormapAt(cmap []colorful.Color, t float64) colorful.Color {
	if len(cmap) == 0 {
		return colorful.Color{R: 1, G: 1, B: 1}
	} else if len(cmap) == 1 {
		return cmap[0]
	}
	t = math.Max(0, math.Min(1, t)) * float64(len(cmap)-1)
	i := int(t)
	if i >= len(cmap)-1 {
		return cmap[len(cmap)-1]
	}
	return cmap[i].BlendLab(cmap[i+1], t-float64(i)).Clamped()
}

// Stopwords returns a set of common English words excluded from clouds.
func Stopwords() map[string]bool {
	words := strings.Fields(`a about above after again against all also am an and any
		are aren't as at be because been before being below between both but by can
		can't cannot com could couldn't did didn't do does doesn't doing don't down
		during each else ever few for from further get had hadn't has hasn't have
		haven't having he he'd he'll he's hence her here here's hers herself him
		himself his how how's however http i i'd i'll i'm i've if in into is isn't it
		it's its itself just k let's like me more most mustn't my myself no nor not of
		off on once only or other otherwise ought our ours ourselves out over own r
		same shall shan't she she'd she'll she's should shouldn't since so some such
		than that that's the their theirs them themselves then there there's
		therefore these they they'd they'll they're they've this those through to
		too under until up very was wasn't we we'd we'll we're we've were weren't
		what what's when when's where where's which while who who's whom why why's
		with won't would wouldn't www you you'd you'll you're you've your yours
		yourself yourselves`)
	res := make(map[string]bool, len(words))
	for _, w := range words {
		res[w] = true
	}
	return res
}
