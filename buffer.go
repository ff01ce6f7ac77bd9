package mandel

// RowOrder describes which edge of the window row 0 of a Buffer holds.
type RowOrder int

const (
	TopToBottom RowOrder = iota
	BottomToTop
)

func (o RowOrder) String() string {
	if o == BottomToTop {
		return "bottom-to-top"
	}
	return "top-to-bottom"
}

// BufferRowOrder is the row order of every Buffer produced by this package.
const BufferRowOrder = TopToBottom

// Buffer holds the escape-time results of one generation pass in row-major
// order, row 0 at the top of the viewport. The caller owns it; nothing in
// this package keeps a reference after Generate returns.
type Buffer struct {
	Width, Height int
	MaxIter       int
	Results       []Result
}

// NewBuffer allocates an empty buffer sized for v.
func NewBuffer(v Viewport, maxIter int) *Buffer {
	return &Buffer{
		Width:   v.Width,
		Height:  v.Height,
		MaxIter: maxIter,
		Results: make([]Result, v.Pixels()),
	}
}

// At returns the result for pixel (x, y).
func (b *Buffer) At(x, y int) Result {
	return b.Results[y*b.Width+x]
}

// Levels converts every result with Intensity, preserving order.
func (b *Buffer) Levels() []uint8 {
	levels := make([]uint8, len(b.Results))
	for i, r := range b.Results {
		levels[i] = Intensity(r, b.MaxIter)
	}
	return levels
}

// Stats summarises a buffer.
type Stats struct {
	Bounded   int
	Escaped   int
	MinEscape int // 0 when nothing escaped
	MaxEscape int
}

// Stats counts bounded and escaped pixels and the range of escape steps.
func (b *Buffer) Stats() Stats {
	var s Stats
	for _, r := range b.Results {
		n, ok := r.Escaped()
		if !ok {
			s.Bounded++
			continue
		}
		s.Escaped++
		if s.MinEscape == 0 || n < s.MinEscape {
			s.MinEscape = n
		}
		if n > s.MaxEscape {
			s.MaxEscape = n
		}
	}
	return s
}

// Generate validates v and maxIter, then evaluates every pixel of v.
// No samples are taken when either input is invalid.
func Generate(v Viewport, maxIter int) (*Buffer, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	e, err := NewEvaluator(maxIter)
	if err != nil {
		return nil, err
	}
	b := NewBuffer(v, maxIter)
	FillRows(v, e, b.Results, 0, v.Height)
	return b, nil
}

// FillRows evaluates rows [y0, y1) of v into results, which must hold
// v.Width*v.Height entries. Calls covering disjoint row ranges write disjoint
// parts of results and may run concurrently.
func FillRows(v Viewport, e Evaluator, results []Result, y0, y1 int) {
	for y := y0; y < y1; y++ {
		row := results[y*v.Width : (y+1)*v.Width]
		for x := range row {
			row[x] = e.Eval(v.Point(x, y))
		}
	}
}
