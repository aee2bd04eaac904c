package otsubset

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/jqpe/font-subset/ot"
	"github.com/tdewolff/parse/v2"
)

// axisChange is the change requested for one variation axis, in normalized
// coordinates after avar mapping.
type axisChange struct {
	pinned bool
	at     float64 // pinned location
	ranged bool
	lo, hi float64 // new limits, lo in [-1, 0], hi in [0, 1]
	// new limits in normalized coordinates before avar mapping
	userLo, userHi float64
	limit          axisLimit
}

// instancer applies pinned and restricted axes to glyph variations.
type instancer struct {
	axes    []ot.VariationAxis
	avar    []axisMap // nil if the font has no avar table
	changes []axisChange
	gvar    *gvarTable
}

// newInstancer prepares instancing of a font for the axis limits of a subset
// input. It returns nil if no axis changes.
func newInstancer(otf *ot.Font, limits map[ot.Tag]axisLimit) (*instancer, error) {
	if len(limits) == 0 || !otf.IsVariable() {
		return nil, nil
	}
	inst := &instancer{axes: otf.FVar.Axes, changes: make([]axisChange, len(otf.FVar.Axes))}
	if t := otf.Table(ot.T("avar")); t != nil {
		maps, err := parseAVar(t.Binary(), len(inst.axes))
		if err != nil {
			return nil, err
		}
		inst.avar = maps
	}
	changed := false
	for i, a := range inst.axes {
		l, ok := limits[a.Tag]
		if !ok {
			continue
		}
		c := &inst.changes[i]
		c.limit = l
		if l.pinned() {
			c.pinned, c.at = true, inst.normalize(i, l.min)
			changed = true
			continue
		}
		c.userLo, c.userHi = f2dot14(normalize(l.min, a)), f2dot14(normalize(l.max, a))
		c.lo, c.hi = inst.avarMap(i, c.userLo), inst.avarMap(i, c.userHi)
		if c.userLo > -1 || c.userHi < 1 {
			c.ranged = true
			changed = true
		}
	}
	if !changed {
		return nil, nil
	}
	if otf.IsCFF() {
		return nil, fmt.Errorf("instancing of CFF2 outlines is not supported")
	}
	if t := otf.Table(ot.T("gvar")); t != nil {
		gv, err := parseGVar(t.Binary())
		if err != nil {
			return nil, err
		}
		if gv.axisCount != len(inst.axes) {
			return nil, fmt.Errorf("gvar has %d axes, fvar has %d", gv.axisCount, len(inst.axes))
		}
		inst.gvar = gv
	}
	return inst, nil
}

func (inst *instancer) avarMap(axis int, v float64) float64 {
	if inst.avar == nil {
		return v
	}
	return f2dot14(inst.avar[axis].apply(v))
}

// normalize maps a user coordinate of an axis to its normalized coordinate,
// including avar mapping.
func (inst *instancer) normalize(axis int, v float64) float64 {
	return inst.avarMap(axis, f2dot14(normalize(v, inst.axes[axis])))
}

// isFull reports whether all axes are pinned, producing a static font.
func (inst *instancer) isFull() bool {
	for _, c := range inst.changes {
		if !c.pinned {
			return false
		}
	}
	return true
}

// remainingAxes returns the indices of axes which are not pinned.
func (inst *instancer) remainingAxes() []int {
	var keep []int
	for i, c := range inst.changes {
		if !c.pinned {
			keep = append(keep, i)
		}
	}
	return keep
}

// instanceTuples applies the axis changes to the tuples of a glyph. It
// returns deltas to add to the default outline, and the tuples remaining for
// the axes which are not pinned.
func (inst *instancer) instanceTuples(tuples []tuple, numPoints int) ([]point, []tuple) {
	base := make([]point, numPoints)
	keep := inst.remainingAxes()
	var remaining []tuple
	for _, t := range tuples {
		f := 1.0
		for i, c := range inst.changes {
			if c.pinned {
				f *= t.regions[i].scalar(c.at)
			}
		}
		if f == 0 {
			continue
		}
		t = t.scaled(f)
		regions := make([]region, len(keep))
		for j, i := range keep {
			regions[j] = t.regions[i]
		}
		t.regions = regions
		for _, r := range inst.rebase(t, keep) {
			if r.isDefault() {
				for k := range base {
					base[k].x += r.dx[k]
					base[k].y += r.dy[k]
				}
				continue
			}
			remaining = append(remaining, r)
		}
	}
	return base, remaining
}

// rebase maps a tuple onto the restricted ranges of the remaining axes. A
// tuple may vanish, stay as it is, or be split into two tuples.
func (inst *instancer) rebase(t tuple, keep []int) []tuple {
	out := []tuple{t}
	for j, i := range keep {
		c := inst.changes[i]
		if !c.ranged {
			continue
		}
		var next []tuple
		for _, u := range out {
			for _, s := range rebaseRegion(u.regions[j], c.lo, c.hi) {
				v := u.scaled(s.factor)
				v.regions = append([]region(nil), u.regions...)
				v.regions[j] = s.region
				next = append(next, v)
			}
		}
		out = next
	}
	return out
}

type scaledRegion struct {
	region region
	factor float64
}

// rebaseRegion expresses a tent on one axis in the coordinates of the new
// axis range [lo, hi], where the new range is scaled to [-1, 1]. The sum of
// the resulting tents times their factors equals the original tent within the
// new range.
func rebaseRegion(r region, lo, hi float64) []scaledRegion {
	if r.peak == 0 || r.start > r.peak || r.peak > r.end || (r.start < 0 && r.end > 0) {
		return []scaledRegion{{r, 1}}
	}
	if r.peak < 0 {
		// mirror to the positive side
		m := region{start: -r.end, peak: -r.peak, end: -r.start}
		rs := rebaseRegion(m, -hi, -lo)
		for i, s := range rs {
			rs[i].region = region{start: -s.region.end, peak: -s.region.peak, end: -s.region.start}
		}
		return rs
	}
	k := hi
	if k <= 0 {
		return nil
	}
	s, p, e := r.start/k, r.peak/k, r.end/k
	switch {
	case s >= 1:
		return nil
	case p > 1:
		return []scaledRegion{{region{s, 1, 1}, (k - r.start) / (r.peak - r.start)}}
	case e <= 1 || p == 1:
		return []scaledRegion{{region{s, p, math.Min(e, 1)}, 1}}
	}
	return []scaledRegion{
		{region{s, p, 1}, 1},
		{region{p, 1, 1}, (r.end - k) / (r.end - r.peak)},
	}
}

// --- Glyph instancing ------------------------------------------------------

// instancedGlyph is a glyph at the new default location.
type instancedGlyph struct {
	outline *outline
	advance uint16
	lsb     int16
	left    float64 // x of the left phantom point
	bbox    box
	empty   bool
	tuples  []tuple // variations for the remaining axes
}

// instanceGlyph applies the axis changes to one glyph.
func (inst *instancer) instanceGlyph(otf *ot.Font, g ot.GlyphIndex, data []byte) (*instancedGlyph, error) {
	o, err := decodeGlyph(data)
	if err != nil {
		return nil, fmt.Errorf("glyph %d: %w", g, err)
	}
	m, _ := otf.HMtx.HMetrics(g)
	var xMin float64
	if len(data) >= 10 {
		xMin = float64(headerBox(data).xMin)
	}
	leftX := xMin - float64(m.LeftSideBearing)
	ig := &instancedGlyph{outline: o, advance: m.AdvanceWidth, lsb: m.LeftSideBearing, left: leftX}
	if inst.gvar == nil {
		return ig, nil
	}
	coords := append(append([]point(nil), o.points...),
		point{leftX, 0}, point{leftX + float64(m.AdvanceWidth), 0}, point{}, point{})
	gc := glyphContext{coords: coords}
	if o.components == nil {
		gc.endPts = o.endPts
	}
	tuples, err := inst.gvar.decodeVariations(inst.gvar.glyph(g), gc)
	if err != nil {
		return nil, fmt.Errorf("glyph %d: %w", g, err)
	}
	if len(tuples) == 0 {
		return ig, nil
	}
	deltas, remaining := inst.instanceTuples(tuples, len(coords))
	for i := range coords {
		coords[i].x = math.Round(coords[i].x + deltas[i].x)
		coords[i].y = math.Round(coords[i].y + deltas[i].y)
	}
	n := len(o.points)
	o.points = coords[:n]
	ig.tuples = remaining
	ig.left = coords[n].x
	ig.advance = uint16(max(0, math.Round(coords[n+1].x-coords[n].x)))
	return ig, nil
}

// instanceGlyphs instances all glyphs of a set and computes their bounding
// boxes and left side bearings. Composite glyphs are measured through their
// instanced components.
func (inst *instancer) instanceGlyphs(otf *ot.Font, glyphs glyphSet) (map[ot.GlyphIndex]*instancedGlyph, error) {
	glyf := otf.Glyf()
	if glyf == nil {
		return nil, fmt.Errorf("font has no glyph outlines")
	}
	out := make(map[ot.GlyphIndex]*instancedGlyph, len(glyphs))
	for g := range glyphs {
		data, err := glyf.Glyph(g)
		if err != nil {
			return nil, err
		}
		ig, err := inst.instanceGlyph(otf, g, data)
		if err != nil {
			return nil, err
		}
		out[g] = ig
	}
	for _, ig := range out {
		bb, ok := pointsBox(glyphPoints(out, ig, 0))
		if !ok {
			ig.empty = true
			ig.lsb = 0
			continue
		}
		ig.bbox = bb
		ig.lsb = int16(math.Round(float64(bb.xMin) - ig.left))
	}
	return out, nil
}

// glyphPoints returns the points of an instanced glyph, with composite glyphs
// resolved into the points of their components.
func glyphPoints(glyphs map[ot.GlyphIndex]*instancedGlyph, ig *instancedGlyph, level int) []point {
	if ig == nil || ig.outline.isEmpty() || level > maxNestingLevel {
		return nil
	}
	o := ig.outline
	if o.components == nil {
		return o.points
	}
	var pts []point
	for i, c := range o.components {
		m := c.matrix()
		off := o.points[i]
		if c.flags&compositeArgsAreXYValues == 0 {
			off = point{}
		}
		for _, p := range glyphPoints(glyphs, glyphs[c.glyph], level+1) {
			pts = append(pts, point{
				x: m[0]*p.x + m[2]*p.y + off.x,
				y: m[1]*p.x + m[3]*p.y + off.y,
			})
		}
	}
	return pts
}

// glyphVariations encodes the remaining tuple variations of the glyphs of a
// subset, in new glyph order, as table 'gvar'.
func (inst *instancer) glyphVariations(glyphs map[ot.GlyphIndex]*instancedGlyph, order []ot.GlyphIndex,
	emptied func(ot.GlyphIndex) bool) []byte {
	axisCount := len(inst.remainingAxes())
	data := make([][]byte, len(order))
	for i, g := range order {
		if ig := glyphs[g]; ig != nil && !ig.empty && !emptied(g) {
			data[i] = encodeVariations(ig.tuples, axisCount)
		}
	}
	return writeGVar(axisCount, 0, nil, data)
}

// --- Variation tables ------------------------------------------------------

// fvar returns table 'fvar' for the remaining axes. Named instances are kept
// if they are located at the pinned values and within the new axis ranges.
func (inst *instancer) fvar(fvar *ot.FVarTable) []byte {
	keep := inst.remainingAxes()
	psName := fvar.InstanceSize >= 6+4*len(inst.axes)
	instanceSize := 4 + 4*len(keep)
	if psName {
		instanceSize += 2
	}
	var instances []ot.NamedInstance
	for _, ni := range fvar.Instances {
		if inst.containsInstance(ni) {
			instances = append(instances, ni)
		}
	}
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1)
	w.WriteUint16(0)
	w.WriteUint16(16)
	w.WriteUint16(2)
	w.WriteUint16(uint16(len(keep)))
	w.WriteUint16(20)
	w.WriteUint16(uint16(len(instances)))
	w.WriteUint16(uint16(instanceSize))
	for _, i := range keep {
		a, l := inst.axes[i], inst.changes[i].limit
		lo, hi := a.Min, a.Max
		if inst.changes[i].ranged {
			lo, hi = l.min, l.max
		}
		w.WriteUint32(uint32(a.Tag))
		w.WriteUint32(ot.ToFixed(lo))
		w.WriteUint32(ot.ToFixed(a.Default))
		w.WriteUint32(ot.ToFixed(hi))
		w.WriteUint16(a.Flags)
		w.WriteUint16(a.NameID)
	}
	for _, ni := range instances {
		w.WriteUint16(ni.SubfamilyNameID)
		w.WriteUint16(ni.Flags)
		for _, i := range keep {
			w.WriteUint32(ot.ToFixed(ni.Coordinates[i]))
		}
		if psName {
			w.WriteUint16(ni.PostScriptNameID)
		}
	}
	tracer().Debugf("fvar: %d axes, %d of %d named instances", len(keep), len(instances), len(fvar.Instances))
	return w.Bytes()
}

func (inst *instancer) containsInstance(ni ot.NamedInstance) bool {
	if len(ni.Coordinates) != len(inst.axes) {
		return false
	}
	for i, c := range inst.changes {
		v := ni.Coordinates[i]
		switch {
		case c.pinned && v != c.limit.min:
			return false
		case c.ranged && (v < c.limit.min || v > c.limit.max):
			return false
		}
	}
	return true
}

// avarTable returns table 'avar' for the remaining axes, or nil if every
// remaining axis maps to itself.
func (inst *instancer) avarTable() []byte {
	if inst.avar == nil {
		return nil
	}
	keep := inst.remainingAxes()
	maps := make([]axisMap, len(keep))
	identity := true
	for j, i := range keep {
		maps[j] = inst.rebaseAxisMap(i)
		if !maps[j].isIdentity() {
			identity = false
		}
	}
	if identity {
		return nil
	}
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(1)
	w.WriteUint16(0)
	w.WriteUint16(0)
	w.WriteUint16(uint16(len(maps)))
	for _, m := range maps {
		w.WriteUint16(uint16(len(m)))
		for _, p := range m {
			w.WriteInt16(toF2Dot14(p[0]))
			w.WriteInt16(toF2Dot14(p[1]))
		}
	}
	return w.Bytes()
}

// rebaseAxisMap returns the segment map of an axis for its new range. Both
// coordinate spaces of the map are scaled, so that the new limits map to
// -1 and 1.
func (inst *instancer) rebaseAxisMap(axis int) axisMap {
	m, c := inst.avar[axis], inst.changes[axis]
	if !c.ranged {
		if len(m) == 0 {
			return identityMap()
		}
		return m
	}
	scale := func(v, neg, pos float64) float64 {
		switch {
		case v < 0 && neg > 0:
			return v / neg
		case v > 0 && pos > 0:
			return v / pos
		}
		return 0
	}
	out := axisMap{{-1, -1}}
	for _, p := range m {
		if p[0] <= c.userLo || p[0] >= c.userHi || p[0] == 0 {
			continue
		}
		out = append(out, [2]float64{scale(p[0], -c.userLo, c.userHi), scale(p[1], -c.lo, c.hi)})
	}
	out = append(out, [2]float64{0, 0}, [2]float64{1, 1})
	slices.SortStableFunc(out, func(a, b [2]float64) int { return cmp.Compare(a[0], b[0]) })
	return out
}

func identityMap() axisMap {
	return axisMap{{-1, -1}, {0, 0}, {1, 1}}
}

func (m axisMap) isIdentity() bool {
	for _, p := range m {
		if p[0] != p[1] {
			return false
		}
	}
	return true
}

// os2 patches weight and width classes of table 'OS/2' for a font where
// axes 'wght' or 'wdth' are pinned.
func (inst *instancer) os2(b []byte) []byte {
	if len(b) < 8 {
		return b
	}
	out := append([]byte(nil), b...)
	for i, c := range inst.changes {
		if !c.pinned {
			continue
		}
		switch inst.axes[i].Tag {
		case ot.T("wght"):
			binary.BigEndian.PutUint16(out[4:], uint16(clamp(math.Round(c.limit.min), 1, 1000)))
		case ot.T("wdth"):
			binary.BigEndian.PutUint16(out[6:], widthClass(c.limit.min))
		}
	}
	return out
}

// widthClasses are the percentages of normal width of OS/2 width classes
// 1 to 9.
var widthClasses = []float64{50, 62.5, 75, 87.5, 100, 112.5, 125, 150, 200}

// widthClass maps a 'wdth' axis value to the nearest OS/2 width class.
func widthClass(wdth float64) uint16 {
	best := 0
	for i, v := range widthClasses {
		if math.Abs(v-wdth) < math.Abs(widthClasses[best]-wdth) {
			best = i
		}
	}
	return uint16(best + 1)
}
