/*
Package cli holds what the command line tools share: trace setup, parsing of
axis constraints and the configuration overlay for flags.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	fontsubset "github.com/jqpe/font-subset"
	"github.com/jqpe/font-subset/chargroup"
	"github.com/jqpe/font-subset/otquery"
	"github.com/jqpe/font-subset/unirange"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/runenames"
)

// tracer traces with key 'fontsubset'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset")
}

// TraceKeys are the trace selectors of the packages involved in subsetting.
var TraceKeys = []string{
	"fontsubset",
	"fontsubset.unirange",
	"fontsubset.chargroup",
	"fontsubset.woff2",
	"fontsubset.ot",
	"fontsubset.otquery",
	"fontsubset.otsubset",
	"fontsubset.pipeline",
	"fontsubset.fontload",
}

// SetupTracing routes all tracers to the Go logger, at trace level
// Debug, Info or Error.
func SetupTracing(level string) error {
	switch level {
	case "Debug", "Info", "Error":
	default:
		return fmt.Errorf("invalid trace level: %s", level)
	}
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{"tracing.adapter": "go"}
	for _, key := range TraceKeys {
		conf["trace."+key] = level
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return fmt.Errorf("error configuring tracing: %w", err)
	}
	tracing.SetTraceSelector(trace2go.Selector())
	return nil
}

// Config overlays command line flags onto the subsetting configuration.
// Zero values leave a key unset.
type Config struct {
	HeapLimit      int
	NoClosure      bool
	NameIDs        string
	LayoutFeatures string // comma separated list, "all" or "none"
	Suffix         string
}

// Conf returns the flags as configuration keys.
func (c Config) Conf() testconfig.Conf {
	conf := testconfig.Conf{}
	if c.HeapLimit > 0 {
		conf[fontsubset.KeyHeapLimit] = c.HeapLimit
	}
	if c.NoClosure {
		conf[fontsubset.KeyLayoutClosure] = false
	}
	if c.NameIDs != "" {
		conf[fontsubset.KeyNameIDs] = c.NameIDs
	}
	switch c.LayoutFeatures {
	case "", "all":
	case "none":
		conf[fontsubset.KeyLayoutFeatures] = ""
	default:
		conf[fontsubset.KeyLayoutFeatures] = c.LayoutFeatures
	}
	if c.Suffix != "" {
		conf[fontsubset.KeyOutputSuffix] = c.Suffix
	}
	return conf
}

// Subsetting returns the subsetting configuration for the flags.
func (c Config) Subsetting() fontsubset.Config {
	return fontsubset.NewConfig(c.Conf())
}

// ParseAxes parses a comma separated list of axis constraints:
//
//	wght=700            pin
//	wdth=75:100         range
//	wdth=75:100:90      range with default
//
// A bound may be left out ("wght=100:"); the subsetter reports such a
// range as incomplete.
func ParseAxes(spec string) (map[string]fontsubset.AxisConstraint, error) {
	axes := make(map[string]fontsubset.AxisConstraint)
	for _, item := range strings.Split(spec, ",") {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		tag, value, ok := strings.Cut(item, "=")
		if !ok || len(tag) == 0 || len(tag) > 4 {
			return nil, fmt.Errorf("malformed axis constraint %q", item)
		}
		parts := strings.Split(value, ":")
		nums := make([]*float64, len(parts))
		for i, p := range parts {
			if p = strings.TrimSpace(p); p == "" {
				continue
			}
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed axis constraint %q: %w", item, err)
			}
			nums[i] = &v
		}
		var c fontsubset.AxisConstraint
		switch len(nums) {
		case 1:
			if nums[0] == nil {
				return nil, fmt.Errorf("malformed axis constraint %q", item)
			}
			c.Location = nums[0]
		case 2:
			c.Min, c.Max = nums[0], nums[1]
		case 3:
			c.Min, c.Max, c.Default = nums[0], nums[1], nums[2]
		default:
			return nil, fmt.Errorf("malformed axis constraint %q", item)
		}
		axes[tag] = c
	}
	return axes, nil
}

// AxisString formats a variation axis for display.
func AxisString(a otquery.Axis) string {
	return fmt.Sprintf("%s %g…%g (default %g)", a.Tag, a.Min, a.Max, a.Default)
}

// GroupTable tabulates codepoint groups with their sizes and compressed
// ranges. The first row is a header.
func GroupTable(groups []chargroup.Group) [][]string {
	data := [][]string{{"Group", "Codepoints", "Ranges"}}
	for _, g := range groups {
		ranges := unirange.Compress(unirange.NewSet(g.Members...)).String()
		data = append(data, []string{g.Name, strconv.Itoa(len(g.Members)), Abbreviate(ranges, 60)})
	}
	return data
}

// Abbreviate shortens s to at most n runes, marking the cut with an ellipsis.
func Abbreviate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n || n < 1 {
		return s
	}
	return string(rs[:n-1]) + "…"
}

// AppendText appends the codepoints of text, after expanding \XXXX escapes,
// to the expression text expr. Characters composed by NFC normalization are
// added as well.
func AppendText(expr, text string) string {
	text = unirange.ExpandEscapes(text)
	rs := append([]rune(text), []rune(norm.NFC.String(text))...)
	return unirange.Append(expr, unirange.Compress(unirange.NewSet(rs...)))
}

// Describe returns a codepoint with its character and Unicode name.
func Describe(r rune) string {
	name := runenames.Name(r)
	if unicode.IsControl(r) || unicode.Is(unicode.M, r) {
		return fmt.Sprintf("%U   %s", r, name)
	}
	return fmt.Sprintf("%U %c %s", r, r, name)
}

// Drag emulates a drag gesture over a grid of the codepoints of universe.
// selection is "from-to" in hex; the drag starts at from and ends at to,
// which may lie before from. The committed selection is appended to
// existing as exclusion terms.
func Drag(universe unirange.Set, existing, selection string, withCaseVariants bool) (string, error) {
	from, to, ok := strings.Cut(selection, "-")
	if !ok {
		to = from
	}
	anchor, err1 := strconv.ParseUint(strings.TrimSpace(from), 16, 21)
	cursor, err2 := strconv.ParseUint(strings.TrimSpace(to), 16, 21)
	if err1 != nil || err2 != nil {
		return existing, fmt.Errorf("selection has to be a range of hex codepoints, e.g. 41-5a: %q", selection)
	}
	var g chargroup.Gesture
	g.SetUniverse(universe)
	if !g.Start(rune(anchor)) {
		return existing, fmt.Errorf("not a valid codepoint: %q", from)
	}
	if !g.Move(rune(cursor)) {
		tracer().Infof("drag locked to group of %#U", rune(anchor))
	}
	result, _ := g.Commit(existing, withCaseVariants)
	return result, nil
}
