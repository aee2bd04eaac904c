package fontsubset

import (
	"strconv"
	"strings"
	"sync"

	"github.com/jqpe/font-subset/otsubset"
	"github.com/jqpe/font-subset/pipeline"
	"github.com/npillmayer/schuko"
)

// Configuration keys read by Config.
const (
	KeyHeapLimit      = "engine.heap-limit"      // bytes, default otsubset.DefaultHeapLimit
	KeyLayoutClosure  = "subset.layout-closure"  // bool, default true
	KeyNameIDs        = "subset.name-ids"        // comma separated name IDs to preserve
	KeyLayoutFeatures = "subset.layout-features" // comma separated feature tags, default all
	KeyOutputSuffix   = "output.suffix"          // default DefaultSuffix
)

// Config derives subsetting options from a configuration.
type Config struct {
	conf schuko.Configuration
}

// NewConfig wraps a configuration. conf may be nil, which selects all
// defaults.
func NewConfig(conf schuko.Configuration) Config {
	return Config{conf: conf}
}

func (c Config) isSet(key string) bool {
	return c.conf != nil && c.conf.IsSet(key)
}

// HeapLimit returns the size of the engine's memory arena.
func (c Config) HeapLimit() int {
	if !c.isSet(KeyHeapLimit) || c.conf.GetInt(KeyHeapLimit) <= 0 {
		return otsubset.DefaultHeapLimit
	}
	return c.conf.GetInt(KeyHeapLimit)
}

// engines holds the engines created for heap limits other than the default.
var engines struct {
	sync.Mutex
	byLimit map[int]*otsubset.Engine
}

// Engine returns the engine to subset with: the process-wide engine, or,
// if the configuration asks for a different heap limit, the engine for this
// limit. Such an engine is created on first use and shared afterwards.
func (c Config) Engine() pipeline.Engine {
	limit := c.HeapLimit()
	if limit == otsubset.DefaultHeapLimit {
		return DefaultEngine()
	}
	engines.Lock()
	defer engines.Unlock()
	if eng, ok := engines.byLimit[limit]; ok {
		return eng
	}
	tracer().Infof("creating subsetting engine with %d bytes of memory", limit)
	if engines.byLimit == nil {
		engines.byLimit = make(map[int]*otsubset.Engine)
	}
	eng := otsubset.New(limit)
	engines.byLimit[limit] = eng
	return eng
}

// Options returns subsetting options as configured. Malformed name IDs are
// skipped.
func (c Config) Options() Options {
	opts := Options{}
	if c.isSet(KeyLayoutClosure) {
		opts.NoLayoutClosure = !c.conf.GetBool(KeyLayoutClosure)
	}
	if c.isSet(KeyNameIDs) {
		for _, f := range splitList(c.conf.GetString(KeyNameIDs)) {
			id, err := strconv.ParseUint(f, 10, 16)
			if err != nil {
				tracer().Errorf("configuration %s: ignoring name ID %q", KeyNameIDs, f)
				continue
			}
			opts.PreserveNameIDs = append(opts.PreserveNameIDs, uint16(id))
		}
	}
	if c.isSet(KeyLayoutFeatures) {
		opts.LayoutFeatures = splitList(c.conf.GetString(KeyLayoutFeatures))
		if opts.LayoutFeatures == nil {
			opts.LayoutFeatures = []string{}
		}
	}
	opts.Engine = c.Engine()
	return opts
}

// OutputName derives the file name of a subset from the file name of its
// source font, using the configured suffix.
func (c Config) OutputName(fileName string) string {
	suffix := DefaultSuffix
	if c.isSet(KeyOutputSuffix) {
		suffix = c.conf.GetString(KeyOutputSuffix)
	}
	return outputName(fileName, suffix)
}

func splitList(s string) []string {
	var list []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			list = append(list, f)
		}
	}
	return list
}
