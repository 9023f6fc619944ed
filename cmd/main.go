package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"os"
	"reflect"
	"sort"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"github.com/skytiles/skytiles/catalog"
	"github.com/skytiles/skytiles/featureflag"
	"github.com/skytiles/skytiles/geometry"
	skyhttp "github.com/skytiles/skytiles/http"
	"github.com/skytiles/skytiles/index"
	"github.com/skytiles/skytiles/sky"
)

var (
	// The skytiles version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "skytiles_info",
		Help:        "Skytiles information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Region       string       `cli:""        env:"SKYTILES_REGION"        help:"Domain region as x1,y1,x2,y2. Defaults to the whole sky."`
	Margin       string       `cli:""        env:"SKYTILES_MARGIN"        help:"Distance to a region bound under which a tile gets ghosts."`
	IndexKind    string       `cli:""        env:"SKYTILES_INDEX_KIND"    help:"Spatial index kind (packed|rtree)."`
	LeafCapacity int          `cli:""        env:"SKYTILES_LEAF_CAPACITY" help:"Target number of tiles per leaf of the packed index."`
	TilesFile    string       `cli:""        env:"SKYTILES_TILES_FILE"    help:"JSON file with the tiles to register. Registers a demo tile when empty."`
	Query        string       `cli:""        env:"SKYTILES_QUERY"         help:"Box to search for as x1,y1,x2,y2."`
	AdminAddr    string       `cli:""        env:"SKYTILES_ADMIN_ADDR"    help:"Admin listening address. The process exits after printing when empty."`
	LogLevel     string       `cli:""        env:"SKYTILES_LOG_LEVEL"     help:"Log level (debug|info|warning|error)."`
	LogIndent    bool         `cli:""        env:"SKYTILES_LOG_INDENT"    help:"Indent logs."`
	Events       eventsConfig `cli:",hidden" env:"-"                      help:"Event pusher configuration."`
	FeatureFlags []string     `cli:",hidden" env:"SKYTILES_FEATURE_FLAGS" help:"Comma separated feature flags."`
	Version      bool         `cli:""        env:"-"                      help:"Show version."`
	Help         bool         `cli:""        env:"-"                      help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"SKYTILES_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"SKYTILES_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"SKYTILES_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"SKYTILES_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func defaultConfig() config {
	return config{
		Margin:       fmt.Sprint(sky.DefaultMargin),
		IndexKind:    string(index.KindPacked),
		LeafCapacity: index.DefaultLeafCapacity,
		LogLevel:     logs.InfoLevel.String(),
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}
}

func main() {
	conf := defaultConfig()

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	// Values from the environment take precedence over the .env file.
	if err := loadEnvFile(".env"); err != nil {
		logs.Fatal(errors.New("loading .env file failed").Wrap(err))
	}

	cli.Register().
		Help("Registers tiles on the sky, builds a spatial index and searches it.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     metrics.HTTPTransport(http.DefaultTransport),
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "skytiles",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	flags := featureflag.New(conf.FeatureFlags)

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("index_kind", conf.IndexKind).
		WithTag("feature_flags", flags.Strings()).
		Info("starting skytiles")

	a := &app{}
	if err := a.run(conf, flags, os.Stdout); err != nil {
		logs.Fatal(err)
	}

	if conf.AdminAddr == "" {
		return
	}

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", skyhttp.HandleHealthCheck)
	admin.HandleFunc("/ready", skyhttp.HandleReadyCheck(a.ready))
	admin.HandleFunc("/version", skyhttp.HandleVersion(version))
	admin.HandleFunc("/tiles", skyhttp.HandleTiles(a.domain))
	admin.HandleFunc("/index", skyhttp.HandleIndex(a.index))

	flags.IfSet(featureflag.FlagEnablePprof, func() {
		admin.HandleFunc("/debug/pprof/", pprof.Index)
		admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
		admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
		admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	})

	if err := skyhttp.ListenAndServe(ctx, &http.Server{
		Addr:    conf.AdminAddr,
		Handler: metrics.HTTPHandler(&admin, skyhttp.MetricsPathFormatter),
	}); err != nil {
		logs.Fatal(err)
	}
}

// app holds what the admin handlers serve once run returns.
type app struct {
	domain  *sky.Domain
	catalog *catalog.Catalog
	idx     atomic.Value
}

func (a *app) index() index.SpatialIndex {
	idx, _ := a.idx.Load().(index.SpatialIndex)
	return idx
}

func (a *app) ready() bool {
	return a.index() != nil
}

type output struct {
	DomainID string         `json:"domain_id"`
	Tiles    []skyhttp.Tile `json:"tiles"`
	Query    *skyhttp.Tile  `json:"query,omitempty"`
	Results  []result       `json:"results,omitempty"`
}

type result struct {
	Name string         `json:"name"`
	Tag  uint32         `json:"tag"`
	Hits []skyhttp.Tile `json:"hits"`
}

// run registers the configured tiles, builds the index and writes the
// stored tiles and query results to w.
func (a *app) run(conf config, flags featureflag.FeatureFlag, w io.Writer) error {
	domain, err := newDomain(conf)
	if err != nil {
		return errors.New("creating sky domain failed").Wrap(err)
	}
	a.domain = domain
	a.catalog = catalog.New()

	entries, err := loadTiles(conf.TilesFile)
	if err != nil {
		return err
	}
	registered := registerTiles(a.catalog, domain, entries)

	logs.WithTag("domain_id", domain.ID).
		WithTag("tiles", registered).
		WithTag("stored", domain.Len()).
		Info("tiles registered")

	idx, err := index.New(index.Kind(conf.IndexKind), domain.Tiles(), conf.LeafCapacity)
	if err != nil {
		return errors.New("building spatial index failed").Wrap(err)
	}
	a.idx.Store(idx)

	out := output{
		DomainID: domain.ID,
		Tiles:    skyhttp.NewTiles(domain.Tiles()),
	}
	flags.IfSet(featureflag.FlagHideGhosts, func() {
		out.Tiles = skyhttp.NewTiles(a.catalog.Boxes())
	})

	if conf.Query != "" {
		query, err := parseBox(conf.Query)
		if err != nil {
			return errors.New("invalid query").Wrap(err)
		}

		hits := idx.Search(query)
		flags.IfSet(featureflag.FlagCrossCheckIndex, func() {
			crossCheck(domain.Tiles(), query, hits)
		})

		q := skyhttp.NewTile(query)
		out.Query = &q
		out.Results = a.results(hits)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// results groups hits by the catalog entry they belong to.
func (a *app) results(hits []geometry.Box) []result {
	entries := a.catalog.Resolve(hits)
	results := make([]result, len(entries))
	positions := make(map[uint32]int, len(entries))
	for i, e := range entries {
		results[i] = result{Name: e.Name, Tag: e.Tag, Hits: []skyhttp.Tile{}}
		positions[e.Tag] = i
	}

	for _, h := range hits {
		tag, ok := h.Tag()
		if !ok {
			continue
		}
		if i, ok := positions[tag]; ok {
			results[i].Hits = append(results[i].Hits, skyhttp.NewTile(h))
		}
	}
	return results
}

// crossCheck searches an rtree built from the same tiles and warns when it
// disagrees with hits.
func crossCheck(tiles []geometry.Box, query geometry.Box, hits []geometry.Box) bool {
	tree, err := index.BuildRTree(tiles)
	if err != nil {
		logs.Warn(errors.New("building cross check index failed").Wrap(err))
		return false
	}

	expected := tree.Search(query)
	if equalBoxSets(expected, hits) {
		return true
	}

	logs.Warn(errors.New("spatial index results differ from rtree").
		WithTag("query", query.String()).
		WithTag("hits", len(hits)).
		WithTag("rtree_hits", len(expected)))
	return false
}

func equalBoxSets(a, b []geometry.Box) bool {
	if len(a) != len(b) {
		return false
	}

	sorted := func(boxes []geometry.Box) []string {
		s := make([]string, len(boxes))
		for i, b := range boxes {
			s[i] = b.String()
		}
		sort.Strings(s)
		return s
	}

	sa, sb := sorted(a), sorted(b)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
