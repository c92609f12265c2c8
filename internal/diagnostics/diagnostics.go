// Package diagnostics implements the read-only metrics dashboard.
package diagnostics

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"slices"
	"text/template"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"

	"github.com/csbrady-warwick/h5vfs/internal/logging"
	"github.com/csbrady-warwick/h5vfs/internal/vfs"
)

// errInvalidArgument is for an invalid constructor argument.
var errInvalidArgument = errors.New("invalid argument")

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// Dashboard serves diagnostics for a mounted VFS.
type Dashboard struct {
	version string
	fsys    *vfs.FS
	rbuf    *logging.RingBuffer
}

// New returns a pointer to a new [Dashboard].
func New(fsys *vfs.FS, rbuf *logging.RingBuffer, version string) (*Dashboard, error) {
	if fsys == nil {
		return nil, fmt.Errorf("%w: need filesystem", errInvalidArgument)
	}
	if rbuf == nil {
		return nil, fmt.Errorf("%w: need ring buffer", errInvalidArgument)
	}

	return &Dashboard{
		version: version,
		fsys:    fsys,
		rbuf:    rbuf,
	}, nil
}

// Serve serves the diagnostics dashboard as part of an [http.Server].
func (d *Dashboard) Serve(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: d.dashboardMux()}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "(diagnostics) PANIC: %v\n", r)
				debug.PrintStack()
			}
		}()
		d.rbuf.Printf("serving diagnostics dashboard on %s\n", addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.rbuf.Printf("HTTP error: %v\n", err)
		}
	}()

	return srv
}

func (d *Dashboard) dashboardMux() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", d.dashboardHandler).Methods(http.MethodGet)
	r.HandleFunc("/metrics.json", d.metricsHandler).Methods(http.MethodGet)
	r.HandleFunc("/reset-metrics", d.resetMetricsHandler).Methods(http.MethodPost)

	return r
}

type dashboardData struct {
	AllocBytes      string   `json:"allocBytes"`
	SysBytes        string   `json:"sysBytes"`
	NumGC           uint32   `json:"numGc"`
	Logs            []string `json:"logs"`
	RingBufferSize  int      `json:"ringBufferSize"`
	OpenFiles       int64    `json:"openFiles"`
	TotalOpens      int64    `json:"totalOpens"`
	TotalReleases   int64    `json:"totalReleases"`
	RawOffsetReads  int64    `json:"rawOffsetReads"`
	FullDecodeReads int64    `json:"fullDecodeReads"`
	RawOffsetRatio  string   `json:"rawOffsetRatio"`
	Version         string   `json:"version"`
}

func (d *Dashboard) collectMetrics() dashboardData {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	lines := d.rbuf.Lines()
	slices.Reverse(lines)

	metrics := d.fsys.Metrics

	return dashboardData{
		AllocBytes:      humanize.IBytes(m.Alloc),
		SysBytes:        humanize.IBytes(m.Sys),
		NumGC:           m.NumGC,
		Logs:            lines,
		RingBufferSize:  d.rbuf.Size(),
		OpenFiles:       metrics.OpenFiles.Load(),
		TotalOpens:      metrics.TotalOpens.Load(),
		TotalReleases:   metrics.TotalReleases.Load(),
		RawOffsetReads:  metrics.RawOffsetReads.Load(),
		FullDecodeReads: metrics.FullDecodeReads.Load(),
		RawOffsetRatio:  rawOffsetRatio(metrics.RawOffsetReads.Load(), metrics.FullDecodeReads.Load()),
		Version:         d.version,
	}
}

func (d *Dashboard) dashboardHandler(w http.ResponseWriter, _ *http.Request) {
	data := d.collectMetrics()

	if err := indexTemplate.Execute(w, data); err != nil {
		d.rbuf.Printf("HTTP template execution error: %v\n", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (d *Dashboard) metricsHandler(w http.ResponseWriter, _ *http.Request) {
	data := d.collectMetrics()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (d *Dashboard) resetMetricsHandler(w http.ResponseWriter, _ *http.Request) {
	d.fsys.Metrics.TotalOpens.Store(0)
	d.fsys.Metrics.TotalReleases.Store(0)
	d.fsys.Metrics.RawOffsetReads.Store(0)
	d.fsys.Metrics.FullDecodeReads.Store(0)

	d.rbuf.Println("Metrics reset via API.")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Metrics reset.")
}
