// Package monitor serves a running simulation's statistics over HTTP,
// the batch-tool counterpart of the teacher's web-based Monitor: it
// only ever reads already-settled Statistics snapshots, never the
// simulation's own control flow, so it introduces no nondeterminism
// into trace processing.
package monitor

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/syifan/goseth"

	"github.com/bmyjacks/memsim/internal/memsim"
)

// Monitor is an optional HTTP server exposing a Hierarchy's statistics.
// It follows the same fluent With* builder shape as the rest of this
// module, matching the teacher's Monitor.WithPortNumber.
type Monitor struct {
	port      int
	hierarchy *memsim.Hierarchy
	logger    *log.Logger
}

// NewMonitor creates an unconfigured Monitor.
func NewMonitor() *Monitor {
	return &Monitor{logger: log.New(os.Stderr, "monitor: ", log.LstdFlags)}
}

// WithPort sets the TCP port the monitor listens on; 0 picks a random
// free port, matching the teacher's guard against low-numbered ports.
func (m *Monitor) WithPort(port int) *Monitor {
	if port != 0 && port < 1024 {
		fmt.Fprintf(os.Stderr,
			"monitor: port %d is a reserved port, picking a random one instead\n", port)
		port = 0
	}
	m.port = port
	return m
}

// RegisterHierarchy attaches the Hierarchy whose statistics are served.
func (m *Monitor) RegisterHierarchy(h *memsim.Hierarchy) *Monitor {
	m.hierarchy = h
	return m
}

// Serve starts the HTTP server in the background and returns its actual
// listening address. If openBrowser is true, it launches the system
// browser at the stats page once the listener is ready.
func (m *Monitor) Serve(openBrowser bool) (string, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", m.port))
	if err != nil {
		return "", fmt.Errorf("monitor: cannot listen: %w", err)
	}

	router := mux.NewRouter()
	router.HandleFunc("/stats", m.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/health", m.handleHealth).Methods(http.MethodGet)

	go func() {
		if err := http.Serve(listener, router); err != nil {
			m.logger.Printf("server stopped: %v", err)
		}
	}()

	addr := fmt.Sprintf("http://localhost:%d/stats", listener.Addr().(*net.TCPAddr).Port)
	if openBrowser {
		if err := browser.OpenURL(addr); err != nil {
			m.logger.Printf("could not open browser: %v", err)
		}
	}

	return addr, nil
}

func (m *Monitor) handleStats(w http.ResponseWriter, _ *http.Request) {
	levels := m.hierarchy.Levels()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, "{")
	for i, lv := range levels {
		if i > 0 {
			fmt.Fprint(w, ",")
		}
		fmt.Fprintf(w, "%q:", lv.Level)

		serializer := goseth.NewSerializer()
		serializer.SetRoot(lv.Statistics)
		serializer.SetMaxDepth(1)
		if err := serializer.Serialize(w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	fmt.Fprint(w, "}")
}

func (m *Monitor) handleHealth(w http.ResponseWriter, _ *http.Request) {
	cpuPercent, err := cpu.Percent(0, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	vmem, err := mem.VirtualMemory()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"cpuPercent":     cpuPercent,
		"memUsedPercent": vmem.UsedPercent,
	})
}
