package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"gridmdp/grid_world"
	"gridmdp/reinforcement"
	"gridmdp/server/cell_views"
	"gridmdp/server/charts"
	"gridmdp/server/fastview"
	"gridmdp/server/root_view"

	"github.com/gorilla/mux"
	channerics "github.com/niceyeti/channerics/channels"
)

// Time allowed for in-flight requests on shutdown.
const shutdownGracePeriod = 5 * time.Second

// Server serves the live views of a single solver run: the index page, the websocket
// pushing its element updates, the latest snapshot as json and a heat map of the values.
// The element-update channel is shared, so only one websocket client is served at a time.
type Server struct {
	addr     string
	rootView *root_view.RootView
	latest   atomic.Pointer[reinforcement.Snapshot]
	router   *mux.Router
}

// NewServer initializes all of the views and returns a server. Snapshots are consumed until
// ctx is done or the channel closes; the last one received stays available.
func NewServer(
	ctx context.Context,
	addr string,
	initial reinforcement.Snapshot,
	snapshots <-chan reinforcement.Snapshot,
) (*Server, error) {
	feeds := channerics.Broadcast(ctx.Done(), snapshots, 2)
	rootView, err := root_view.NewRootView(ctx, initial, feeds[0])
	if err != nil {
		return nil, fmt.Errorf("views: %w", err)
	}

	server := &Server{
		addr:     addr,
		rootView: rootView,
	}
	server.latest.Store(&initial)
	go func() {
		for snapshot := range feeds[1] {
			snapshot := snapshot
			server.latest.Store(&snapshot)
		}
	}()

	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket)
	router.HandleFunc("/snapshot", server.serveSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/chart", server.serveChart).Methods(http.MethodGet)
	server.router = router

	return server, nil
}

// Handler returns the server's routes.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Serve listens on the server's address until ctx is done, then shuts down gracefully.
func (server *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              server.addr,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[SERVER] [WARN] shutdown: %v", err)
		}
	}()

	log.Printf("[SERVER] [INFO] serving on http://%s", server.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Latest returns the last snapshot received.
func (server *Server) Latest() reinforcement.Snapshot {
	return *server.latest.Load()
}

// serveWebsocket publishes element updates to the client until it disconnects.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := fastview.NewClient(server.rootView.Updates(), w, r)
	if err != nil {
		log.Printf("[SERVER] [ERROR] upgrade: %v", err)
		return
	}
	defer cli.Close()

	if err := cli.Sync(); err != nil {
		log.Printf("[SERVER] [WARN] websocket: %v", err)
	}
}

// Serve the index.html main page, rendered from the latest snapshot.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	frame := cell_views.Convert(server.Latest())
	if err := renderTemplate(w, server.rootView, frame); err != nil {
		log.Printf("[SERVER] [ERROR] index: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}

// snapshotView is the json form of a snapshot. Non-finite values, including blocked cells,
// are null since json has no NaN or infinity.
type snapshotView struct {
	RunID     string       `json:"runId"`
	Mode      string       `json:"mode"`
	Phase     string       `json:"phase"`
	Iteration int          `json:"iteration"`
	Sweeps    int          `json:"sweeps"`
	Delta     *float64     `json:"delta"`
	Values    [][]*float64 `json:"values"`
	Policy    [][]string   `json:"policy,omitempty"`
	Anomalies int          `json:"anomalies"`
	Final     bool         `json:"final"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func newSnapshotView(snapshot reinforcement.Snapshot) snapshotView {
	view := snapshotView{
		RunID:     snapshot.RunID,
		Mode:      snapshot.Mode.String(),
		Phase:     snapshot.Phase.String(),
		Iteration: snapshot.Iteration,
		Sweeps:    snapshot.Sweeps,
		Delta:     finite(snapshot.Delta),
		Anomalies: snapshot.Anomalies,
		Final:     snapshot.Final,
	}
	for r, row := range snapshot.Values.Rows() {
		view.Values = append(view.Values, make([]*float64, len(row)))
		for c, v := range row {
			if snapshot.Grid.IsBlocked(grid_world.Position{Row: r, Col: c}) {
				continue
			}
			view.Values[r][c] = finite(v)
		}
	}
	if snapshot.Policy != nil {
		view.Policy = snapshot.Policy.Strings()
	}
	return view
}

func (server *Server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newSnapshotView(server.Latest())); err != nil {
		log.Printf("[SERVER] [ERROR] snapshot: %v", err)
	}
}

func (server *Server) serveChart(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := charts.Render(w, server.Latest()); err != nil {
		log.Printf("[SERVER] [ERROR] chart: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
