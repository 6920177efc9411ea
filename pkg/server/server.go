// Package server exposes one scope / AFG link over HTTP
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/speters/tekvxi/pkg/monitor"
	"github.com/speters/tekvxi/pkg/tek"
)

// Server serialises all HTTP requests onto one instrument link. Every
// handler holds mu for its whole command sequence.
type Server struct {
	mu    sync.Mutex
	scope *tek.Scope
	afg   *tek.AFG
	// frames sent per CURVE?, set by /segmented
	frames int

	Version   string
	BuildDate string
}

// New creates a Server for the instrument on l
func New(l tek.Link) *Server {
	return &Server{
		scope:     tek.NewScope(l),
		afg:       tek.NewAFG(l),
		frames:    1,
		Version:   "unspecified",
		BuildDate: "unknown",
	}
}

// Router returns the routes of the control API
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/version", s.versionInfo).Methods("GET")
	router.HandleFunc("/idn", s.getIdn).Methods("GET")
	router.HandleFunc("/acquire/mode", s.getAcqMode).Methods("GET")
	router.HandleFunc("/acquire/mode", s.setAcqMode).Methods("POST")
	router.HandleFunc("/setup", s.getSetup).Methods("GET")
	router.HandleFunc("/setup", s.sendSetup).Methods("POST")
	router.HandleFunc("/capture/{source}", s.capture).Methods("POST")
	router.HandleFunc("/waveform/{source}/info", s.waveformInfo).Methods("GET")
	router.HandleFunc("/segmented", s.setSegmented).Methods("POST")
	router.HandleFunc("/afg/command", s.afgCommand).Methods("POST")
	router.Handle("/metrics", monitor.Handler()).Methods("GET")

	return router
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	e := json.NewEncoder(w)
	e.SetIndent("", "    ")
	e.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	log.Warnf("HTTP %d: %v", code, err)
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.WriteHeader(code)
	w.Write([]byte(err.Error()))
}

// decodeBody decodes an optional JSON body into v
func decodeBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) versionInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Version   string `json:"version"`
		BuildDate string `json:"build_date"`
	}{Version: s.Version, BuildDate: s.BuildDate})
}

// Identify returns the *IDN? answer of the instrument
func (s *Server) Identify() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope.Identify()
}

func (s *Server) getIdn(w http.ResponseWriter, r *http.Request) {
	idn, err := s.Identify()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(idn))
}

type acqModeResponse struct {
	Mode     string `json:"mode"`
	Count    int    `json:"count"`
	Averages int    `json:"averages"`
}

func newAcqModeResponse(m tek.AcqMode) acqModeResponse {
	return acqModeResponse{Mode: m.Kind.String(), Count: m.Count, Averages: m.Averages()}
}

func (s *Server) getAcqMode(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.scope.AcqMode()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, newAcqModeResponse(m))
}

func (s *Server) setAcqMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Averages *int `json:"averages"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Averages == nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing \"averages\""))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.scope.SetAverages(*req.Averages); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	m, err := s.scope.AcqMode()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, newAcqModeResponse(m))
}

func (s *Server) getSetup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	setup, err := s.scope.Setup()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"setup.tss\"")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s\n", setup)
}

func (s *Server) sendSetup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.scope.LoadSetup(r.Body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, "OK")
}

type captureRequest struct {
	ClearSweeps  bool  `json:"clear_sweeps"`
	RecordLength int64 `json:"record_length"`
	TimeoutMs    int64 `json:"timeout_ms"`
}

func (s *Server) capture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	src := tek.ParseSource(mux.Vars(r)["source"])
	timeout := tek.DefaultTimeout
	if req.TimeoutMs > 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	win, err := s.scope.SetForCapture(tek.CaptureOptions{
		ClearSweeps:  req.ClearSweeps,
		RecordLength: req.RecordLength,
		Timeout:      timeout,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	buf := make([]byte, win.ByteCount()*int64(s.frames))
	n, err := s.scope.GetData(buf, tek.DataOptions{Source: src, ClearSweeps: req.ClearSweeps, Timeout: timeout})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.wf\"", src))
	w.Header().Set("X-Points", strconv.Itoa(n/tek.BytesPerPoint))
	w.Header().Set("X-Data-Start", strconv.FormatInt(win.Start, 10))
	w.Header().Set("X-Data-Stop", strconv.FormatInt(win.Stop, 10))
	w.Header().Set("X-Frames", strconv.Itoa(s.frames))
	w.WriteHeader(http.StatusOK)
	w.Write(buf[:n])
}

func (s *Server) waveformInfo(w http.ResponseWriter, r *http.Request) {
	src := tek.ParseSource(mux.Vars(r)["source"])

	s.mu.Lock()
	defer s.mu.Unlock()

	wi, err := s.scope.WaveformInfo(src, "tekd", s.frames)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, wi)
}

func (s *Server) setSegmented(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Frames  int  `json:"frames"`
		Average bool `json:"average"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Frames < 1 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("\"frames\" must be at least 1"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	var err error
	if req.Average {
		// only the summary frame is transferred
		n, err = s.scope.SetSegmentedAverages(req.Frames)
		s.frames = 1
	} else {
		n, err = s.scope.SetSegmented(req.Frames)
		s.frames = n
	}
	if err != nil {
		s.frames = 1
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, struct {
		Frames int `json:"frames"`
	}{n})
}

func (s *Server) afgCommand(w http.ResponseWriter, r *http.Request) {
	var req []string
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cmds := make([]string, 0, len(req))
	for _, c := range req {
		scpi, err := tek.ParseAFGCommand(c)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		cmds = append(cmds, scpi)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.afg.Exec(cmds...); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, cmds)
}
