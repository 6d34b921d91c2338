package plotview

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"

	"github.com/openmrlab/seqgen/pulseq"
)

// Server turns a generated sequence into a small web server so the timing
// diagram can be inspected in a browser.
type Server struct {
	seq        *pulseq.Sequence
	portNumber int
	openPage   bool
}

// NewServer creates a new Server for the given sequence.
func NewServer(seq *pulseq.Sequence) *Server {
	return &Server{seq: seq}
}

// WithPortNumber sets the port number of the server.
func (s *Server) WithPortNumber(portNumber int) *Server {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the plot server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	s.portNumber = portNumber

	return s
}

// WithPageOpening makes StartServer open the plot page in the default
// browser.
func (s *Server) WithPageOpening() *Server {
	s.openPage = true
	return s
}

// Handler returns the HTTP handler serving the plot and its API.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.servePage)
	r.HandleFunc("/plot.svg", s.servePlot)
	r.HandleFunc("/api/report", s.serveReport)
	r.HandleFunc("/api/blocks", s.serveBlocks)

	return r
}

// StartServer starts serving on the configured port, or on a random free
// port when none is set. It returns the address the server listens on.
func (s *Server) StartServer() string {
	actualPort := ":0"
	if s.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(s.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Serving sequence plot with %s\n", url)

	if s.openPage {
		err := browser.OpenURL(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open browser: %s\n", err)
		}
	}

	handler := s.Handler()
	go func() {
		err := http.Serve(listener, handler)
		dieOnErr(err)
	}()

	return url
}

func (s *Server) servePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>Sequence Plot</title></head>
<body>
<h1>Sequence Plot</h1>
<img src="/plot.svg" alt="sequence timing diagram"/>
<pre id="report"></pre>
<script>
fetch('/api/report')
  .then(function (r) { return r.text(); })
  .then(function (t) {
    document.getElementById('report').textContent = t;
  });
</script>
</body>
</html>
`)
}

// servePlot renders the whole sequence, or the window given by the t0 and
// t1 query parameters (in seconds).
func (s *Server) servePlot(w http.ResponseWriter, r *http.Request) {
	t0 := 0.0
	t1 := s.seq.Duration()

	if v := r.URL.Query().Get("t0"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "invalid t0", http.StatusBadRequest)
			return
		}
		t0 = parsed
	}

	if v := r.URL.Query().Get("t1"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "invalid t1", http.StatusBadRequest)
			return
		}
		t1 = parsed
	}

	w.Header().Set("Content-Type", "image/svg+xml")

	err := RenderSVGRange(s.seq, t0, t1, w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) serveReport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, s.seq.TestReport())
}

type blockInfo struct {
	Index    int     `json:"index"`
	Duration float64 `json:"duration"`
	HasRF    bool    `json:"has_rf"`
	HasADC   bool    `json:"has_adc"`
}

func (s *Server) serveBlocks(w http.ResponseWriter, _ *http.Request) {
	blocks := s.seq.Blocks()
	infos := make([]blockInfo, len(blocks))
	for i, b := range blocks {
		infos[i] = blockInfo{
			Index:    i,
			Duration: b.Duration(),
			HasRF:    b.RF != nil,
			HasADC:   b.ADC != nil,
		}
	}

	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(infos)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
