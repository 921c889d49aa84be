package stream

import (
	"log/slog"
	"net/http"

	"github.com/satindergrewal/tvctape/internal/audio"
)

// HTTPHandler serves the live tape as an endless 16-bit mono WAV stream.
// The header carries StreamingDataSize, which players treat as unbounded.
type HTTPHandler struct {
	broadcaster *Broadcaster
	log         *slog.Logger
}

// NewHTTPHandler creates an HTTP stream handler.
func NewHTTPHandler(b *Broadcaster, log *slog.Logger) *HTTPHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HTTPHandler{broadcaster: b, log: log}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Subscribe before the header goes out so no frame falls in between.
	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("ICY-Name", "tvctape")

	if err := audio.WriteWAVHeader(w, audio.TapeFormat, audio.StreamingDataSize); err != nil {
		return
	}
	flusher.Flush()

	log := h.log.With("remote", r.RemoteAddr)
	log.Info("HTTP listener connected", "listeners", h.broadcaster.ListenerCount())
	defer func() {
		log.Info("HTTP listener disconnected", "dropped", listener.Dropped())
	}()

	var buf []byte
	for {
		select {
		case <-r.Context().Done():
			return
		case <-listener.Done():
			return
		case frame, ok := <-listener.C:
			if !ok {
				return
			}
			buf = audio.AppendSamples(buf[:0], frame.Samples)
			if _, err := w.Write(buf); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
