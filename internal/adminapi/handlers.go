package adminapi

import (
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/aesdsocketd/aesdsocketd/internal/model"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/logs", s.handleLogs)

	mux.HandleFunc("GET /api/v1/history/connections", s.handleConnectionHistory)
	mux.HandleFunc("GET /api/v1/history/scheduler", s.handleSchedulerHistory)

	mux.HandleFunc("GET /api/v1/notify/channels", s.handleListNotifyChannels)
	mux.HandleFunc("POST /api/v1/notify/channels", s.handleCreateNotifyChannel)
	mux.HandleFunc("GET /api/v1/notify/channels/{id}", s.handleGetNotifyChannel)
	mux.HandleFunc("PUT /api/v1/notify/channels/{id}", s.handleUpdateNotifyChannel)
	mux.HandleFunc("DELETE /api/v1/notify/channels/{id}", s.handleDeleteNotifyChannel)
	mux.HandleFunc("POST /api/v1/notify/channels/{id}/test", s.handleTestNotifyChannel)
	mux.HandleFunc("GET /api/v1/notify/history", s.handleNotifyHistory)

	mux.HandleFunc("POST /api/v1/local/write", s.handleLocalWrite)
	mux.HandleFunc("GET /api/v1/local/read", s.handleLocalRead)
	mux.HandleFunc("POST /api/v1/local/seek", s.handleLocalSeek)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"listen_addr": s.config.ListenAddr,
		"cli_addr":    s.config.CLIAddr,
		"log_path":    s.config.LogFilePath,
	}
	if s.recordLog != nil {
		status["record_log_bytes"] = s.recordLog.Size()
	}
	if s.ring != nil {
		status["ring_buffer_entries"] = s.ring.Count()
		status["ring_buffer_bytes"] = s.ring.TotalBytes()
	}
	if s.runtimeInfo != nil {
		status["open_connections"] = s.runtimeInfo.OpenConnections()
		status["uptime"] = time.Since(s.runtimeInfo.StartTime()).Truncate(time.Second).String()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	health := model.HealthInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		MemoryMB:      float64(memStats.Alloc) / 1024 / 1024,
	}

	if s.recordLog != nil {
		health.RecordLogSizeMB = float64(s.recordLog.Size()) / 1024 / 1024
	}
	if s.ring != nil {
		health.RingBufferEntries = s.ring.Count()
	}
	if s.runtimeInfo != nil {
		health.Uptime = time.Since(s.runtimeInfo.StartTime()).Truncate(time.Second).String()
		health.OpenConnections = s.runtimeInfo.OpenConnections()
	}

	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.logBuf == nil {
		writeError(w, http.StatusServiceUnavailable, "log buffer not available")
		return
	}

	n := 100
	if v := r.URL.Query().Get("lines"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}

	entries := s.logBuf.Last(n)
	if entries == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleConnectionHistory(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, 50)
	records, err := s.store.ListConnections(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []model.ConnectionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleSchedulerHistory(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, 50)
	runs, err := s.store.ListSchedulerRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []model.SchedulerRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// --- Notify channel handlers ---

func (s *Server) handleListNotifyChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.store.ListNotifyChannels()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if channels == nil {
		channels = []model.NotifyChannel{}
	}
	writeJSON(w, http.StatusOK, channels)
}

func (s *Server) handleCreateNotifyChannel(w http.ResponseWriter, r *http.Request) {
	var ch model.NotifyChannel
	if err := readJSON(r, &ch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if ch.Name == "" || ch.Type == "" {
		writeError(w, http.StatusBadRequest, "name and type are required")
		return
	}
	if ch.Type != model.NotifyChannelWebhook && ch.Type != model.NotifyChannelEmail {
		writeError(w, http.StatusBadRequest, "type must be 'webhook' or 'email'")
		return
	}
	if ch.Config == "" {
		ch.Config = "{}"
	}

	now := time.Now().UnixMilli()
	ch.ID = uuid.New().String()
	ch.Enabled = true
	ch.CreatedAt = now
	ch.UpdatedAt = now

	if err := s.store.CreateNotifyChannel(&ch); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

func (s *Server) handleGetNotifyChannel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ch, err := s.store.GetNotifyChannel(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ch == nil {
		writeError(w, http.StatusNotFound, "notify channel not found")
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) handleUpdateNotifyChannel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := s.store.GetNotifyChannel(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "notify channel not found")
		return
	}

	var updates model.NotifyChannel
	if err := readJSON(r, &updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if updates.Name != "" {
		existing.Name = updates.Name
	}
	if updates.Config != "" {
		existing.Config = updates.Config
	}
	existing.Enabled = updates.Enabled
	existing.UpdatedAt = time.Now().UnixMilli()

	if err := s.store.UpdateNotifyChannel(existing); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteNotifyChannel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteNotifyChannel(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleTestNotifyChannel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if s.notifyDispatcher == nil {
		writeError(w, http.StatusServiceUnavailable, "notify dispatcher not available")
		return
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := readJSON(r, &body); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := s.notifyDispatcher.SendTest(id, body.Message); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("test failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleNotifyHistory(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channel")
	limit := limitParam(r, 50)

	records, err := s.store.ListNotifyHistory(channelID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []model.NotifyRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func limitParam(r *http.Request, def int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			return v
		}
	}
	return def
}
