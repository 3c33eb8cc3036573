package adminapi

import (
	"net/http"
	"strconv"
)

type localWriteRequest struct {
	Data string `json:"data"`
}

type localWriteResponse struct {
	BytesWritten int `json:"bytes_written"`
}

func (s *Server) handleLocalWrite(w http.ResponseWriter, r *http.Request) {
	if s.local == nil {
		writeError(w, http.StatusServiceUnavailable, "local handle not available")
		return
	}

	var req localWriteRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	n, err := s.local.Write(r.Context(), []byte(req.Data))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, localWriteResponse{BytesWritten: n})
}

func (s *Server) handleLocalRead(w http.ResponseWriter, r *http.Request) {
	if s.local == nil {
		writeError(w, http.StatusServiceUnavailable, "local handle not available")
		return
	}

	length := 4096
	if v := r.URL.Query().Get("length"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			length = parsed
		}
	}

	buf := make([]byte, length)
	n, err := s.local.Read(r.Context(), buf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"data": string(buf[:n])})
}

type localSeekRequest struct {
	Offset    int64  `json:"offset"`
	Whence    int    `json:"whence"` // localhandle.SeekSet/SeekCur/SeekEnd
	ToRecord  bool   `json:"to_record"`
	Record    uint32 `json:"record"`
	RecordOff uint32 `json:"record_offset"`
}

type localSeekResponse struct {
	Position int64 `json:"position"`
}

func (s *Server) handleLocalSeek(w http.ResponseWriter, r *http.Request) {
	if s.local == nil {
		writeError(w, http.StatusServiceUnavailable, "local handle not available")
		return
	}

	var req localSeekRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if req.ToRecord {
		if err := s.local.IoctlSeekToRecord(r.Context(), req.Record, req.RecordOff); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	pos, err := s.local.Seek(r.Context(), req.Offset, req.Whence)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, localSeekResponse{Position: pos})
}
