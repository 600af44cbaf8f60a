package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"forecast-oversight/internal/dashboard"
	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/observability"
)

const (
	streamReadLimit    = 64 << 10
	streamWriteTimeout = 10 * time.Second
)

// streamReply answers one filter message. Exactly one of KPIs and Error is set.
type streamReply struct {
	KPIs   *kpiJSON    `json:"kpis,omitempty"`
	Filter *filterJSON `json:"filter,omitempty"`
	Error  string      `json:"error,omitempty"`
	Kind   string      `json:"kind,omitempty"`
}

// handleStream recomputes KPIs for every filter message received on the
// socket. The dataset is loaded once per session.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	d, err := s.svc.Dataset(ctx, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("Stream upgrade for %s: %v", id, err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(streamReadLimit)

	observability.StreamOpened()
	defer observability.StreamClosed()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("Stream %s closed: %v", id, err)
			}
			return
		}

		reply := s.streamReply(ctx, d, msg)
		if reply.Error != "" {
			observability.RecordStreamMessage("error")
		} else {
			observability.RecordStreamMessage("ok")
		}

		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Printf("Stream %s write: %v", id, err)
			return
		}
	}
}

func (s *Server) streamReply(ctx context.Context, d *domain.Dataset, msg []byte) streamReply {
	var q dashboard.FilterQuery
	if err := json.Unmarshal(msg, &q); err != nil {
		return s.errorReply(fmt.Errorf("%w: malformed filter message: %v", errBadRequest, err))
	}
	if err := s.checkStruct(q); err != nil {
		return s.errorReply(err)
	}
	res, err := s.svc.KPIsFor(ctx, d, q)
	if err != nil {
		return s.errorReply(err)
	}
	k := toKPIJSON(res.KPIs)
	f := toFilterJSON(res.Filter)
	return streamReply{KPIs: &k, Filter: &f}
}

func (s *Server) errorReply(err error) streamReply {
	status, kind := errorKind(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Printf("Stream error: %v", err)
		msg = "internal error"
	}
	return streamReply{Error: msg, Kind: kind}
}
