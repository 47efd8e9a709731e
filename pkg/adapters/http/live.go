package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/screener/pkg/domain"
	"github.com/gorilla/websocket"
)

const (
	liveMaxFrameBytes = 64 << 10
	liveWriteTimeout  = 5 * time.Second
)

// Frame types exchanged on /v1/live.
const (
	FramePrompt   = "prompt"
	FrameError    = "error"
	FrameDone     = "done"
	FrameComplete = "complete"
)

// ClientFrame is sent by the voice engine.
type ClientFrame struct {
	Type  string         `json:"type"`
	Stage domain.StageID `json:"stage,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// ServerFrame is sent by the server.
type ServerFrame struct {
	Type    string          `json:"type"`
	Turn    *Turn           `json:"turn,omitempty"`
	Error   *ErrorResponse  `json:"error,omitempty"`
	Session *domain.Session `json:"session,omitempty"`
}

// Live handles GET /v1/live: one interview per websocket connection.
// The session lives only as long as the socket.
func (s *Server) Live(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Live: upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(liveMaxFrameBytes)
	// Clear any deadline inherited from the HTTP server's read timeout.
	conn.SetReadDeadline(time.Time{})

	ctx := r.Context()
	sess := s.engine.NewSession(ctx, r.URL.Query().Get("session_id"))
	log := s.logger.With("session_id", sess.ID)
	log.Info("live interview started")

	if !s.sendTurn(ctx, conn, sess) {
		return
	}

	for {
		if st, _ := s.engine.Stage(sess.Current); st.Terminal() {
			s.write(conn, ServerFrame{Type: FrameDone, Session: sess})
			deadline := time.Now().Add(liveWriteTimeout)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "interview finished"), deadline)
			log.Info("live interview finished", "outcome", sess.State.Outcome)
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("live interview closed by client", "stage", sess.Current)
			} else {
				log.Warn("live read failed", "stage", sess.Current, "err", err)
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			// A malformed frame is reported, the interview continues.
			if !s.write(conn, ServerFrame{Type: FrameError, Error: &ErrorResponse{Error: err.Error(), Code: "bad_request"}}) {
				return
			}
			continue
		}

		if !s.handleFrame(ctx, conn, sess, frame) {
			return
		}
	}
}

// handleFrame applies one client frame. It returns false once the socket is unusable.
func (s *Server) handleFrame(ctx context.Context, conn *websocket.Conn, sess *domain.Session, frame ClientFrame) bool {
	if frame.Type != FrameComplete {
		return s.write(conn, ServerFrame{Type: FrameError, Error: &ErrorResponse{Error: "unsupported frame type " + frame.Type, Code: "bad_request"}})
	}
	stage := frame.Stage
	if stage == "" {
		stage = sess.Current
	}
	data, err := s.sanitize(frame.Data)
	if err != nil {
		return s.write(conn, ServerFrame{Type: FrameError, Error: &ErrorResponse{Error: err.Error(), Code: "invalid_input"}})
	}

	if _, err := s.engine.Complete(ctx, sess, stage, data); err != nil {
		resp := ErrorResponse{Error: err.Error()}
		var xerr *domain.ExtractionError
		if errors.As(err, &xerr) {
			resp.Code, resp.Field, resp.Reason = "extraction_failed", xerr.Field, xerr.Reason
			resp.Reprompt, _ = s.engine.RenderText(s.engine.Script().Reprompt, sess)
		} else {
			_, resp.Code = classify(err)
		}
		if !s.write(conn, ServerFrame{Type: FrameError, Error: &resp}) {
			return false
		}
	}
	return s.sendTurn(ctx, conn, sess)
}

func (s *Server) sendTurn(ctx context.Context, conn *websocket.Conn, sess *domain.Session) bool {
	turn, err := s.turn(ctx, sess, sess.Current)
	if err != nil {
		_, code := classify(err)
		s.write(conn, ServerFrame{Type: FrameError, Error: &ErrorResponse{Error: err.Error(), Code: code}})
		return false
	}
	return s.write(conn, ServerFrame{Type: FramePrompt, Turn: turn})
}

func (s *Server) write(conn *websocket.Conn, frame ServerFrame) bool {
	conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	if err := conn.WriteJSON(frame); err != nil {
		s.logger.Warn("live write failed", "type", frame.Type, "err", err)
		return false
	}
	return true
}
