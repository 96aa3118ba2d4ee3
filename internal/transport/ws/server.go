package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"fishtank.gg/internal/protocol"
	"fishtank.gg/internal/sim/aquarium"
	"fishtank.gg/internal/store"
	"fishtank.gg/internal/users"
)

type Server struct {
	world  *aquarium.World
	ledger *users.Ledger
	store  *store.Store
	log    *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *aquarium.World, ledger *users.Ledger, st *store.Store, logger *log.Logger) *Server {
	return &Server{
		world:  w,
		ledger: ledger,
		store:  st,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, username, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		s.ledger.Connect(username)
		s.world.Join(aquarium.JoinRequest{SessionID: sessionID, Username: username, Out: out})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeCmd {
				continue
			}
			var cmd protocol.CmdMsg
			if err := json.Unmarshal(msg, &cmd); err != nil {
				continue
			}
			if cmd.ProtocolVersion != protocol.Version {
				s.sendAck(out, cmd.Verb, false, protocol.ErrProtoBadRequest, "bad protocol_version")
				continue
			}
			s.handleCmd(out, username, cmd)
		}

		// Cleanup.
		s.world.Leave(sessionID)
		s.ledger.Disconnect(username)
	}
}

// handleCmd routes one player command. Verbs with side effects on the tank
// are forwarded to the simulation inbox keyed by the session username; the
// payload never names the actor.
func (s *Server) handleCmd(out chan []byte, username string, cmd protocol.CmdMsg) {
	switch cmd.Verb {
	case "tap":
		s.world.Enqueue(aquarium.Command{
			Verb: aquarium.VerbTap, X: cmd.X, Y: cmd.Y, Username: username,
		})

	case "pickup":
		if cmd.TargetID == "" {
			s.sendAck(out, cmd.Verb, false, protocol.ErrBadRequest, "missing target_id")
			return
		}
		s.world.Enqueue(aquarium.Command{
			Verb: aquarium.VerbPickup, TargetID: cmd.TargetID, Username: username,
		})

	case "use":
		tool, ok := s.world.Tuning().Tools[cmd.Tool]
		if !ok {
			s.sendAck(out, cmd.Verb, false, protocol.ErrUnknownKind, "unknown tool "+cmd.Tool)
			return
		}
		balance, ok, err := s.ledger.Debit(username, tool.Cost)
		if err != nil {
			s.log.Printf("use %s: debit: %v", cmd.Tool, err)
			s.sendAck(out, cmd.Verb, false, protocol.ErrInternal, "")
			return
		}
		if !ok {
			s.sendAck(out, cmd.Verb, false, protocol.ErrNoFunds, "insufficient funds")
			return
		}
		s.world.Enqueue(aquarium.Command{
			Verb: aquarium.VerbUse, Tool: cmd.Tool, X: cmd.X, Y: cmd.Y, Username: username,
		})
		s.send(out, protocol.UserUpdateMsg{
			Type: protocol.TypeUserUpdate, Username: username, Money: balance,
		})

	case "store":
		s.send(out, protocol.StoreMsg{Type: protocol.TypeStore, Items: s.store.Summarize()})

	case "contribute":
		s.handleContribute(out, username, cmd)

	case "resync":
		s.world.Enqueue(aquarium.Command{Verb: aquarium.VerbResync, Username: username})

	default:
		s.sendAck(out, cmd.Verb, false, protocol.ErrBadRequest, "unknown verb")
	}
}

// handleContribute runs the store's contribute-with-cap flow: the capped
// amount is debited inside the store's lock, and a fully funded unit becomes
// a create command named after the last contributor.
func (s *Server) handleContribute(out chan []byte, username string, cmd protocol.CmdMsg) {
	fundedKind, err := s.store.Contribute(cmd.ItemID, username, cmd.Amount, func(amount float64) bool {
		_, ok, derr := s.ledger.Debit(username, amount)
		if derr != nil {
			s.log.Printf("contribute %s: debit: %v", cmd.ItemID, derr)
			return false
		}
		return ok
	})
	if err != nil {
		code := protocol.ErrBadRequest
		if parts := strings.SplitN(err.Error(), ":", 2); protocol.IsKnownCode(parts[0]) {
			code = parts[0]
		}
		s.sendAck(out, cmd.Verb, false, code, err.Error())
		return
	}

	if fundedKind != "" {
		s.world.Enqueue(aquarium.Command{
			Verb:     aquarium.VerbCreate,
			Kind:     fundedKind,
			Spec:     aquarium.CreateSpec{Username: username},
			Username: username,
		})
	}

	balance, berr := s.ledger.Balance(username)
	if berr == nil {
		s.send(out, protocol.UserUpdateMsg{
			Type: protocol.TypeUserUpdate, Username: username, Money: balance,
		})
	}
	s.send(out, protocol.StoreMsg{Type: protocol.TypeStore, Items: s.store.Summarize()})
	s.sendAck(out, cmd.Verb, true, "", "")
}

// handshake expects HELLO and answers WELCOME with the user's balance and
// the world parameters. Anonymous connections get a throwaway guest name.
func (s *Server) handshake(conn *websocket.Conn) (sessionID, username string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"),
			time.Now().Add(time.Second))
		return "", "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"),
			time.Now().Add(time.Second))
		return "", "", nil
	}

	sessionID = uuid.NewString()
	username = strings.TrimSpace(hello.Username)
	if username == "" {
		username = "guest-" + sessionID[:8]
	}

	if err := s.ledger.Ensure(username); err != nil {
		s.log.Printf("handshake %s: %v", username, err)
		return "", "", nil
	}
	balance, err := s.ledger.Balance(username)
	if err != nil {
		s.log.Printf("handshake %s: %v", username, err)
		return "", "", nil
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = 64
	}
	if maxQ > 256 {
		maxQ = 256
	}
	out = make(chan []byte, maxQ)

	tune := s.world.Tuning()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		Username:        username,
		Money:           balance,
		WorldParams: protocol.WorldParams{
			WorldID:    s.world.ID(),
			Width:      tune.WorldWidth,
			Height:     tune.WorldHeight,
			TickMs:     tune.TickMs,
			FullSyncMs: tune.FullSyncEveryMs,
		},
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", "", nil
	}
	return sessionID, username, out
}

func (s *Server) send(out chan []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Printf("send marshal: %v", err)
		return
	}
	select {
	case out <- b:
	default:
		// Queue full; the client recovers on the next full sync.
	}
}

func (s *Server) sendAck(out chan []byte, verb string, accepted bool, code, message string) {
	s.send(out, protocol.AckMsg{
		Type:     protocol.TypeAck,
		AckFor:   verb,
		Accepted: accepted,
		Code:     code,
		Message:  message,
	})
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
