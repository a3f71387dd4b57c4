package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"pomo/internal/logging"
)

const connTimeout = 5 * time.Second

// Handler executes a decoded command and produces the reply.
type Handler interface {
	Handle(command Command) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(command Command) Response

// Handle calls fn(command).
func (fn HandlerFunc) Handle(command Command) Response {
	return fn(command)
}

// Server accepts CLI connections on a localhost TCP socket and feeds
// each request line through a Handler.
type Server struct {
	listener net.Listener
	handler  Handler
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// Listen binds the server to 127.0.0.1:port. Port 0 picks an
// ephemeral port, which Port reports.
func Listen(port int, handler Handler) (*Server, error) {
	listener, err := net.Listen("tcp", Address(port))
	if err != nil {
		return nil, fmt.Errorf("bind ipc listener: %w", err)
	}
	return &Server{listener: listener, handler: handler}, nil
}

// Address returns the localhost endpoint for port.
func Address(port int) string {
	return fmt.Sprintf("127.0.0.1:%d", port)
}

// Port returns the port the server is bound to.
func (server *Server) Port() int {
	return server.listener.Addr().(*net.TCPAddr).Port
}

// Serve accepts connections until Close is called. Each connection is
// handled on its own goroutine.
func (server *Server) Serve() {
	logging.Info().Str("addr", server.listener.Addr().String()).Msg("ipc server listening")

	for {
		conn, err := server.listener.Accept()
		if err != nil {
			server.mu.Lock()
			closed := server.closed
			server.mu.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return
			}
			logging.Warn().Err(err).Msg("ipc accept failed")
			continue
		}

		server.wg.Add(1)
		go func() {
			defer server.wg.Done()
			server.handleConn(conn)
		}()
	}
}

// Close stops accepting connections and waits for in-flight requests.
func (server *Server) Close() error {
	server.mu.Lock()
	if server.closed {
		server.mu.Unlock()
		return nil
	}
	server.closed = true
	server.mu.Unlock()

	err := server.listener.Close()
	server.wg.Wait()
	return err
}

func (server *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return
	}

	var command Command
	if err := json.Unmarshal(line, &command); err != nil {
		server.reply(conn, Errorf("invalid command: %v", err))
		return
	}
	logging.Debug().Str("command", command.Command).Msg("ipc request")

	if command.Command == CommandPing {
		server.reply(conn, Response{Type: TypePong})
		return
	}
	server.reply(conn, server.handler.Handle(command))
}

func (server *Server) reply(conn net.Conn, response Response) {
	payload, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("ipc response marshal failed")
		return
	}
	payload = append(payload, '\n')
	if _, err := conn.Write(payload); err != nil {
		logging.Debug().Err(err).Msg("ipc response write failed")
	}
}
